// Package roster holds the pure member and roster helpers: display name
// disambiguation, full-name splitting and staffing warnings.
package roster

import (
	"sort"
	"strings"
)

// maxPrefix bounds the last-name prefix tried before falling back to full names.
const maxPrefix = 10

// Person is the naming data of a member.
type Person struct {
	ID        string
	FirstName string
	LastName  string
}

// FullName joins first and last name.
func (p Person) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// DisplayNames returns a short unique label per person id. Persons sharing a
// first name are told apart by the shortest last-name prefix that makes every
// label in the group unique ("Jean D.", "Jean Du."); if ten letters are not
// enough the full name is used.
func DisplayNames(people []Person) map[string]string {
	groups := make(map[string][]Person)
	order := make([]string, 0)
	for _, p := range people {
		if _, ok := groups[p.FirstName]; !ok {
			order = append(order, p.FirstName)
		}
		groups[p.FirstName] = append(groups[p.FirstName], p)
	}

	names := make(map[string]string, len(people))
	for _, first := range order {
		group := groups[first]
		if len(group) == 1 {
			names[group[0].ID] = first
			continue
		}
		for id, label := range differentiate(group) {
			names[id] = label
		}
	}
	return names
}

func differentiate(group []Person) map[string]string {
	sorted := make([]Person, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].LastName) < strings.ToLower(sorted[j].LastName)
	})

	for level := 1; level <= maxPrefix; level++ {
		labels := make(map[string]string, len(sorted))
		seen := make(map[string]struct{}, len(sorted))
		unique := true
		for _, p := range sorted {
			label := abbreviated(p, level)
			if _, dup := seen[label]; dup {
				unique = false
				break
			}
			seen[label] = struct{}{}
			labels[p.ID] = label
		}
		if unique {
			return labels
		}
	}

	labels := make(map[string]string, len(sorted))
	for _, p := range sorted {
		labels[p.ID] = p.FullName()
	}
	return labels
}

func abbreviated(p Person, level int) string {
	last := []rune(p.LastName)
	if len(last) == 0 {
		return p.FirstName
	}
	if len(last) > level {
		last = last[:level]
	}
	return p.FirstName + " " + string(last) + "."
}
