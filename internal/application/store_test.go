package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/association-planning/internal/calendar"
)

// memStore is an in-memory implementation of every repository used by the
// services, mirroring the uniqueness rules of the SQLite schema.
type memStore struct {
	mu        sync.Mutex
	members   map[string]Member
	absences  map[string]Absence
	recurring map[string]RecurringAssignment
	specific  map[string]SpecificAssignment

	replaceCalls int
	listCalls    int
	failList     error
}

func newMemStore() *memStore {
	return &memStore{
		members:   make(map[string]Member),
		absences:  make(map[string]Absence),
		recurring: make(map[string]RecurringAssignment),
		specific:  make(map[string]SpecificAssignment),
	}
}

func (m *memStore) CreateMember(ctx context.Context, member Member) (Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.members {
		if existing.FirstName == member.FirstName && existing.LastName == member.LastName {
			return Member{}, ErrAlreadyExists
		}
	}
	m.members[member.ID] = member
	return member, nil
}

func (m *memStore) GetMember(ctx context.Context, id string) (Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[id]
	if !ok {
		return Member{}, ErrNotFound
	}
	return member, nil
}

func (m *memStore) ListMembers(ctx context.Context) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.failList != nil {
		return nil, m.failList
	}
	out := make([]Member, 0, len(m.members))
	for _, member := range m.members {
		out = append(out, member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) DeleteMember(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[id]; !ok {
		return ErrNotFound
	}
	delete(m.members, id)
	for key, a := range m.absences {
		if a.MemberID == id {
			delete(m.absences, key)
		}
	}
	return nil
}

func (m *memStore) CreateAbsence(ctx context.Context, interval Absence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.absences[interval.ID]; ok {
		return ErrAlreadyExists
	}
	m.absences[interval.ID] = interval
	return nil
}

func (m *memStore) ListAbsences(ctx context.Context, filter AbsenceFilter) ([]Absence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Absence, 0)
	for _, a := range m.absences {
		if filter.MemberID != "" && a.MemberID != filter.MemberID {
			continue
		}
		if !filter.To.IsZero() && a.Start.Date.After(filter.To) {
			continue
		}
		if !filter.From.IsZero() && a.End.Date.Before(filter.From) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MemberID != out[j].MemberID {
			return out[i].MemberID < out[j].MemberID
		}
		if c := out[i].Start.Compare(out[j].Start); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) ListAbsentMemberIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, a := range m.absences {
		if _, ok := seen[a.MemberID]; ok {
			continue
		}
		seen[a.MemberID] = struct{}{}
		ids = append(ids, a.MemberID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memStore) DeleteAbsence(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.absences[id]; !ok {
		return ErrNotFound
	}
	delete(m.absences, id)
	return nil
}

func (m *memStore) ReplaceAbsences(ctx context.Context, removeIDs []string, replacement Absence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++
	for _, id := range removeIDs {
		if _, ok := m.absences[id]; !ok {
			return fmt.Errorf("absence %s: %w", id, ErrNotFound)
		}
	}
	for _, id := range removeIDs {
		delete(m.absences, id)
	}
	m.absences[replacement.ID] = replacement
	return nil
}

// put stores an absence without merging, as legacy data would be.
func (m *memStore) put(a Absence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.absences[a.ID] = a
}

func (m *memStore) CreateRecurringAssignment(ctx context.Context, a RecurringAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.recurring {
		if existing.Weekday == a.Weekday && existing.Slot == a.Slot && existing.MemberID == a.MemberID {
			return ErrAlreadyExists
		}
	}
	m.recurring[a.ID] = a
	return nil
}

func (m *memStore) ListRecurringAssignments(ctx context.Context) ([]RecurringAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecurringAssignment, 0, len(m.recurring))
	for _, a := range m.recurring {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		if out[i].Slot != out[j].Slot {
			return out[i].Slot < out[j].Slot
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) DeleteRecurringAssignment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recurring[id]; !ok {
		return ErrNotFound
	}
	delete(m.recurring, id)
	return nil
}

func (m *memStore) ReplaceRecurringRoster(ctx context.Context, weekday int, slot calendar.Slot, assignments []RecurringAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.recurring {
		if a.Weekday == weekday && a.Slot == slot {
			delete(m.recurring, id)
		}
	}
	for _, a := range assignments {
		m.recurring[a.ID] = a
	}
	return nil
}

func (m *memStore) CreateSpecificAssignment(ctx context.Context, a SpecificAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.specific {
		if existing.Date.Equal(a.Date) && existing.Slot == a.Slot && existing.MemberID == a.MemberID {
			return ErrAlreadyExists
		}
	}
	m.specific[a.ID] = a
	return nil
}

func (m *memStore) ListSpecificAssignments(ctx context.Context, filter SpecificFilter) ([]SpecificAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SpecificAssignment, 0)
	for _, a := range m.specific {
		if !filter.From.IsZero() && a.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && a.Date.After(filter.To) {
			continue
		}
		if filter.Source != "" && a.Source != filter.Source {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		if out[i].Slot != out[j].Slot {
			return out[i].Slot < out[j].Slot
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out, nil
}

func (m *memStore) DeleteSpecificAssignment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.specific[id]; !ok {
		return ErrNotFound
	}
	delete(m.specific, id)
	return nil
}

func (m *memStore) ReplaceGeneratedAssignments(ctx context.Context, from, to calendar.Date, assignments []SpecificAssignment) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.specific {
		if a.Source == "generated" && !a.Date.Before(from) && !a.Date.After(to) {
			delete(m.specific, id)
		}
	}
	inserted := 0
next:
	for _, a := range assignments {
		for _, existing := range m.specific {
			if existing.Date.Equal(a.Date) && existing.Slot == a.Slot && existing.MemberID == a.MemberID {
				continue next
			}
		}
		m.specific[a.ID] = a
		inserted++
	}
	return inserted, nil
}

// sequence returns an id generator yielding prefix-1, prefix-2, ...
func sequence(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

type invalidationRecorder struct {
	mu      sync.Mutex
	reasons []string
}

func (r *invalidationRecorder) Invalidate(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func (r *invalidationRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reasons)
}

func seedMembers(store *memStore, members ...Member) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, m := range members {
		store.members[m.ID] = m
	}
}
