// Package scheduler reconciles the weekly roster, one-off assignments and
// member absences into the per-day staffing view.
package scheduler

import (
	"sort"

	"github.com/example/association-planning/internal/absence"
	"github.com/example/association-planning/internal/calendar"
)

// Source tags how a specific assignment was created.
type Source string

const (
	// SourceManual marks assignments entered by a person.
	SourceManual Source = "manual"
	// SourceGenerated marks assignments expanded from the recurring roster.
	SourceGenerated Source = "generated"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceManual || s == SourceGenerated
}

// Member is the minimal member data needed to label schedule entries.
type Member struct {
	ID          string
	FirstName   string
	LastName    string
	DisplayName string
}

// RecurringAssignment is a standing weekly obligation. Weekday 0 is Monday.
type RecurringAssignment struct {
	ID       string
	Weekday  int
	Slot     calendar.Slot
	MemberID string
}

// SpecificAssignment is a one-off presence on a given date.
type SpecificAssignment struct {
	ID       string
	Date     calendar.Date
	Slot     calendar.Slot
	MemberID string
	Source   Source
}

// AbsenceDetail describes the absence period that keeps a member away.
type AbsenceDetail struct {
	IntervalID  string
	Start       calendar.Point
	End         calendar.Point
	Description string
}

// DetailOf converts an interval into its AbsenceDetail.
func DetailOf(interval absence.Interval) AbsenceDetail {
	return AbsenceDetail{
		IntervalID:  interval.ID,
		Start:       interval.Start,
		End:         interval.End,
		Description: interval.Describe(),
	}
}

// Entry is one member listed in a slot.
type Entry struct {
	AssignmentID string
	Member       Member
	Source       Source
	Absence      *AbsenceDetail
}

// SlotResolution partitions the members scheduled in one slot of one day.
type SlotResolution struct {
	PresentAssigned   []Entry
	AbsentAssigned    []Entry
	OccasionalPresent []Entry
}

// Staffed returns how many members are expected on site for the slot.
func (r SlotResolution) Staffed() int {
	return len(r.PresentAssigned) + len(r.OccasionalPresent)
}

// DayResolution holds both slots of a day.
type DayResolution struct {
	Opening SlotResolution
	Closing SlotResolution
}

// Slot returns the resolution for slot.
func (d DayResolution) Slot(slot calendar.Slot) SlotResolution {
	if slot == calendar.Closing {
		return d.Closing
	}
	return d.Opening
}

// Directory resolves member ids to members. Unknown ids resolve to a
// placeholder so that a dangling reference never hides an assignment.
type Directory map[string]Member

// NewDirectory indexes members by id.
func NewDirectory(members []Member) Directory {
	dir := make(Directory, len(members))
	for _, m := range members {
		dir[m.ID] = m
	}
	return dir
}

// Lookup returns the member for id.
func (d Directory) Lookup(id string) Member {
	if m, ok := d[id]; ok {
		return m
	}
	return Member{ID: id, FirstName: "Unknown", DisplayName: "Unknown"}
}

// AbsenceIndex groups absence intervals by member.
type AbsenceIndex map[string][]absence.Interval

// NewAbsenceIndex groups intervals by member id, ordered by start.
func NewAbsenceIndex(intervals []absence.Interval) AbsenceIndex {
	idx := make(AbsenceIndex)
	for _, interval := range intervals {
		idx[interval.MemberID] = append(idx[interval.MemberID], interval)
	}
	for _, list := range idx {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Start.Before(list[j].Start)
		})
	}
	return idx
}

// Find returns the interval keeping memberID away at p.
func (idx AbsenceIndex) Find(memberID string, p calendar.Point) (absence.Interval, bool) {
	return absence.Find(idx[memberID], p)
}

// ResolveDay computes who is present, who is excused and who comes
// occasionally for each slot of date. Recurring and specific assignments not
// matching the date are ignored. An absence always wins over a specific
// assignment.
func ResolveDay(date calendar.Date, recurring []RecurringAssignment, specific []SpecificAssignment, absences AbsenceIndex, members Directory) DayResolution {
	return DayResolution{
		Opening: resolveSlot(date, calendar.Opening, recurring, specific, absences, members),
		Closing: resolveSlot(date, calendar.Closing, recurring, specific, absences, members),
	}
}

func resolveSlot(date calendar.Date, slot calendar.Slot, recurring []RecurringAssignment, specific []SpecificAssignment, absences AbsenceIndex, members Directory) SlotResolution {
	point := calendar.At(date, slot)
	weekday := date.Weekday()
	var res SlotResolution

	for _, a := range recurring {
		if a.Weekday != weekday || a.Slot != slot {
			continue
		}
		entry := Entry{AssignmentID: a.ID, Member: members.Lookup(a.MemberID)}
		if interval, ok := absences.Find(a.MemberID, point); ok {
			detail := DetailOf(interval)
			entry.Absence = &detail
			res.AbsentAssigned = append(res.AbsentAssigned, entry)
			continue
		}
		res.PresentAssigned = append(res.PresentAssigned, entry)
	}

	for _, a := range specific {
		if !a.Date.Equal(date) || a.Slot != slot {
			continue
		}
		if _, ok := absences.Find(a.MemberID, point); ok {
			continue
		}
		res.OccasionalPresent = append(res.OccasionalPresent, Entry{
			AssignmentID: a.ID,
			Member:       members.Lookup(a.MemberID),
			Source:       a.Source,
		})
	}

	return res
}
