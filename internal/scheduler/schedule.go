package scheduler

import (
	"sort"

	"github.com/example/association-planning/internal/absence"
	"github.com/example/association-planning/internal/calendar"
)

// Coverage tells which part of a day an absence takes.
type Coverage int

const (
	// CoverageNone means the member is not absent that day.
	CoverageNone Coverage = iota
	// CoverageFullDay means both slots are covered.
	CoverageFullDay
	// CoverageOpeningOnly means the absence ends at opening that day.
	CoverageOpeningOnly
	// CoverageClosingOnly means the absence starts at closing that day.
	CoverageClosingOnly
)

func (c Coverage) String() string {
	switch c {
	case CoverageFullDay:
		return "full_day"
	case CoverageOpeningOnly:
		return "opening_only"
	case CoverageClosingOnly:
		return "closing_only"
	default:
		return "none"
	}
}

// Classify returns the coverage of date by a member's intervals. Every member
// absent on date gets exactly one of the three non-empty coverages.
func Classify(date calendar.Date, intervals []absence.Interval) Coverage {
	opening := absence.IsAbsent(intervals, calendar.At(date, calendar.Opening))
	closing := absence.IsAbsent(intervals, calendar.At(date, calendar.Closing))
	switch {
	case opening && closing:
		return CoverageFullDay
	case opening:
		return CoverageOpeningOnly
	case closing:
		return CoverageClosingOnly
	default:
		return CoverageNone
	}
}

// AbsentMember is a member listed in the day-level absence panel.
type AbsentMember struct {
	Member  Member
	Absence AbsenceDetail
}

// DayAbsences partitions every member absent on a date.
type DayAbsences struct {
	FullDay     []AbsentMember
	OpeningOnly []AbsentMember
	ClosingOnly []AbsentMember
}

// Count returns the number of absent members.
func (d DayAbsences) Count() int {
	return len(d.FullDay) + len(d.OpeningOnly) + len(d.ClosingOnly)
}

// DaySchedule is the resolved view of one date.
type DaySchedule struct {
	Date     calendar.Date
	Weekday  int
	Opening  SlotResolution
	Closing  SlotResolution
	Absences DayAbsences
}

// View is the computed schedule for an inclusive date range.
type View struct {
	Start    calendar.Date
	End      calendar.Date
	Dates    []calendar.Date
	Schedule []DaySchedule
}

// Input bundles everything the aggregator reads.
type Input struct {
	Members   []Member
	Recurring []RecurringAssignment
	Specific  []SpecificAssignment
	Absences  []absence.Interval
}

// ComputeSchedule resolves every date from start to end inclusive. The
// computation is read-only and safe to run concurrently.
func ComputeSchedule(start, end calendar.Date, in Input) View {
	members := NewDirectory(in.Members)
	absences := NewAbsenceIndex(in.Absences)

	recurringByWeekday := make(map[int][]RecurringAssignment, 7)
	for _, a := range in.Recurring {
		recurringByWeekday[a.Weekday] = append(recurringByWeekday[a.Weekday], a)
	}
	specificByDate := make(map[calendar.Date][]SpecificAssignment)
	for _, a := range in.Specific {
		specificByDate[a.Date] = append(specificByDate[a.Date], a)
	}

	days := calendar.Days(start, end)
	view := View{
		Start:    start,
		End:      end,
		Dates:    days,
		Schedule: make([]DaySchedule, 0, len(days)),
	}

	for _, date := range days {
		resolved := ResolveDay(date, recurringByWeekday[date.Weekday()], specificByDate[date], absences, members)
		view.Schedule = append(view.Schedule, DaySchedule{
			Date:     date,
			Weekday:  date.Weekday(),
			Opening:  resolved.Opening,
			Closing:  resolved.Closing,
			Absences: AbsencesOn(date, absences, members),
		})
	}

	return view
}

// AbsencesOn groups every member absent on date by coverage, whether or not
// they are scheduled that day.
func AbsencesOn(date calendar.Date, absences AbsenceIndex, members Directory) DayAbsences {
	var out DayAbsences

	for memberID, intervals := range absences {
		coverage := Classify(date, intervals)
		if coverage == CoverageNone {
			continue
		}

		var covering absence.Interval
		for _, interval := range intervals {
			if interval.ContainsDate(date) {
				covering = interval
				break
			}
		}
		entry := AbsentMember{Member: members.Lookup(memberID), Absence: DetailOf(covering)}

		switch coverage {
		case CoverageFullDay:
			out.FullDay = append(out.FullDay, entry)
		case CoverageOpeningOnly:
			out.OpeningOnly = append(out.OpeningOnly, entry)
		case CoverageClosingOnly:
			out.ClosingOnly = append(out.ClosingOnly, entry)
		}
	}

	sortAbsent(out.FullDay)
	sortAbsent(out.OpeningOnly)
	sortAbsent(out.ClosingOnly)
	return out
}

func sortAbsent(list []AbsentMember) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Member.DisplayName != list[j].Member.DisplayName {
			return list[i].Member.DisplayName < list[j].Member.DisplayName
		}
		return list[i].Member.ID < list[j].Member.ID
	})
}
