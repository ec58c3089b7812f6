package application

import (
	"time"

	"github.com/example/association-planning/internal/absence"
	"github.com/example/association-planning/internal/calendar"
	"github.com/example/association-planning/internal/scheduler"
)

// Member represents an association volunteer exposed by the services.
type Member struct {
	ID          string
	FirstName   string
	LastName    string
	DisplayName string
	CreatedAt   time.Time
}

// Absence is a stored absence period of one member.
type Absence = absence.Interval

// RecurringAssignment is a weekly roster row.
type RecurringAssignment = scheduler.RecurringAssignment

// SpecificAssignment is a dated roster row.
type SpecificAssignment = scheduler.SpecificAssignment

// ScheduleView is a computed schedule over an inclusive date range.
type ScheduleView = scheduler.View

// CreateAbsenceParams wraps the data required to record an absence. Zero
// slots default to a full-day reading.
type CreateAbsenceParams struct {
	MemberID  string
	StartDate calendar.Date
	EndDate   calendar.Date
	StartSlot calendar.Slot
	EndSlot   calendar.Slot
}

// CreateAbsenceResult reports the stored interval and the intervals it absorbed.
type CreateAbsenceResult struct {
	Absence Absence
	Merged  []Absence
}

// ConsolidationResult reports how many intervals a member held before and
// after a consolidation pass.
type ConsolidationResult struct {
	MemberID string
	Before   int
	After    int
}

// Changed reports whether the pass merged anything.
func (r ConsolidationResult) Changed() bool {
	return r.After != r.Before
}

// AbsentMember pairs an absent member with the interval covering the date.
type AbsentMember struct {
	Member   Member
	Absence  Absence
	Coverage scheduler.Coverage
}

// CreateRecurringParams wraps the data required to add one weekly roster row.
type CreateRecurringParams struct {
	Weekday  int
	Slot     calendar.Slot
	MemberID string
}

// SetRosterParams replaces the roster of a (weekday, slot) pair.
type SetRosterParams struct {
	Weekday   int
	Slot      calendar.Slot
	MemberIDs []string
}

// RosterResult is the roster stored for a (weekday, slot) pair together with
// staffing warnings.
type RosterResult struct {
	Assignments []RecurringAssignment
	Warnings    []string
}

// CreateSpecificParams wraps the data required to add a manual dated roster row.
type CreateSpecificParams struct {
	Date     calendar.Date
	Slot     calendar.Slot
	MemberID string
}

// GenerateResult reports the outcome of expanding the weekly roster.
type GenerateResult struct {
	From      calendar.Date
	To        calendar.Date
	Generated int
}
