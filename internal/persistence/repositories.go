package persistence

import (
	"context"

	"github.com/example/association-planning/internal/calendar"
)

// MemberRepository stores members.
type MemberRepository interface {
	CreateMember(ctx context.Context, member Member) error
	GetMember(ctx context.Context, id string) (Member, error)
	ListMembers(ctx context.Context) ([]Member, error)
	DeleteMember(ctx context.Context, id string) error
}

// AbsenceFilter narrows absence queries. Zero values are ignored; From and To
// select absences sharing at least one date with the range.
type AbsenceFilter struct {
	MemberID string
	From     calendar.Date
	To       calendar.Date
}

// AbsenceRepository stores absence periods.
type AbsenceRepository interface {
	CreateAbsence(ctx context.Context, absence Absence) error
	GetAbsence(ctx context.Context, id string) (Absence, error)
	ListAbsences(ctx context.Context, filter AbsenceFilter) ([]Absence, error)
	ListAbsentMemberIDs(ctx context.Context) ([]string, error)
	DeleteAbsence(ctx context.Context, id string) error
	// ReplaceAbsences deletes removeIDs and inserts replacement atomically.
	ReplaceAbsences(ctx context.Context, removeIDs []string, replacement Absence) error
}

// RecurringAssignmentRepository stores the weekly roster.
type RecurringAssignmentRepository interface {
	CreateRecurringAssignment(ctx context.Context, assignment RecurringAssignment) error
	ListRecurringAssignments(ctx context.Context) ([]RecurringAssignment, error)
	DeleteRecurringAssignment(ctx context.Context, id string) error
	// ReplaceRecurringRoster swaps every row of (weekday, slot) for assignments atomically.
	ReplaceRecurringRoster(ctx context.Context, weekday int, slot calendar.Slot, assignments []RecurringAssignment) error
}

// SpecificAssignmentFilter narrows specific assignment queries. Zero values are ignored.
type SpecificAssignmentFilter struct {
	From   calendar.Date
	To     calendar.Date
	Source string
}

// SpecificAssignmentRepository stores dated roster rows.
type SpecificAssignmentRepository interface {
	CreateSpecificAssignment(ctx context.Context, assignment SpecificAssignment) error
	ListSpecificAssignments(ctx context.Context, filter SpecificAssignmentFilter) ([]SpecificAssignment, error)
	DeleteSpecificAssignment(ctx context.Context, id string) error
	// ReplaceGeneratedAssignments deletes the generated rows dated within
	// [from, to] and inserts assignments atomically. Manual rows are kept and
	// win over a generated row for the same date, slot and member. It returns
	// the number of rows inserted.
	ReplaceGeneratedAssignments(ctx context.Context, from, to calendar.Date, assignments []SpecificAssignment) (int, error)
}
