package persistence

import (
	"time"

	"github.com/example/association-planning/internal/calendar"
)

// Member represents an association volunteer.
type Member struct {
	ID        string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// Absence represents a stored absence period with inclusive bounds.
type Absence struct {
	ID        string
	MemberID  string
	StartDate calendar.Date
	StartSlot calendar.Slot
	EndDate   calendar.Date
	EndSlot   calendar.Slot
	CreatedAt time.Time
}

// RecurringAssignment is a weekly roster row. Weekday 0 is Monday.
type RecurringAssignment struct {
	ID        string
	Weekday   int
	Slot      calendar.Slot
	MemberID  string
	CreatedAt time.Time
}

// Specific assignment sources.
const (
	SourceManual    = "manual"
	SourceGenerated = "generated"
)

// SpecificAssignment is a dated roster row.
type SpecificAssignment struct {
	ID        string
	Date      calendar.Date
	Slot      calendar.Slot
	MemberID  string
	Source    string
	CreatedAt time.Time
}
