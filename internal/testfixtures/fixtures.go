package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/association-planning/internal/application"
	"github.com/example/association-planning/internal/calendar"
	"github.com/example/association-planning/internal/persistence"
	"github.com/example/association-planning/internal/scheduler"
)

var (
	memberCounter    uint64
	absenceCounter   uint64
	recurringCounter uint64
	specificCounter  uint64
)

// referenceTime is a Monday morning.
var referenceTime = time.Date(2025, time.September, 15, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the calendar day of ReferenceTime.
func ReferenceDate() calendar.Date {
	return calendar.DateOf(referenceTime)
}

// ----------------------------- Member fixtures ----------------------------

// MemberFixture represents a deterministic member record.
type MemberFixture struct {
	ID        string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// MemberOption configures the generated member fixture.
type MemberOption func(*MemberFixture)

// NewMemberFixture returns a deterministic member fixture with optional overrides.
func NewMemberFixture(opts ...MemberOption) MemberFixture {
	idx := atomic.AddUint64(&memberCounter, 1)
	fixture := MemberFixture{
		ID:        fmt.Sprintf("member-%03d", idx),
		FirstName: fmt.Sprintf("Member%03d", idx),
		LastName:  "Benevole",
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMemberID overrides the generated member ID.
func WithMemberID(id string) MemberOption {
	return func(f *MemberFixture) {
		f.ID = id
	}
}

// WithMemberName sets the first and last name.
func WithMemberName(first, last string) MemberOption {
	return func(f *MemberFixture) {
		f.FirstName = first
		f.LastName = last
	}
}

// WithMemberCreatedAt sets the created timestamp.
func WithMemberCreatedAt(t time.Time) MemberOption {
	return func(f *MemberFixture) {
		f.CreatedAt = t
	}
}

// FullName returns the name as typed by a coordinator.
func (f MemberFixture) FullName() string {
	if f.LastName == "" {
		return f.FirstName
	}
	return f.FirstName + " " + f.LastName
}

// Application returns the fixture as an application.Member. DisplayName is
// left to the member service.
func (f MemberFixture) Application() application.Member {
	return application.Member{
		ID:        f.ID,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		CreatedAt: f.CreatedAt,
	}
}

// Persistence returns the fixture as a persistence.Member.
func (f MemberFixture) Persistence() persistence.Member {
	return persistence.Member{
		ID:        f.ID,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		CreatedAt: f.CreatedAt,
	}
}

// Scheduler returns the fixture as a scheduler.Member labelled with its first name.
func (f MemberFixture) Scheduler() scheduler.Member {
	return scheduler.Member{
		ID:          f.ID,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		DisplayName: f.FirstName,
	}
}

// ----------------------------- Absence fixtures ---------------------------

// AbsenceFixture represents a deterministic absence period. The default is a
// single full day on the reference date.
type AbsenceFixture struct {
	ID        string
	MemberID  string
	StartDate calendar.Date
	StartSlot calendar.Slot
	EndDate   calendar.Date
	EndSlot   calendar.Slot
	CreatedAt time.Time
}

// AbsenceOption configures the generated absence fixture.
type AbsenceOption func(*AbsenceFixture)

// NewAbsenceFixture returns a deterministic absence fixture with optional overrides.
func NewAbsenceFixture(opts ...AbsenceOption) AbsenceFixture {
	idx := atomic.AddUint64(&absenceCounter, 1)
	day := ReferenceDate()
	fixture := AbsenceFixture{
		ID:        fmt.Sprintf("absence-%03d", idx),
		MemberID:  "member-001",
		StartDate: day,
		StartSlot: calendar.Opening,
		EndDate:   day,
		EndSlot:   calendar.Closing,
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAbsenceID overrides the generated absence ID.
func WithAbsenceID(id string) AbsenceOption {
	return func(f *AbsenceFixture) {
		f.ID = id
	}
}

// WithAbsenceMember sets the absent member.
func WithAbsenceMember(memberID string) AbsenceOption {
	return func(f *AbsenceFixture) {
		f.MemberID = memberID
	}
}

// WithAbsenceDays sets the inclusive dates, given as YYYY-MM-DD.
func WithAbsenceDays(start, end string) AbsenceOption {
	return func(f *AbsenceFixture) {
		f.StartDate = calendar.MustParseDate(start)
		f.EndDate = calendar.MustParseDate(end)
	}
}

// WithAbsenceSlots sets the first and last slot.
func WithAbsenceSlots(start, end calendar.Slot) AbsenceOption {
	return func(f *AbsenceFixture) {
		f.StartSlot = start
		f.EndSlot = end
	}
}

// WithAbsenceCreatedAt sets the created timestamp.
func WithAbsenceCreatedAt(t time.Time) AbsenceOption {
	return func(f *AbsenceFixture) {
		f.CreatedAt = t
	}
}

// Params returns the fixture as application.CreateAbsenceParams.
func (f AbsenceFixture) Params() application.CreateAbsenceParams {
	return application.CreateAbsenceParams{
		MemberID:  f.MemberID,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		StartSlot: f.StartSlot,
		EndSlot:   f.EndSlot,
	}
}

// Application returns the fixture as an application.Absence.
func (f AbsenceFixture) Application() application.Absence {
	return application.Absence{
		ID:        f.ID,
		MemberID:  f.MemberID,
		Start:     calendar.At(f.StartDate, f.StartSlot),
		End:       calendar.At(f.EndDate, f.EndSlot),
		CreatedAt: f.CreatedAt,
	}
}

// Persistence returns the fixture as a persistence.Absence.
func (f AbsenceFixture) Persistence() persistence.Absence {
	return persistence.Absence{
		ID:        f.ID,
		MemberID:  f.MemberID,
		StartDate: f.StartDate,
		StartSlot: f.StartSlot,
		EndDate:   f.EndDate,
		EndSlot:   f.EndSlot,
		CreatedAt: f.CreatedAt,
	}
}

// --------------------------- Assignment fixtures --------------------------

// RecurringFixture represents a deterministic weekly roster row. The default
// is a Monday opening.
type RecurringFixture struct {
	ID        string
	Weekday   int
	Slot      calendar.Slot
	MemberID  string
	CreatedAt time.Time
}

// RecurringOption configures the generated recurring fixture.
type RecurringOption func(*RecurringFixture)

// NewRecurringFixture returns a deterministic recurring fixture with optional overrides.
func NewRecurringFixture(opts ...RecurringOption) RecurringFixture {
	idx := atomic.AddUint64(&recurringCounter, 1)
	fixture := RecurringFixture{
		ID:        fmt.Sprintf("recurring-%03d", idx),
		Weekday:   0,
		Slot:      calendar.Opening,
		MemberID:  "member-001",
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRecurringID overrides the generated ID.
func WithRecurringID(id string) RecurringOption {
	return func(f *RecurringFixture) {
		f.ID = id
	}
}

// WithRecurringSlot sets the weekday, 0 being Monday, and the slot.
func WithRecurringSlot(weekday int, slot calendar.Slot) RecurringOption {
	return func(f *RecurringFixture) {
		f.Weekday = weekday
		f.Slot = slot
	}
}

// WithRecurringMember sets the assigned member.
func WithRecurringMember(memberID string) RecurringOption {
	return func(f *RecurringFixture) {
		f.MemberID = memberID
	}
}

// Application returns the fixture as an application.RecurringAssignment.
func (f RecurringFixture) Application() application.RecurringAssignment {
	return application.RecurringAssignment{
		ID:       f.ID,
		Weekday:  f.Weekday,
		Slot:     f.Slot,
		MemberID: f.MemberID,
	}
}

// Persistence returns the fixture as a persistence.RecurringAssignment.
func (f RecurringFixture) Persistence() persistence.RecurringAssignment {
	return persistence.RecurringAssignment{
		ID:        f.ID,
		Weekday:   f.Weekday,
		Slot:      f.Slot,
		MemberID:  f.MemberID,
		CreatedAt: f.CreatedAt,
	}
}

// SpecificFixture represents a deterministic dated roster row. The default is
// a manual closing on the reference date.
type SpecificFixture struct {
	ID        string
	Date      calendar.Date
	Slot      calendar.Slot
	MemberID  string
	Source    scheduler.Source
	CreatedAt time.Time
}

// SpecificOption configures the generated specific fixture.
type SpecificOption func(*SpecificFixture)

// NewSpecificFixture returns a deterministic specific fixture with optional overrides.
func NewSpecificFixture(opts ...SpecificOption) SpecificFixture {
	idx := atomic.AddUint64(&specificCounter, 1)
	fixture := SpecificFixture{
		ID:        fmt.Sprintf("specific-%03d", idx),
		Date:      ReferenceDate(),
		Slot:      calendar.Closing,
		MemberID:  "member-001",
		Source:    scheduler.SourceManual,
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSpecificID overrides the generated ID.
func WithSpecificID(id string) SpecificOption {
	return func(f *SpecificFixture) {
		f.ID = id
	}
}

// WithSpecificSlot sets the date, given as YYYY-MM-DD, and the slot.
func WithSpecificSlot(date string, slot calendar.Slot) SpecificOption {
	return func(f *SpecificFixture) {
		f.Date = calendar.MustParseDate(date)
		f.Slot = slot
	}
}

// WithSpecificMember sets the assigned member.
func WithSpecificMember(memberID string) SpecificOption {
	return func(f *SpecificFixture) {
		f.MemberID = memberID
	}
}

// WithSpecificSource marks the row as manual or generated.
func WithSpecificSource(source scheduler.Source) SpecificOption {
	return func(f *SpecificFixture) {
		f.Source = source
	}
}

// Application returns the fixture as an application.SpecificAssignment.
func (f SpecificFixture) Application() application.SpecificAssignment {
	return application.SpecificAssignment{
		ID:       f.ID,
		Date:     f.Date,
		Slot:     f.Slot,
		MemberID: f.MemberID,
		Source:   f.Source,
	}
}

// Persistence returns the fixture as a persistence.SpecificAssignment.
func (f SpecificFixture) Persistence() persistence.SpecificAssignment {
	return persistence.SpecificAssignment{
		ID:        f.ID,
		Date:      f.Date,
		Slot:      f.Slot,
		MemberID:  f.MemberID,
		Source:    string(f.Source),
		CreatedAt: f.CreatedAt,
	}
}
