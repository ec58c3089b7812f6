// Package recurrence expands the weekly roster into dated assignments.
package recurrence

import (
	"errors"
	"sort"

	"github.com/example/association-planning/internal/calendar"
)

// defaultMaxDays bounds a single expansion window.
const defaultMaxDays = 366

var (
	// ErrInvalidWindow indicates a missing bound or a window ending before it starts.
	ErrInvalidWindow = errors.New("recurrence: invalid generation window")
	// ErrWindowTooLarge indicates the window exceeds the engine limit.
	ErrWindowTooLarge = errors.New("recurrence: generation window too large")
	// ErrInvalidRule indicates a rule with an out-of-range weekday or an unknown slot.
	ErrInvalidRule = errors.New("recurrence: invalid rule")
)

// Rule is one weekly roster entry: member MemberID serves Slot every Weekday
// (0 is Monday).
type Rule struct {
	ID       string
	Weekday  int
	Slot     calendar.Slot
	MemberID string
}

// Validate checks the weekday and slot of the rule.
func (r Rule) Validate() error {
	if r.Weekday < 0 || r.Weekday > 6 || !r.Slot.Valid() || r.MemberID == "" {
		return ErrInvalidRule
	}
	return nil
}

// Occurrence is a dated instance of a rule.
type Occurrence struct {
	RuleID   string
	Date     calendar.Date
	Slot     calendar.Slot
	MemberID string
}

// Key identifies the (date, slot, member) triple an occurrence occupies.
func (o Occurrence) Key() Key {
	return Key{Date: o.Date, Slot: o.Slot, MemberID: o.MemberID}
}

// Key is the uniqueness key of a dated assignment.
type Key struct {
	Date     calendar.Date
	Slot     calendar.Slot
	MemberID string
}

// GenerateOptions defines the inclusive window and the keys to leave alone.
type GenerateOptions struct {
	From calendar.Date
	To   calendar.Date
	// Occupied lists keys already held by another assignment (typically a
	// manual one); no occurrence is produced for them.
	Occupied map[Key]struct{}
}

// Engine expands rules into occurrences.
type Engine struct {
	maxDays int
}

// NewEngine constructs an Engine accepting windows of up to maxDays days.
// A non-positive maxDays selects one year.
func NewEngine(maxDays int) *Engine {
	if maxDays <= 0 {
		maxDays = defaultMaxDays
	}
	return &Engine{maxDays: maxDays}
}

// GenerateOccurrences walks the window day by day and emits one occurrence
// per rule matching the day's weekday. Results are ordered by date, slot and
// member. Duplicate rules produce a single occurrence.
func (e *Engine) GenerateOccurrences(rules []Rule, opts GenerateOptions) ([]Occurrence, error) {
	if opts.From.IsZero() || opts.To.IsZero() || opts.From.After(opts.To) {
		return nil, ErrInvalidWindow
	}
	maxDays := defaultMaxDays
	if e != nil && e.maxDays > 0 {
		maxDays = e.maxDays
	}
	if opts.From.DaysUntil(opts.To)+1 > maxDays {
		return nil, ErrWindowTooLarge
	}

	byWeekday := make(map[int][]Rule, 7)
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		byWeekday[rule.Weekday] = append(byWeekday[rule.Weekday], rule)
	}

	occurrences := make([]Occurrence, 0)
	seen := make(map[Key]struct{})

	for _, day := range calendar.Days(opts.From, opts.To) {
		for _, rule := range byWeekday[day.Weekday()] {
			occ := Occurrence{RuleID: rule.ID, Date: day, Slot: rule.Slot, MemberID: rule.MemberID}
			key := occ.Key()
			if _, taken := opts.Occupied[key]; taken {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			occurrences = append(occurrences, occ)
		}
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		a, b := occurrences[i], occurrences[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			return c < 0
		}
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		return a.MemberID < b.MemberID
	})

	return occurrences, nil
}
