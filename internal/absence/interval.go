// Package absence models member absence periods at half-day granularity and
// keeps a member's set of periods minimal by merging overlapping or touching
// intervals.
package absence

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/association-planning/internal/calendar"
)

var (
	// ErrInvalidRange is returned when an interval ends on a date before it starts.
	ErrInvalidRange = errors.New("absence: end date is before start date")
	// ErrInvalidSlotConfiguration is returned when a single-day interval starts
	// at closing and ends at opening.
	ErrInvalidSlotConfiguration = errors.New("absence: single-day interval cannot start at closing and end at opening")
)

// Interval is one contiguous period, both ends inclusive, during which a member
// is unavailable.
type Interval struct {
	ID        string
	MemberID  string
	Start     calendar.Point
	End       calendar.Point
	CreatedAt time.Time
}

// New validates the bounds of an absence and returns the corresponding
// interval. Unspecified slots default to opening for the start and closing for
// the end, i.e. full days.
func New(memberID string, startDate, endDate calendar.Date, startSlot, endSlot calendar.Slot) (Interval, error) {
	if startSlot == calendar.SlotUnspecified {
		startSlot = calendar.Opening
	}
	if endSlot == calendar.SlotUnspecified {
		endSlot = calendar.Closing
	}
	if !startSlot.Valid() || !endSlot.Valid() {
		return Interval{}, calendar.ErrInvalidSlot
	}
	if startDate.IsZero() || endDate.IsZero() {
		return Interval{}, calendar.ErrInvalidDate
	}
	if startDate.After(endDate) {
		return Interval{}, ErrInvalidRange
	}
	if startDate.Equal(endDate) && startSlot == calendar.Closing && endSlot == calendar.Opening {
		return Interval{}, ErrInvalidSlotConfiguration
	}

	return Interval{
		MemberID: memberID,
		Start:    calendar.At(startDate, startSlot),
		End:      calendar.At(endDate, endSlot),
	}, nil
}

// Contains reports whether p lies within the interval.
func (i Interval) Contains(p calendar.Point) bool {
	return i.Start.Compare(p) <= 0 && p.Compare(i.End) <= 0
}

// ContainsDate reports whether any slot of date is covered.
func (i Interval) ContainsDate(date calendar.Date) bool {
	return !date.Before(i.Start.Date) && !date.After(i.End.Date)
}

// Intersects reports whether the interval shares at least one date with [start, end].
func (i Interval) Intersects(start, end calendar.Date) bool {
	return !i.Start.Date.After(end) && !start.After(i.End.Date)
}

// SingleDay reports whether the interval starts and ends on the same date.
func (i Interval) SingleDay() bool {
	return i.Start.Date.Equal(i.End.Date)
}

// Describe renders a short human description of the period. Slot qualifiers
// are only added when they narrow the default full-day reading.
func (i Interval) Describe() string {
	start := i.Start.Date.String()
	if i.SingleDay() {
		if i.Start.Slot == i.End.Slot {
			return fmt.Sprintf("on %s (%s)", start, i.Start.Slot)
		}
		return "on " + start
	}

	end := i.End.Date.String()
	if i.Start.Slot == calendar.Closing {
		start += " (closing)"
	}
	if i.End.Slot == calendar.Opening {
		end += " (opening)"
	}
	return fmt.Sprintf("from %s to %s", start, end)
}

// Find returns the first interval covering p.
func Find(intervals []Interval, p calendar.Point) (Interval, bool) {
	for _, interval := range intervals {
		if interval.Contains(p) {
			return interval, true
		}
	}
	return Interval{}, false
}

// IsAbsent reports whether any interval covers p.
func IsAbsent(intervals []Interval, p calendar.Point) bool {
	_, ok := Find(intervals, p)
	return ok
}
