package calendar

import "fmt"

// Point is a (date, slot) pair. Points are ordered by date, then slot.
type Point struct {
	Date Date
	Slot Slot
}

// At returns the point for date and slot.
func At(date Date, slot Slot) Point {
	return Point{Date: date, Slot: slot}
}

// Compare returns -1, 0 or 1 comparing p to o.
func (p Point) Compare(o Point) int {
	if c := p.Date.Compare(o.Date); c != 0 {
		return c
	}
	switch {
	case p.Slot.Order() < o.Slot.Order():
		return -1
	case p.Slot.Order() > o.Slot.Order():
		return 1
	default:
		return 0
	}
}

// Before reports whether p sorts strictly before o.
func (p Point) Before(o Point) bool {
	return p.Compare(o) < 0
}

// After reports whether p sorts strictly after o.
func (p Point) After(o Point) bool {
	return p.Compare(o) > 0
}

func (p Point) String() string {
	return fmt.Sprintf("%s %s", p.Date, p.Slot)
}

// ComparePoints compares a and b.
func ComparePoints(a, b Point) int {
	return a.Compare(b)
}

// IsAdjacent reports whether b immediately follows a across a day boundary:
// a is a closing slot and b is the opening slot of the next day.
// Opening followed by closing on the same day is containment, not adjacency.
func IsAdjacent(a, b Point) bool {
	return a.Slot == Closing && b.Slot == Opening && b.Date.Equal(a.Date.AddDays(1))
}

// MinPoint returns the earlier of a and b.
func MinPoint(a, b Point) Point {
	if b.Before(a) {
		return b
	}
	return a
}

// MaxPoint returns the later of a and b.
func MaxPoint(a, b Point) Point {
	if b.After(a) {
		return b
	}
	return a
}
