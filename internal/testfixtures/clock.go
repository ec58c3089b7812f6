package testfixtures

import (
	"sync"
	"time"

	"github.com/example/association-planning/internal/calendar"
)

// Clock provides a controllable time source for tests.
type Clock struct {
	mu       sync.Mutex
	current  time.Time
	location *time.Location
}

// NewClock returns a clock initialised to the supplied time. When start is the
// zero value, the shared ReferenceTime is used.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start, location: time.UTC}
}

// Now returns the current instant tracked by the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now as a function suitable for dependency injection.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Today returns the calendar day of the current instant in the clock's
// location. It satisfies the "today" provider of the HTTP handlers.
func (c *Clock) Today() calendar.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	return calendar.DateOf(c.current.In(c.location))
}

// SetLocation changes the time zone used by Today.
func (c *Clock) SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	c.mu.Lock()
	c.location = loc
	c.mu.Unlock()
}

// Set updates the clock to the provided time.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// SetDate moves the clock to 08:00 UTC on date, keeping tests readable when
// only the day matters.
func (c *Clock) SetDate(date calendar.Date) {
	c.Set(date.Time().Add(8 * time.Hour))
}

// Advance moves the clock forward by the provided duration and returns the
// updated time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.current = c.current.Add(d)
	updated := c.current
	c.mu.Unlock()
	return updated
}

// AdvanceDays moves the clock forward by n calendar days.
func (c *Clock) AdvanceDays(n int) time.Time {
	return c.Advance(time.Duration(n) * 24 * time.Hour)
}
