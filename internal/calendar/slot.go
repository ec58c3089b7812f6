package calendar

import (
	"errors"
	"fmt"
	"strings"
)

// Slot identifies one of the two service periods of a day.
type Slot int

const (
	// SlotUnspecified is the zero value and never valid on a stored record.
	SlotUnspecified Slot = iota
	// Opening is the first slot of the day.
	Opening
	// Closing is the second slot of the day.
	Closing
)

// ErrInvalidSlot is returned when a slot name cannot be parsed.
var ErrInvalidSlot = errors.New("calendar: invalid slot")

// Slots lists the slots of a day in order.
func Slots() []Slot {
	return []Slot{Opening, Closing}
}

// Order returns 1 for opening and 2 for closing.
func (s Slot) Order() int {
	return int(s)
}

// Valid reports whether s is opening or closing.
func (s Slot) Valid() bool {
	return s == Opening || s == Closing
}

func (s Slot) String() string {
	switch s {
	case Opening:
		return "opening"
	case Closing:
		return "closing"
	default:
		return "unspecified"
	}
}

// ParseSlot converts a slot name into a Slot. The French names used by the
// association's historical data ("ouverture", "fermeture") are accepted too.
func ParseSlot(value string) (Slot, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "opening", "ouverture":
		return Opening, nil
	case "closing", "fermeture":
		return Closing, nil
	default:
		return SlotUnspecified, fmt.Errorf("%w: %q", ErrInvalidSlot, value)
	}
}

// ParseSlotOr parses value, returning fallback when value is blank.
func ParseSlotOr(value string, fallback Slot) (Slot, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return ParseSlot(value)
}

// MarshalText implements encoding.TextMarshaler.
func (s Slot) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlot, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Slot) UnmarshalText(text []byte) error {
	parsed, err := ParseSlot(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
