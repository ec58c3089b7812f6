package roster

import (
	"fmt"

	"github.com/example/association-planning/internal/calendar"
)

// StaffingPolicy sets the recommended minimum members per slot.
type StaffingPolicy struct {
	MinOpening int
	MinClosing int
}

// DefaultStaffingPolicy asks for one member at opening and two at closing.
func DefaultStaffingPolicy() StaffingPolicy {
	return StaffingPolicy{MinOpening: 1, MinClosing: 2}
}

// Warnings returns advisory messages when count is below the recommended
// minimum for slot. Understaffed rosters are still accepted.
func (p StaffingPolicy) Warnings(slot calendar.Slot, count int) []string {
	minimum := p.MinOpening
	if slot == calendar.Closing {
		minimum = p.MinClosing
	}
	if count >= minimum {
		return nil
	}
	return []string{fmt.Sprintf("%s slots work best with at least %d member(s), got %d", slot, minimum, count)}
}
