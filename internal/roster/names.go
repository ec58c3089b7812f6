package roster

import (
	"errors"
	"strings"
)

// ErrEmptyName is returned when a full name has no usable first name.
var ErrEmptyName = errors.New("roster: name is empty")

// SplitFullName splits a full name on its first whitespace run: the first
// token is the first name and the remainder, possibly empty, the last name.
// Inner whitespace of the last name is collapsed.
func SplitFullName(fullName string) (first, last string, err error) {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return "", "", ErrEmptyName
	}
	return fields[0], strings.Join(fields[1:], " "), nil
}
