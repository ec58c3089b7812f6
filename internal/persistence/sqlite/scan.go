package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/association-planning/internal/calendar"
	"github.com/example/association-planning/internal/persistence"
)

type scanner interface {
	Scan(dest ...any) error
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDateColumn(column, value string) (calendar.Date, error) {
	d, err := calendar.ParseDate(value)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("column %s: %w", column, err)
	}
	return d, nil
}

func parseSlotColumn(column, value string) (calendar.Slot, error) {
	s, err := calendar.ParseSlot(value)
	if err != nil {
		return calendar.SlotUnspecified, fmt.Errorf("column %s: %w", column, err)
	}
	return s, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
