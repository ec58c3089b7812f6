package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/association-planning/internal/persistence"
	"github.com/example/association-planning/internal/persistence/sqlite"
	"github.com/example/association-planning/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides repository access backed by a temporary SQLite storage
// instance for integration-style tests.
type SQLiteHarness struct {
	Storage   *sqlite.Storage
	Members   persistence.MemberRepository
	Absences  persistence.AbsenceRepository
	Recurring persistence.RecurringAssignmentRepository
	Specific  persistence.SpecificAssignmentRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "planning.db")

	storage, err := sqlite.Open(migration.TempFileTestSQLiteConfig(path), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:   storage,
		Members:   storage.Members,
		Absences:  storage.Absences,
		Recurring: storage.Recurring,
		Specific:  storage.Specific,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedMembers stores the fixtures and fails the test on error.
func (h *SQLiteHarness) SeedMembers(tb testing.TB, members ...MemberFixture) {
	tb.Helper()
	for _, m := range members {
		if err := h.Members.CreateMember(context.Background(), m.Persistence()); err != nil {
			tb.Fatalf("failed to seed member %s: %v", m.ID, err)
		}
	}
}

// SeedAbsences stores the fixtures verbatim, without merging.
func (h *SQLiteHarness) SeedAbsences(tb testing.TB, absences ...AbsenceFixture) {
	tb.Helper()
	for _, a := range absences {
		if err := h.Absences.CreateAbsence(context.Background(), a.Persistence()); err != nil {
			tb.Fatalf("failed to seed absence %s: %v", a.ID, err)
		}
	}
}

// SeedRecurring stores the weekly roster fixtures.
func (h *SQLiteHarness) SeedRecurring(tb testing.TB, rows ...RecurringFixture) {
	tb.Helper()
	for _, r := range rows {
		if err := h.Recurring.CreateRecurringAssignment(context.Background(), r.Persistence()); err != nil {
			tb.Fatalf("failed to seed recurring assignment %s: %v", r.ID, err)
		}
	}
}

// SeedSpecific stores the dated roster fixtures.
func (h *SQLiteHarness) SeedSpecific(tb testing.TB, rows ...SpecificFixture) {
	tb.Helper()
	for _, r := range rows {
		if err := h.Specific.CreateSpecificAssignment(context.Background(), r.Persistence()); err != nil {
			tb.Fatalf("failed to seed specific assignment %s: %v", r.ID, err)
		}
	}
}
