package migration

import "time"

// Migration is a single versioned SQL script.
type Migration struct {
	Version     string // numeric prefix of the file name, e.g. "001"
	Description string // file name remainder, e.g. "initial_schema"
	SQL         string
	Path        string
	Checksum    string // hex sha256 of SQL
}

// AppliedMigration is a row of the schema_migrations table.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status summarises applied and pending migrations.
type Status struct {
	CurrentVersion string
	Applied        []AppliedMigration
	Pending        []Migration
}

// PendingCount returns the number of migrations waiting to run.
func (s Status) PendingCount() int {
	return len(s.Pending)
}
