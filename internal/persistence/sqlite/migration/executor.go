package migration

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

const createVersionTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TEXT NOT NULL,
	checksum TEXT NOT NULL DEFAULT '',
	execution_time_ms INTEGER NOT NULL DEFAULT 0
)`

// executor runs migrations against a SQLite database.
type executor struct {
	db  *sql.DB
	now func() time.Time
}

func (e *executor) initVersionTable(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, createVersionTableSQL); err != nil {
		return &MigrationError{Operation: "create schema_migrations table", Err: err}
	}
	return nil
}

func (e *executor) applied(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT version, applied_at, checksum, execution_time_ms
		FROM schema_migrations`)
	if err != nil {
		return nil, &MigrationError{Operation: "list applied migrations", Err: err}
	}
	defer rows.Close()

	var out []AppliedMigration
	for rows.Next() {
		var (
			item      AppliedMigration
			appliedAt string
			elapsedMs int64
		)
		if err := rows.Scan(&item.Version, &appliedAt, &item.Checksum, &elapsedMs); err != nil {
			return nil, &MigrationError{Operation: "scan applied migration", Err: err}
		}
		if ts, err := time.Parse(time.RFC3339, appliedAt); err == nil {
			item.AppliedAt = ts
		}
		item.ExecutionTime = time.Duration(elapsedMs) * time.Millisecond
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &MigrationError{Operation: "iterate applied migrations", Err: err}
	}

	sortApplied(out)
	return out, nil
}

// apply runs every statement of m and records it, all in one transaction.
func (e *executor) apply(ctx context.Context, m Migration) (time.Duration, error) {
	statements := splitStatements(m.SQL)
	if len(statements) == 0 {
		return 0, newMigrationError(m, "parse SQL", fmt.Errorf("%w: no statements", ErrInvalidMigrationFile))
	}

	started := e.now()
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, newMigrationError(m, "begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, newMigrationError(m, fmt.Sprintf("execute statement %d", i+1),
				fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
	}

	elapsed := e.now().Sub(started)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms)
		VALUES (?, ?, ?, ?)`,
		m.Version, e.now().UTC().Format(time.RFC3339), m.Checksum, elapsed.Milliseconds(),
	); err != nil {
		return 0, newMigrationError(m, "record migration", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, newMigrationError(m, "commit transaction", err)
	}
	return elapsed, nil
}

func sortApplied(list []AppliedMigration) {
	sort.Slice(list, func(i, j int) bool {
		return versionNumber(list[i].Version) < versionNumber(list[j].Version)
	})
}
