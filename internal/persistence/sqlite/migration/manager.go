package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"
)

// Runner applies the migrations found in an fs.FS.
type Runner struct {
	exec   *executor
	fsys   fs.FS
	dir    string
	logger *slog.Logger
}

// NewRunner constructs a Runner reading migrations from dir within fsys.
func NewRunner(db *sql.DB, fsys fs.FS, dir string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		dir = "."
	}
	return &Runner{
		exec:   &executor{db: db, now: time.Now},
		fsys:   fsys,
		dir:    dir,
		logger: logger.With("component", "migration"),
	}
}

// Run applies pending migrations in version order and returns how many ran.
// Applied migrations whose file checksum changed abort the run.
func (r *Runner) Run(ctx context.Context) (int, error) {
	started := time.Now()

	status, err := r.Status(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to read migration status", "error", err)
		return 0, err
	}

	r.logger.InfoContext(ctx, "migration status",
		"current_version", status.CurrentVersion,
		"applied", len(status.Applied),
		"pending", status.PendingCount(),
	)
	if status.PendingCount() == 0 {
		return 0, nil
	}

	for _, m := range status.Pending {
		logger := r.logger.With("version", m.Version, "description", m.Description)
		logger.InfoContext(ctx, "applying migration")

		elapsed, err := r.exec.apply(ctx, m)
		if err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return 0, err
		}
		logger.InfoContext(ctx, "migration applied", "duration", elapsed)
	}

	r.logger.InfoContext(ctx, "migrations completed",
		"count", status.PendingCount(),
		"duration", time.Since(started),
	)
	return status.PendingCount(), nil
}

// Status reports applied and pending migrations, verifying the checksum of
// every applied migration still present on disk.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	if err := r.exec.initVersionTable(ctx); err != nil {
		return Status{}, err
	}

	files, err := Scan(r.fsys, r.dir)
	if err != nil {
		return Status{}, err
	}
	applied, err := r.exec.applied(ctx)
	if err != nil {
		return Status{}, err
	}

	byVersion := make(map[string]AppliedMigration, len(applied))
	for _, a := range applied {
		byVersion[a.Version] = a
	}

	status := Status{Applied: applied}
	if len(applied) > 0 {
		status.CurrentVersion = applied[len(applied)-1].Version
	}

	for _, m := range files {
		a, done := byVersion[m.Version]
		if !done {
			status.Pending = append(status.Pending, m)
			continue
		}
		if a.Checksum != "" && a.Checksum != m.Checksum {
			return Status{}, newMigrationError(m, "verify checksum",
				fmt.Errorf("%w: recorded %s, file %s", ErrChecksumMismatch, a.Checksum, m.Checksum))
		}
	}

	return status, nil
}
