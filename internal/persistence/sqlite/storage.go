package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/association-planning/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles the SQLite repositories over one connection pool.
type Storage struct {
	pool   *ConnectionPool
	logger *slog.Logger

	Members   *MemberRepository
	Absences  *AbsenceRepository
	Recurring *RecurringAssignmentRepository
	Specific  *SpecificAssignmentRepository
}

// Open connects to the database described by config.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Storage{
		pool:      pool,
		logger:    logger,
		Members:   NewMemberRepository(pool),
		Absences:  NewAbsenceRepository(pool),
		Recurring: NewRecurringAssignmentRepository(pool),
		Specific:  NewSpecificAssignmentRepository(pool),
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	runner := migration.NewRunner(s.pool.DB(), migrationFiles, "migrations", s.logger)
	if _, err := runner.Run(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// MigrationStatus reports applied and pending embedded migrations.
func (s *Storage) MigrationStatus(ctx context.Context) (migration.Status, error) {
	return migration.NewRunner(s.pool.DB(), migrationFiles, "migrations", s.logger).Status(ctx)
}

// Ping checks the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
