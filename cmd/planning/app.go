package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/association-planning/internal/application"
	"github.com/example/association-planning/internal/config"
	"github.com/example/association-planning/internal/persistence/sqlite"
	"github.com/example/association-planning/internal/persistence/sqlite/migration"
	"github.com/example/association-planning/internal/recurrence"
	"github.com/example/association-planning/internal/roster"
)

// app holds the storage and the services shared by every command.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	storage *sqlite.Storage

	members     *application.MemberService
	absences    *application.AbsenceService
	assignments *application.AssignmentService
	planning    *application.PlanningService
}

func newID() string {
	return uuid.NewString()
}

// openApp opens and migrates the database, then wires the services.
func openApp(ctx context.Context, cfg config.Config, logger *slog.Logger, now func() time.Time) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}

	storage, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLitePath), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, err
	}

	memberRepo := newMemberRepositoryAdapter(storage.Members)
	absenceRepo := newAbsenceRepositoryAdapter(storage.Absences)
	recurringRepo := newRecurringRepositoryAdapter(storage.Recurring, now)
	specificRepo := newSpecificRepositoryAdapter(storage.Specific, now)

	planning := application.NewPlanningService(memberRepo, recurringRepo, specificRepo, absenceRepo, application.PlanningServiceConfig{
		MaxRangeDays: cfg.MaxRangeDays,
		CacheTTL:     cfg.ScheduleCacheTTL,
		CacheSize:    cfg.ScheduleCacheSize,
		Location:     cfg.Location,
		Now:          now,
		Logger:       logger,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		storage:  storage,
		members:  application.NewMemberServiceWithLogger(memberRepo, planning, newID, now, logger),
		absences: application.NewAbsenceServiceWithLogger(absenceRepo, memberRepo, planning, newID, now, logger),
		assignments: application.NewAssignmentService(recurringRepo, specificRepo, memberRepo, application.AssignmentServiceConfig{
			Engine:      recurrence.NewEngine(0),
			Policy:      &roster.StaffingPolicy{MinOpening: cfg.MinOpeningStaff, MinClosing: cfg.MinClosingStaff},
			Invalidator: planning,
			IDGenerator: newID,
			Now:         now,
			Logger:      logger,
		}),
		planning: planning,
	}, nil
}

func (a *app) Close() {
	if err := a.storage.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
}

// consolidateAbsences merges the stored absences of one member, or of every
// member when memberID is empty, and logs what changed.
func (a *app) consolidateAbsences(ctx context.Context, memberID string) ([]application.ConsolidationResult, error) {
	if memberID != "" {
		result, err := a.absences.Consolidate(ctx, memberID)
		if err != nil {
			return nil, err
		}
		return []application.ConsolidationResult{result}, nil
	}

	results, err := a.absences.ConsolidateAll(ctx)
	changed := 0
	for _, r := range results {
		if r.Changed() {
			changed++
		}
	}
	a.logger.InfoContext(ctx, "absence consolidation finished", "members", len(results), "changed_members", changed)
	return results, err
}
