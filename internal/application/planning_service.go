package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/association-planning/internal/calendar"
	"github.com/example/association-planning/internal/export"
	"github.com/example/association-planning/internal/metrics"
	"github.com/example/association-planning/internal/scheduler"
)

// DefaultMaxRangeDays bounds the length of a computed schedule.
const DefaultMaxRangeDays = 62

// PlanningService computes schedule views from the roster, the dated
// assignments and the absences.
type PlanningService struct {
	members   MemberLookup
	recurring RecurringRepository
	specific  SpecificRepository
	absences  AbsenceRepository
	cache     *scheduleCache
	maxDays   int
	location  *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// PlanningServiceConfig tunes a PlanningService.
type PlanningServiceConfig struct {
	MaxRangeDays int
	CacheTTL     time.Duration
	CacheSize    int
	Location     *time.Location
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewPlanningService wires dependencies for schedule computations.
func NewPlanningService(members MemberLookup, recurring RecurringRepository, specific SpecificRepository, absences AbsenceRepository, cfg PlanningServiceConfig) *PlanningService {
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = DefaultMaxRangeDays
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &PlanningService{
		members:   members,
		recurring: recurring,
		specific:  specific,
		absences:  absences,
		cache:     newScheduleCache(cfg.CacheTTL, cfg.CacheSize),
		maxDays:   cfg.MaxRangeDays,
		location:  cfg.Location,
		now:       cfg.Now,
		logger:    defaultLogger(cfg.Logger),
	}
}

func (s *PlanningService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PlanningService", operation, attrs...)
}

// Today returns the current date in the association's time zone.
func (s *PlanningService) Today() calendar.Date {
	return calendar.DateOf(s.now().In(s.location))
}

// Invalidate drops every cached view. Mutating services call it after each write.
func (s *PlanningService) Invalidate(reason string) {
	if s == nil {
		return
	}
	s.cache.Purge(reason)
}

// ComputeSchedule resolves every date of [start, end]. Views are cached until
// the next mutation; callers must treat them as read-only.
func (s *PlanningService) ComputeSchedule(ctx context.Context, start, end calendar.Date) (view ScheduleView, err error) {
	if s == nil {
		err = fmt.Errorf("PlanningService is nil")
		return
	}
	if err = validateRange(start, end); err != nil {
		return
	}
	if days := start.DaysUntil(end) + 1; days > s.maxDays {
		err = newValidationError("end", fmt.Sprintf("range must not exceed %d days", s.maxDays))
		return
	}

	key := start.String() + "|" + end.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	logger := s.loggerWith(ctx, "ComputeSchedule",
		"start", start.String(),
		"end", end.String(),
	)
	began := time.Now()
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute schedule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		elapsed := time.Since(began)
		metrics.ObserveSchedule(elapsed.Seconds(), len(view.Dates))
		logger.With("day_count", len(view.Dates), "duration", elapsed).DebugContext(ctx, "schedule computed")
	}()

	generation := s.cache.Generation()
	var in scheduler.Input
	in, err = s.load(ctx, start, end)
	if err != nil {
		return
	}

	view = scheduler.ComputeSchedule(start, end, in)
	if !s.cache.Add(key, view, generation) {
		logger.DebugContext(ctx, "schedule invalidated while loading; view not cached")
	}
	return
}

// load reads the inputs of a schedule concurrently.
func (s *PlanningService) load(ctx context.Context, start, end calendar.Date) (scheduler.Input, error) {
	var (
		in      scheduler.Input
		members []Member
	)
	g, gctx := errgroup.WithContext(ctx)

	if s.members != nil {
		g.Go(func() error {
			list, err := s.members.ListMembers(gctx)
			if err != nil {
				return mapMemberRepoError(err)
			}
			members = list
			return nil
		})
	}
	if s.recurring != nil {
		g.Go(func() error {
			list, err := s.recurring.ListRecurringAssignments(gctx)
			if err != nil {
				return mapAssignmentRepoError(err)
			}
			in.Recurring = list
			return nil
		})
	}
	if s.specific != nil {
		g.Go(func() error {
			list, err := s.specific.ListSpecificAssignments(gctx, SpecificFilter{From: start, To: end})
			if err != nil {
				return mapAssignmentRepoError(err)
			}
			in.Specific = list
			return nil
		})
	}
	if s.absences != nil {
		g.Go(func() error {
			list, err := s.absences.ListAbsences(gctx, AbsenceFilter{From: start, To: end})
			if err != nil {
				return mapAbsenceRepoError(err)
			}
			in.Absences = list
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return scheduler.Input{}, err
	}

	named := withDisplayNames(members)
	in.Members = make([]scheduler.Member, len(named))
	for i, m := range named {
		in.Members[i] = scheduler.Member{
			ID:          m.ID,
			FirstName:   m.FirstName,
			LastName:    m.LastName,
			DisplayName: m.DisplayName,
		}
	}
	return in, nil
}

// WeekSchedule computes the Monday to Sunday week containing reference,
// shifted by offset weeks.
func (s *PlanningService) WeekSchedule(ctx context.Context, reference calendar.Date, offset int) (ScheduleView, error) {
	if reference.IsZero() {
		reference = s.Today()
	}
	start, end := calendar.Week(reference, offset)
	return s.ComputeSchedule(ctx, start, end)
}

// ThreeWeekSchedule computes the previous, current and next week around reference.
func (s *PlanningService) ThreeWeekSchedule(ctx context.Context, reference calendar.Date) (ScheduleView, error) {
	if reference.IsZero() {
		reference = s.Today()
	}
	start, _ := calendar.Week(reference, -1)
	_, end := calendar.Week(reference, 1)
	return s.ComputeSchedule(ctx, start, end)
}

// ExportSchedule renders the schedule of [start, end] as an xlsx workbook.
func (s *PlanningService) ExportSchedule(ctx context.Context, start, end calendar.Date) ([]byte, error) {
	view, err := s.ComputeSchedule(ctx, start, end)
	if err != nil {
		return nil, err
	}
	data, err := export.Workbook(view)
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return data, nil
}
