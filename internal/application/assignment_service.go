package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/association-planning/internal/calendar"
	"github.com/example/association-planning/internal/metrics"
	"github.com/example/association-planning/internal/persistence"
	"github.com/example/association-planning/internal/recurrence"
	"github.com/example/association-planning/internal/roster"
	"github.com/example/association-planning/internal/scheduler"
)

// RecurringRepository captures the persistence operations on the weekly roster.
type RecurringRepository interface {
	CreateRecurringAssignment(ctx context.Context, assignment RecurringAssignment) error
	ListRecurringAssignments(ctx context.Context) ([]RecurringAssignment, error)
	DeleteRecurringAssignment(ctx context.Context, id string) error
	ReplaceRecurringRoster(ctx context.Context, weekday int, slot calendar.Slot, assignments []RecurringAssignment) error
}

// SpecificFilter narrows specific assignment queries. Zero values are ignored.
type SpecificFilter struct {
	From   calendar.Date
	To     calendar.Date
	Source scheduler.Source
}

// SpecificRepository captures the persistence operations on dated roster rows.
type SpecificRepository interface {
	CreateSpecificAssignment(ctx context.Context, assignment SpecificAssignment) error
	ListSpecificAssignments(ctx context.Context, filter SpecificFilter) ([]SpecificAssignment, error)
	DeleteSpecificAssignment(ctx context.Context, id string) error
	ReplaceGeneratedAssignments(ctx context.Context, from, to calendar.Date, assignments []SpecificAssignment) (int, error)
}

// AssignmentService manages the weekly roster and the dated assignments
// derived from it or added by hand.
type AssignmentService struct {
	recurring   RecurringRepository
	specific    SpecificRepository
	members     MemberLookup
	engine      *recurrence.Engine
	policy      roster.StaffingPolicy
	invalidator ScheduleInvalidator
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// AssignmentServiceConfig carries the optional collaborators of an AssignmentService.
type AssignmentServiceConfig struct {
	Engine      *recurrence.Engine
	// Policy defaults to roster.DefaultStaffingPolicy when nil. A zero policy
	// disables staffing warnings.
	Policy      *roster.StaffingPolicy
	Invalidator ScheduleInvalidator
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewAssignmentService wires dependencies for assignment operations.
func NewAssignmentService(recurring RecurringRepository, specific SpecificRepository, members MemberLookup, cfg AssignmentServiceConfig) *AssignmentService {
	if cfg.Engine == nil {
		cfg.Engine = recurrence.NewEngine(0)
	}
	policy := roster.DefaultStaffingPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = func() string { return "" }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AssignmentService{
		recurring:   recurring,
		specific:    specific,
		members:     members,
		engine:      cfg.Engine,
		policy:      policy,
		invalidator: cfg.Invalidator,
		idGenerator: cfg.IDGenerator,
		now:         cfg.Now,
		logger:      defaultLogger(cfg.Logger),
	}
}

func (s *AssignmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AssignmentService", operation, attrs...)
}

// ListRecurring returns the weekly roster ordered by weekday and slot.
func (s *AssignmentService) ListRecurring(ctx context.Context) ([]RecurringAssignment, error) {
	if s == nil || s.recurring == nil {
		return nil, fmt.Errorf("recurring repository not configured")
	}
	list, err := s.recurring.ListRecurringAssignments(ctx)
	if err != nil {
		return nil, mapAssignmentRepoError(err)
	}
	return list, nil
}

// CreateRecurring adds one member to the roster of a (weekday, slot) pair.
func (s *AssignmentService) CreateRecurring(ctx context.Context, params CreateRecurringParams) (assignment RecurringAssignment, err error) {
	if s == nil || s.recurring == nil {
		err = fmt.Errorf("recurring repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateRecurring",
		"weekday", params.Weekday,
		"slot", params.Slot.String(),
		"member_id", params.MemberID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create recurring assignment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("assignment_id", assignment.ID).InfoContext(ctx, "recurring assignment created")
	}()

	vErr := validateWeekdaySlot(params.Weekday, params.Slot)
	if params.MemberID == "" {
		vErr.add("member_id", "member is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = s.ensureMembers(ctx, []string{params.MemberID}); err != nil {
		return
	}

	assignment = RecurringAssignment{
		ID:       s.idGenerator(),
		Weekday:  params.Weekday,
		Slot:     params.Slot,
		MemberID: params.MemberID,
	}
	if err = s.recurring.CreateRecurringAssignment(ctx, assignment); err != nil {
		err = mapAssignmentRepoError(err)
		return
	}
	s.notify("recurring_created")
	return
}

// DeleteRecurring removes one weekly roster row.
func (s *AssignmentService) DeleteRecurring(ctx context.Context, id string) error {
	if s == nil || s.recurring == nil {
		return fmt.Errorf("recurring repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRecurring", "assignment_id", id)
	if err := s.recurring.DeleteRecurringAssignment(ctx, id); err != nil {
		err = mapAssignmentRepoError(err)
		logger.ErrorContext(ctx, "failed to delete recurring assignment", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "recurring assignment deleted")
	s.notify("recurring_deleted")
	return nil
}

// SetRecurringRoster replaces the members of a (weekday, slot) pair. An
// understaffed roster is stored anyway and reported through warnings.
func (s *AssignmentService) SetRecurringRoster(ctx context.Context, params SetRosterParams) (result RosterResult, err error) {
	if s == nil || s.recurring == nil {
		err = fmt.Errorf("recurring repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "SetRecurringRoster",
		"weekday", params.Weekday,
		"slot", params.Slot.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set roster", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("member_count", len(result.Assignments), "warning_count", len(result.Warnings)).InfoContext(ctx, "roster replaced")
	}()

	if vErr := validateWeekdaySlot(params.Weekday, params.Slot); vErr.HasErrors() {
		err = vErr
		return
	}

	memberIDs := uniqueStrings(params.MemberIDs)
	if err = s.ensureMembers(ctx, memberIDs); err != nil {
		return
	}

	assignments := make([]RecurringAssignment, len(memberIDs))
	for i, id := range memberIDs {
		assignments[i] = RecurringAssignment{
			ID:       s.idGenerator(),
			Weekday:  params.Weekday,
			Slot:     params.Slot,
			MemberID: id,
		}
	}

	if err = s.recurring.ReplaceRecurringRoster(ctx, params.Weekday, params.Slot, assignments); err != nil {
		err = mapAssignmentRepoError(err)
		return
	}

	result = RosterResult{
		Assignments: assignments,
		Warnings:    s.policy.Warnings(params.Slot, len(assignments)),
	}
	s.notify("roster_replaced")
	return
}

// ListSpecific returns dated roster rows within [start, end]. Zero bounds are open.
func (s *AssignmentService) ListSpecific(ctx context.Context, start, end calendar.Date) ([]SpecificAssignment, error) {
	if s == nil || s.specific == nil {
		return nil, fmt.Errorf("specific repository not configured")
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return nil, ErrInvalidRange
	}
	list, err := s.specific.ListSpecificAssignments(ctx, SpecificFilter{From: start, To: end})
	if err != nil {
		return nil, mapAssignmentRepoError(err)
	}
	return list, nil
}

// CreateSpecific adds a manual dated roster row.
func (s *AssignmentService) CreateSpecific(ctx context.Context, params CreateSpecificParams) (assignment SpecificAssignment, err error) {
	if s == nil || s.specific == nil {
		err = fmt.Errorf("specific repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateSpecific",
		"date", params.Date.String(),
		"slot", params.Slot.String(),
		"member_id", params.MemberID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create specific assignment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("assignment_id", assignment.ID).InfoContext(ctx, "specific assignment created")
	}()

	vErr := &ValidationError{}
	if params.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if !params.Slot.Valid() {
		vErr.add("slot", "slot must be opening or closing")
	}
	if params.MemberID == "" {
		vErr.add("member_id", "member is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = s.ensureMembers(ctx, []string{params.MemberID}); err != nil {
		return
	}

	assignment = SpecificAssignment{
		ID:       s.idGenerator(),
		Date:     params.Date,
		Slot:     params.Slot,
		MemberID: params.MemberID,
		Source:   scheduler.SourceManual,
	}
	if err = s.specific.CreateSpecificAssignment(ctx, assignment); err != nil {
		err = mapAssignmentRepoError(err)
		return
	}
	s.notify("specific_created")
	return
}

// DeleteSpecific removes a dated roster row.
func (s *AssignmentService) DeleteSpecific(ctx context.Context, id string) error {
	if s == nil || s.specific == nil {
		return fmt.Errorf("specific repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteSpecific", "assignment_id", id)
	if err := s.specific.DeleteSpecificAssignment(ctx, id); err != nil {
		err = mapAssignmentRepoError(err)
		logger.ErrorContext(ctx, "failed to delete specific assignment", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "specific assignment deleted")
	s.notify("specific_deleted")
	return nil
}

// GenerateSpecific expands the weekly roster over [start, end] into generated
// dated rows, replacing the generated rows already in the window. Manual rows
// are kept and no generated row duplicates one of them.
func (s *AssignmentService) GenerateSpecific(ctx context.Context, start, end calendar.Date) (result GenerateResult, err error) {
	if s == nil || s.recurring == nil || s.specific == nil {
		err = fmt.Errorf("assignment repositories not configured")
		return
	}

	logger := s.loggerWith(ctx, "GenerateSpecific",
		"start", start.String(),
		"end", end.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to generate assignments", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("generated_count", result.Generated).InfoContext(ctx, "assignments generated")
	}()

	if err = validateRange(start, end); err != nil {
		return
	}

	var weekly []RecurringAssignment
	weekly, err = s.recurring.ListRecurringAssignments(ctx)
	if err != nil {
		err = mapAssignmentRepoError(err)
		return
	}

	var manual []SpecificAssignment
	manual, err = s.specific.ListSpecificAssignments(ctx, SpecificFilter{From: start, To: end, Source: scheduler.SourceManual})
	if err != nil {
		err = mapAssignmentRepoError(err)
		return
	}

	rules := make([]recurrence.Rule, len(weekly))
	for i, a := range weekly {
		rules[i] = recurrence.Rule{ID: a.ID, Weekday: a.Weekday, Slot: a.Slot, MemberID: a.MemberID}
	}
	occupied := make(map[recurrence.Key]struct{}, len(manual))
	for _, a := range manual {
		occupied[recurrence.Key{Date: a.Date, Slot: a.Slot, MemberID: a.MemberID}] = struct{}{}
	}

	var occurrences []recurrence.Occurrence
	occurrences, err = s.engine.GenerateOccurrences(rules, recurrence.GenerateOptions{From: start, To: end, Occupied: occupied})
	if err != nil {
		err = mapRecurrenceError(err)
		return
	}

	generated := make([]SpecificAssignment, len(occurrences))
	for i, occ := range occurrences {
		generated[i] = SpecificAssignment{
			ID:       s.idGenerator(),
			Date:     occ.Date,
			Slot:     occ.Slot,
			MemberID: occ.MemberID,
			Source:   scheduler.SourceGenerated,
		}
	}

	// Manual rows added after the read above are skipped by the store.
	var inserted int
	inserted, err = s.specific.ReplaceGeneratedAssignments(ctx, start, end, generated)
	if err != nil {
		err = mapAssignmentRepoError(err)
		return
	}

	result = GenerateResult{From: start, To: end, Generated: inserted}
	metrics.RecordGenerated(inserted)
	s.notify("specific_generated")
	return
}

func (s *AssignmentService) ensureMembers(ctx context.Context, ids []string) error {
	if s.members == nil || len(ids) == 0 {
		return nil
	}
	members, err := s.members.ListMembers(ctx)
	if err != nil {
		return mapAssignmentRepoError(err)
	}
	known := make(map[string]struct{}, len(members))
	for _, m := range members {
		known[m.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return newValidationError("member_ids", fmt.Sprintf("unknown member %q", id))
		}
	}
	return nil
}

func (s *AssignmentService) notify(reason string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(reason)
	}
}

func validateWeekdaySlot(weekday int, slot calendar.Slot) *ValidationError {
	vErr := &ValidationError{}
	if weekday < 0 || weekday > 6 {
		vErr.add("weekday", "weekday must be between 0 (Monday) and 6 (Sunday)")
	}
	if !slot.Valid() {
		vErr.add("slot", "slot must be opening or closing")
	}
	return vErr
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func mapRecurrenceError(err error) error {
	switch {
	case errors.Is(err, recurrence.ErrInvalidWindow):
		return ErrInvalidRange
	case errors.Is(err, recurrence.ErrWindowTooLarge):
		return newValidationError("end", "generation window is too large")
	case errors.Is(err, recurrence.ErrInvalidRule):
		return newValidationError("roster", err.Error())
	}
	return err
}

func mapAssignmentRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return newValidationError("member_id", "member does not exist")
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("assignment", "assignment violates a storage constraint")
	}
	return fmt.Errorf("assignment store: %w", err)
}
