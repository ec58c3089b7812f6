package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/association-planning/internal/absence"
	"github.com/example/association-planning/internal/calendar"
	"github.com/example/association-planning/internal/metrics"
	"github.com/example/association-planning/internal/persistence"
	"github.com/example/association-planning/internal/scheduler"
)

// AbsenceFilter narrows absence queries. Zero values are ignored.
type AbsenceFilter struct {
	MemberID string
	From     calendar.Date
	To       calendar.Date
}

// AbsenceRepository captures the persistence operations needed by the absence service.
type AbsenceRepository interface {
	CreateAbsence(ctx context.Context, interval Absence) error
	ListAbsences(ctx context.Context, filter AbsenceFilter) ([]Absence, error)
	ListAbsentMemberIDs(ctx context.Context) ([]string, error)
	DeleteAbsence(ctx context.Context, id string) error
	// ReplaceAbsences deletes removeIDs and stores replacement atomically.
	ReplaceAbsences(ctx context.Context, removeIDs []string, replacement Absence) error
}

// AbsenceService keeps every member's absence set merged and answers
// availability questions.
type AbsenceService struct {
	absences    AbsenceRepository
	members     MemberLookup
	invalidator ScheduleInvalidator
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	locks       *keyedMutex
}

// NewAbsenceService wires dependencies for absence operations.
func NewAbsenceService(absences AbsenceRepository, members MemberLookup, idGenerator func() string, now func() time.Time) *AbsenceService {
	return NewAbsenceServiceWithLogger(absences, members, nil, idGenerator, now, nil)
}

// NewAbsenceServiceWithLogger wires dependencies for absence operations with a specified logger.
func NewAbsenceServiceWithLogger(absences AbsenceRepository, members MemberLookup, invalidator ScheduleInvalidator, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AbsenceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AbsenceService{
		absences:    absences,
		members:     members,
		invalidator: invalidator,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		locks:       newKeyedMutex(),
	}
}

func (s *AbsenceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AbsenceService", operation, attrs...)
}

func (s *AbsenceService) ready() error {
	if s == nil {
		return fmt.Errorf("AbsenceService is nil")
	}
	if s.absences == nil {
		return fmt.Errorf("absence repository not configured")
	}
	return nil
}

// CreateAbsence records an absence and merges it with every stored interval
// of the member it overlaps or touches. The merged interval replaces the
// absorbed ones in a single transaction.
func (s *AbsenceService) CreateAbsence(ctx context.Context, params CreateAbsenceParams) (result CreateAbsenceResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateAbsence",
		"member_id", params.MemberID,
		"start_date", params.StartDate.String(),
		"end_date", params.EndDate.String(),
	)
	defer func() {
		if err != nil {
			if ErrorKind(err) != "unexpected" {
				metrics.RecordAbsenceWrite("rejected", 0)
			}
			logger.ErrorContext(ctx, "failed to create absence", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("absence_id", result.Absence.ID, "merged_count", len(result.Merged)).InfoContext(ctx, "absence created")
	}()

	if params.MemberID == "" {
		err = newValidationError("member_id", "member is required")
		return
	}

	var candidate Absence
	candidate, err = absence.New(params.MemberID, params.StartDate, params.EndDate, params.StartSlot, params.EndSlot)
	if err != nil {
		return
	}

	if s.members != nil {
		if _, err = s.members.GetMember(ctx, params.MemberID); err != nil {
			err = mapAbsenceRepoError(err)
			return
		}
	}

	unlock := s.locks.Lock(params.MemberID)
	defer unlock()

	var existing []Absence
	existing, err = s.absences.ListAbsences(ctx, AbsenceFilter{MemberID: params.MemberID})
	if err != nil {
		err = mapAbsenceRepoError(err)
		return
	}

	candidate.ID = s.idGenerator()
	candidate.CreatedAt = s.now()
	merge := absence.Merge(candidate, existing)

	if len(merge.Consumed) == 0 {
		err = s.absences.CreateAbsence(ctx, merge.Merged)
	} else {
		err = s.absences.ReplaceAbsences(ctx, intervalIDs(merge.Consumed), merge.Merged)
	}
	if err != nil {
		err = mapAbsenceRepoError(err)
		return
	}

	result = CreateAbsenceResult{Absence: merge.Merged, Merged: merge.Consumed}
	if len(merge.Consumed) > 0 {
		metrics.RecordAbsenceWrite("merged", len(merge.Consumed))
	} else {
		metrics.RecordAbsenceWrite("inserted", 0)
	}
	s.notify("absence_created")
	return
}

// RemoveAbsence deletes an absence by id. Other intervals are left untouched.
func (s *AbsenceService) RemoveAbsence(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "RemoveAbsence", "absence_id", id)

	if err := s.absences.DeleteAbsence(ctx, id); err != nil {
		err = mapAbsenceRepoError(err)
		logger.ErrorContext(ctx, "failed to remove absence", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "absence removed")
	s.notify("absence_removed")
	return nil
}

// ListAbsences returns the absences of memberID, or of everybody when
// memberID is empty, ordered by member and start.
func (s *AbsenceService) ListAbsences(ctx context.Context, memberID string) ([]Absence, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	list, err := s.absences.ListAbsences(ctx, AbsenceFilter{MemberID: memberID})
	if err != nil {
		return nil, mapAbsenceRepoError(err)
	}
	return list, nil
}

// ListAbsencesInRange returns the absences sharing at least one date with [start, end].
func (s *AbsenceService) ListAbsencesInRange(ctx context.Context, start, end calendar.Date) ([]Absence, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	list, err := s.absences.ListAbsences(ctx, AbsenceFilter{From: start, To: end})
	if err != nil {
		return nil, mapAbsenceRepoError(err)
	}
	return list, nil
}

// IsAbsent reports whether memberID is away at (date, slot). With an
// unspecified slot any absence touching date counts.
func (s *AbsenceService) IsAbsent(ctx context.Context, memberID string, date calendar.Date, slot calendar.Slot) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if date.IsZero() {
		return false, newValidationError("date", "date is required")
	}
	if slot != calendar.SlotUnspecified && !slot.Valid() {
		return false, newValidationError("slot", "slot must be opening or closing")
	}

	list, err := s.absences.ListAbsences(ctx, AbsenceFilter{MemberID: memberID, From: date, To: date})
	if err != nil {
		return false, mapAbsenceRepoError(err)
	}
	if slot == calendar.SlotUnspecified {
		for _, interval := range list {
			if interval.ContainsDate(date) {
				return true, nil
			}
		}
		return false, nil
	}
	return absence.IsAbsent(list, calendar.At(date, slot)), nil
}

// Consolidate re-merges the stored absences of memberID into their minimal form.
func (s *AbsenceService) Consolidate(ctx context.Context, memberID string) (result ConsolidationResult, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if s.members != nil {
		if _, err = s.members.GetMember(ctx, memberID); err != nil {
			err = mapAbsenceRepoError(err)
			return
		}
	}
	return s.consolidate(ctx, memberID)
}

// ConsolidateAll consolidates every member holding absences. Failures of one
// member do not stop the others; they are joined into the returned error.
func (s *AbsenceService) ConsolidateAll(ctx context.Context) ([]ConsolidationResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	logger := s.loggerWith(ctx, "ConsolidateAll")

	ids, err := s.absences.ListAbsentMemberIDs(ctx)
	if err != nil {
		err = mapAbsenceRepoError(err)
		logger.ErrorContext(ctx, "failed to list members with absences", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	results := make([]ConsolidationResult, 0, len(ids))
	var errs []error
	changed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.consolidate(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("member %s: %w", id, err))
			continue
		}
		if res.Changed() {
			changed++
		}
		results = append(results, res)
	}

	logger.InfoContext(ctx, "absences consolidated",
		"member_count", len(ids),
		"changed_count", changed,
		"failed_count", len(errs),
	)
	return results, errors.Join(errs...)
}

func (s *AbsenceService) consolidate(ctx context.Context, memberID string) (result ConsolidationResult, err error) {
	logger := s.loggerWith(ctx, "Consolidate", "member_id", memberID)
	result.MemberID = memberID
	defer func() {
		metrics.RecordConsolidation(result.Before, result.After, err)
		if err != nil {
			logger.ErrorContext(ctx, "failed to consolidate absences", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("before", result.Before, "after", result.After).DebugContext(ctx, "absences consolidated")
	}()

	unlock := s.locks.Lock(memberID)
	defer unlock()

	var list []Absence
	list, err = s.absences.ListAbsences(ctx, AbsenceFilter{MemberID: memberID})
	if err != nil {
		err = mapAbsenceRepoError(err)
		return
	}

	groups := absence.Consolidate(list)
	result.Before = len(list)
	result.After = len(groups)

	for _, group := range groups {
		if !group.Changed() {
			continue
		}
		if err = s.absences.ReplaceAbsences(ctx, intervalIDs(group.Sources), group.Interval); err != nil {
			err = mapAbsenceRepoError(err)
			return
		}
	}

	if result.Changed() {
		s.notify("absences_consolidated")
	}
	return
}

// AbsentMembersForDate lists the members away at some point of date with the
// covering interval and how much of the day it takes.
func (s *AbsenceService) AbsentMembersForDate(ctx context.Context, date calendar.Date) ([]AbsentMember, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, newValidationError("date", "date is required")
	}

	list, err := s.absences.ListAbsences(ctx, AbsenceFilter{From: date, To: date})
	if err != nil {
		return nil, mapAbsenceRepoError(err)
	}

	var directory map[string]Member
	if s.members != nil && len(list) > 0 {
		members, err := s.members.ListMembers(ctx)
		if err != nil {
			return nil, mapAbsenceRepoError(err)
		}
		directory = make(map[string]Member, len(members))
		for _, m := range withDisplayNames(members) {
			directory[m.ID] = m
		}
	}

	absent := make([]AbsentMember, 0, len(list))
	for _, interval := range list {
		coverage := scheduler.Classify(date, []absence.Interval{interval})
		if coverage == scheduler.CoverageNone {
			continue
		}
		member, ok := directory[interval.MemberID]
		if !ok {
			member = Member{ID: interval.MemberID, FirstName: "Unknown", DisplayName: "Unknown"}
		}
		absent = append(absent, AbsentMember{Member: member, Absence: interval, Coverage: coverage})
	}

	sort.SliceStable(absent, func(i, j int) bool {
		if absent[i].Member.DisplayName != absent[j].Member.DisplayName {
			return absent[i].Member.DisplayName < absent[j].Member.DisplayName
		}
		return absent[i].Member.ID < absent[j].Member.ID
	})
	return absent, nil
}

func (s *AbsenceService) notify(reason string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(reason)
	}
}

func intervalIDs(intervals []Absence) []string {
	ids := make([]string, len(intervals))
	for i, interval := range intervals {
		ids[i] = interval.ID
	}
	return ids
}

func validateRange(start, end calendar.Date) error {
	vErr := &ValidationError{}
	if start.IsZero() {
		vErr.add("start", "start date is required")
	}
	if end.IsZero() {
		vErr.add("end", "end date is required")
	}
	if vErr.HasErrors() {
		return vErr
	}
	if start.After(end) {
		return ErrInvalidRange
	}
	return nil
}

func mapAbsenceRepoError(err error) error {
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
		return newValidationError("absence", "absence violates a storage constraint")
	}
	return fmt.Errorf("absence store: %w", err)
}
