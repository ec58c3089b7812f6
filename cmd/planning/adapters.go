package main

import (
	"context"
	"time"

	"github.com/example/association-planning/internal/application"
	"github.com/example/association-planning/internal/calendar"
	"github.com/example/association-planning/internal/persistence"
	"github.com/example/association-planning/internal/scheduler"
)

type memberRepositoryAdapter struct {
	repo persistence.MemberRepository
}

func newMemberRepositoryAdapter(repo persistence.MemberRepository) *memberRepositoryAdapter {
	return &memberRepositoryAdapter{repo: repo}
}

func (a *memberRepositoryAdapter) CreateMember(ctx context.Context, member application.Member) (application.Member, error) {
	if err := a.repo.CreateMember(ctx, toPersistenceMember(member)); err != nil {
		return application.Member{}, err
	}
	stored, err := a.repo.GetMember(ctx, member.ID)
	if err != nil {
		return application.Member{}, err
	}
	return toApplicationMember(stored), nil
}

func (a *memberRepositoryAdapter) GetMember(ctx context.Context, id string) (application.Member, error) {
	stored, err := a.repo.GetMember(ctx, id)
	if err != nil {
		return application.Member{}, err
	}
	return toApplicationMember(stored), nil
}

func (a *memberRepositoryAdapter) ListMembers(ctx context.Context) ([]application.Member, error) {
	models, err := a.repo.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	members := make([]application.Member, 0, len(models))
	for _, model := range models {
		members = append(members, toApplicationMember(model))
	}
	return members, nil
}

func (a *memberRepositoryAdapter) DeleteMember(ctx context.Context, id string) error {
	return a.repo.DeleteMember(ctx, id)
}

type absenceRepositoryAdapter struct {
	repo persistence.AbsenceRepository
}

func newAbsenceRepositoryAdapter(repo persistence.AbsenceRepository) *absenceRepositoryAdapter {
	return &absenceRepositoryAdapter{repo: repo}
}

func (a *absenceRepositoryAdapter) CreateAbsence(ctx context.Context, interval application.Absence) error {
	return a.repo.CreateAbsence(ctx, toPersistenceAbsence(interval))
}

func (a *absenceRepositoryAdapter) ListAbsences(ctx context.Context, filter application.AbsenceFilter) ([]application.Absence, error) {
	models, err := a.repo.ListAbsences(ctx, persistence.AbsenceFilter{
		MemberID: filter.MemberID,
		From:     filter.From,
		To:       filter.To,
	})
	if err != nil {
		return nil, err
	}
	intervals := make([]application.Absence, 0, len(models))
	for _, model := range models {
		intervals = append(intervals, toApplicationAbsence(model))
	}
	return intervals, nil
}

func (a *absenceRepositoryAdapter) ListAbsentMemberIDs(ctx context.Context) ([]string, error) {
	return a.repo.ListAbsentMemberIDs(ctx)
}

func (a *absenceRepositoryAdapter) DeleteAbsence(ctx context.Context, id string) error {
	return a.repo.DeleteAbsence(ctx, id)
}

func (a *absenceRepositoryAdapter) ReplaceAbsences(ctx context.Context, removeIDs []string, replacement application.Absence) error {
	return a.repo.ReplaceAbsences(ctx, removeIDs, toPersistenceAbsence(replacement))
}

// recurringRepositoryAdapter stamps creation times, which the roster types
// of the application layer do not carry.
type recurringRepositoryAdapter struct {
	repo persistence.RecurringAssignmentRepository
	now  func() time.Time
}

func newRecurringRepositoryAdapter(repo persistence.RecurringAssignmentRepository, now func() time.Time) *recurringRepositoryAdapter {
	if now == nil {
		now = time.Now
	}
	return &recurringRepositoryAdapter{repo: repo, now: now}
}

func (a *recurringRepositoryAdapter) CreateRecurringAssignment(ctx context.Context, assignment application.RecurringAssignment) error {
	return a.repo.CreateRecurringAssignment(ctx, toPersistenceRecurring(assignment, a.now()))
}

func (a *recurringRepositoryAdapter) ListRecurringAssignments(ctx context.Context) ([]application.RecurringAssignment, error) {
	models, err := a.repo.ListRecurringAssignments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.RecurringAssignment, 0, len(models))
	for _, model := range models {
		out = append(out, application.RecurringAssignment{
			ID:       model.ID,
			Weekday:  model.Weekday,
			Slot:     model.Slot,
			MemberID: model.MemberID,
		})
	}
	return out, nil
}

func (a *recurringRepositoryAdapter) DeleteRecurringAssignment(ctx context.Context, id string) error {
	return a.repo.DeleteRecurringAssignment(ctx, id)
}

func (a *recurringRepositoryAdapter) ReplaceRecurringRoster(ctx context.Context, weekday int, slot calendar.Slot, assignments []application.RecurringAssignment) error {
	created := a.now()
	models := make([]persistence.RecurringAssignment, 0, len(assignments))
	for _, assignment := range assignments {
		models = append(models, toPersistenceRecurring(assignment, created))
	}
	return a.repo.ReplaceRecurringRoster(ctx, weekday, slot, models)
}

type specificRepositoryAdapter struct {
	repo persistence.SpecificAssignmentRepository
	now  func() time.Time
}

func newSpecificRepositoryAdapter(repo persistence.SpecificAssignmentRepository, now func() time.Time) *specificRepositoryAdapter {
	if now == nil {
		now = time.Now
	}
	return &specificRepositoryAdapter{repo: repo, now: now}
}

func (a *specificRepositoryAdapter) CreateSpecificAssignment(ctx context.Context, assignment application.SpecificAssignment) error {
	return a.repo.CreateSpecificAssignment(ctx, toPersistenceSpecific(assignment, a.now()))
}

func (a *specificRepositoryAdapter) ListSpecificAssignments(ctx context.Context, filter application.SpecificFilter) ([]application.SpecificAssignment, error) {
	models, err := a.repo.ListSpecificAssignments(ctx, persistence.SpecificAssignmentFilter{
		From:   filter.From,
		To:     filter.To,
		Source: string(filter.Source),
	})
	if err != nil {
		return nil, err
	}
	out := make([]application.SpecificAssignment, 0, len(models))
	for _, model := range models {
		out = append(out, application.SpecificAssignment{
			ID:       model.ID,
			Date:     model.Date,
			Slot:     model.Slot,
			MemberID: model.MemberID,
			Source:   scheduler.Source(model.Source),
		})
	}
	return out, nil
}

func (a *specificRepositoryAdapter) DeleteSpecificAssignment(ctx context.Context, id string) error {
	return a.repo.DeleteSpecificAssignment(ctx, id)
}

func (a *specificRepositoryAdapter) ReplaceGeneratedAssignments(ctx context.Context, from, to calendar.Date, assignments []application.SpecificAssignment) (int, error) {
	created := a.now()
	models := make([]persistence.SpecificAssignment, 0, len(assignments))
	for _, assignment := range assignments {
		models = append(models, toPersistenceSpecific(assignment, created))
	}
	return a.repo.ReplaceGeneratedAssignments(ctx, from, to, models)
}

func toApplicationMember(model persistence.Member) application.Member {
	return application.Member{
		ID:        model.ID,
		FirstName: model.FirstName,
		LastName:  model.LastName,
		CreatedAt: model.CreatedAt,
	}
}

func toPersistenceMember(member application.Member) persistence.Member {
	return persistence.Member{
		ID:        member.ID,
		FirstName: member.FirstName,
		LastName:  member.LastName,
		CreatedAt: member.CreatedAt,
	}
}

func toApplicationAbsence(model persistence.Absence) application.Absence {
	return application.Absence{
		ID:        model.ID,
		MemberID:  model.MemberID,
		Start:     calendar.At(model.StartDate, model.StartSlot),
		End:       calendar.At(model.EndDate, model.EndSlot),
		CreatedAt: model.CreatedAt,
	}
}

func toPersistenceAbsence(interval application.Absence) persistence.Absence {
	return persistence.Absence{
		ID:        interval.ID,
		MemberID:  interval.MemberID,
		StartDate: interval.Start.Date,
		StartSlot: interval.Start.Slot,
		EndDate:   interval.End.Date,
		EndSlot:   interval.End.Slot,
		CreatedAt: interval.CreatedAt,
	}
}

func toPersistenceRecurring(assignment application.RecurringAssignment, created time.Time) persistence.RecurringAssignment {
	return persistence.RecurringAssignment{
		ID:        assignment.ID,
		Weekday:   assignment.Weekday,
		Slot:      assignment.Slot,
		MemberID:  assignment.MemberID,
		CreatedAt: created,
	}
}

func toPersistenceSpecific(assignment application.SpecificAssignment, created time.Time) persistence.SpecificAssignment {
	source := string(assignment.Source)
	if source == "" {
		source = persistence.SourceManual
	}
	return persistence.SpecificAssignment{
		ID:        assignment.ID,
		Date:      assignment.Date,
		Slot:      assignment.Slot,
		MemberID:  assignment.MemberID,
		Source:    source,
		CreatedAt: created,
	}
}
