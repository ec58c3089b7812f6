package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/association-planning/internal/persistence"
	"github.com/example/association-planning/internal/roster"
)

// MemberLookup exposes the read side of the member store.
type MemberLookup interface {
	GetMember(ctx context.Context, id string) (Member, error)
	ListMembers(ctx context.Context) ([]Member, error)
}

// MemberRepository captures the persistence operations needed by the member service.
type MemberRepository interface {
	MemberLookup
	CreateMember(ctx context.Context, member Member) (Member, error)
	DeleteMember(ctx context.Context, id string) error
}

// ScheduleInvalidator is notified whenever data feeding the schedule changes.
type ScheduleInvalidator interface {
	Invalidate(reason string)
}

// MemberService orchestrates validation and persistence for members.
type MemberService struct {
	members     MemberRepository
	invalidator ScheduleInvalidator
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewMemberService constructs a member service with the provided dependencies.
func NewMemberService(members MemberRepository, idGenerator func() string, now func() time.Time) *MemberService {
	return NewMemberServiceWithLogger(members, nil, idGenerator, now, nil)
}

// NewMemberServiceWithLogger constructs a member service with a specified logger.
func NewMemberServiceWithLogger(members MemberRepository, invalidator ScheduleInvalidator, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MemberService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MemberService{
		members:     members,
		invalidator: invalidator,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *MemberService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MemberService", operation, attrs...)
}

// CreateMember splits fullName into first and last name and stores the member.
func (s *MemberService) CreateMember(ctx context.Context, fullName string) (member Member, err error) {
	if s == nil {
		err = fmt.Errorf("MemberService is nil")
		return
	}
	if s.members == nil {
		err = fmt.Errorf("member repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateMember")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create member", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("member_id", member.ID).InfoContext(ctx, "member created")
	}()

	first, last, splitErr := roster.SplitFullName(fullName)
	if splitErr != nil {
		err = newValidationError("full_name", "full name is required")
		return
	}

	member = Member{
		ID:        s.idGenerator(),
		FirstName: first,
		LastName:  last,
		CreatedAt: s.now(),
	}

	if _, err = s.members.CreateMember(ctx, member); err != nil {
		err = mapMemberRepoError(err)
		return
	}

	// The new member can change the labels of namesakes, so labels are
	// recomputed over the whole roster.
	var all []Member
	all, err = s.members.ListMembers(ctx)
	if err != nil {
		err = mapMemberRepoError(err)
		return
	}
	for _, m := range withDisplayNames(all) {
		if m.ID == member.ID {
			member = m
			break
		}
	}
	if member.DisplayName == "" {
		member.DisplayName = member.FirstName
	}

	s.notify("member_created")
	return
}

// GetMember returns a member with its display name.
func (s *MemberService) GetMember(ctx context.Context, id string) (Member, error) {
	if s == nil {
		return Member{}, fmt.Errorf("MemberService is nil")
	}
	if s.members == nil {
		return Member{}, fmt.Errorf("member repository not configured")
	}

	member, err := s.members.GetMember(ctx, id)
	if err != nil {
		return Member{}, mapMemberRepoError(err)
	}

	all, err := s.members.ListMembers(ctx)
	if err != nil {
		return Member{}, mapMemberRepoError(err)
	}
	for _, m := range withDisplayNames(all) {
		if m.ID == member.ID {
			return m, nil
		}
	}
	member.DisplayName = member.FirstName
	return member, nil
}

// ListMembers returns every member ordered by first then last name, with
// display names that tell namesakes apart.
func (s *MemberService) ListMembers(ctx context.Context) (members []Member, err error) {
	if s == nil {
		err = fmt.Errorf("MemberService is nil")
		return
	}
	if s.members == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListMembers")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list members", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(members)).DebugContext(ctx, "members listed")
	}()

	var raw []Member
	raw, err = s.members.ListMembers(ctx)
	if err != nil {
		err = mapMemberRepoError(err)
		return
	}
	members = withDisplayNames(raw)
	return
}

// DeleteMember removes a member. Absences and assignments go with it.
func (s *MemberService) DeleteMember(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("MemberService is nil")
	}
	if s.members == nil {
		return fmt.Errorf("member repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteMember", "member_id", id)

	if err := s.members.DeleteMember(ctx, id); err != nil {
		err = mapMemberRepoError(err)
		logger.ErrorContext(ctx, "failed to delete member", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "member deleted")
	s.notify("member_deleted")
	return nil
}

func (s *MemberService) notify(reason string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(reason)
	}
}

// withDisplayNames returns a sorted copy of members carrying their display names.
func withDisplayNames(members []Member) []Member {
	out := make([]Member, len(members))
	copy(out, members)

	people := make([]roster.Person, len(out))
	for i, m := range out {
		people[i] = roster.Person{ID: m.ID, FirstName: m.FirstName, LastName: m.LastName}
	}
	labels := roster.DisplayNames(people)
	for i := range out {
		out[i].DisplayName = labels[out[i].ID]
		if out[i].DisplayName == "" {
			out[i].DisplayName = out[i].FirstName
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		fi, fj := strings.ToLower(out[i].FirstName), strings.ToLower(out[j].FirstName)
		if fi != fj {
			return fi < fj
		}
		li, lj := strings.ToLower(out[i].LastName), strings.ToLower(out[j].LastName)
		if li != lj {
			return li < lj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func mapMemberRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("full_name", "first name is required")
	}
	return fmt.Errorf("member store: %w", err)
}
