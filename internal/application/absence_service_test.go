package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/association-planning/internal/absence"
	"github.com/example/association-planning/internal/calendar"
	"github.com/example/association-planning/internal/scheduler"
)

func date(value string) calendar.Date {
	return calendar.MustParseDate(value)
}

func newTestAbsenceService(store *memStore, inv ScheduleInvalidator) *AbsenceService {
	return NewAbsenceServiceWithLogger(store, store, inv, sequence("absence"), func() time.Time { return fixedNow }, nil)
}

func absenceParams(memberID, start, end string, startSlot, endSlot calendar.Slot) CreateAbsenceParams {
	return CreateAbsenceParams{
		MemberID:  memberID,
		StartDate: date(start),
		EndDate:   date(end),
		StartSlot: startSlot,
		EndSlot:   endSlot,
	}
}

func mustCreateAbsence(t *testing.T, service *AbsenceService, params CreateAbsenceParams) CreateAbsenceResult {
	t.Helper()
	result, err := service.CreateAbsence(context.Background(), params)
	if err != nil {
		t.Fatalf("CreateAbsence(%+v) returned error: %v", params, err)
	}
	return result
}

func TestAbsenceService_BoundaryScenarios(t *testing.T) {
	store := newMemStore()
	seedMembers(store, Member{ID: "m-1", FirstName: "Alice"})
	inv := &invalidationRecorder{}
	service := newTestAbsenceService(store, inv)
	ctx := context.Background()
	o, c := calendar.Opening, calendar.Closing

	mustCreateAbsence(t, service, absenceParams("m-1", "2025-09-15", "2025-09-15", o, o))
	result := mustCreateAbsence(t, service, absenceParams("m-1", "2025-09-15", "2025-09-15", c, c))
	if len(result.Merged) != 1 {
		t.Fatalf("expected the morning absence to be merged, got %d consumed", len(result.Merged))
	}
	if got := result.Absence.Start.String() + " / " + result.Absence.End.String(); got != "2025-09-15 opening / 2025-09-15 closing" {
		t.Fatalf("unexpected merged interval %s", got)
	}

	list, err := service.ListAbsences(ctx, "m-1")
	if err != nil {
		t.Fatalf("ListAbsences returned error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected a single stored row, got %d", len(list))
	}

	mustCreateAbsence(t, service, absenceParams("m-1", "2025-09-14", "2025-09-16", o, c))
	result = mustCreateAbsence(t, service, absenceParams("m-1", "2025-09-17", "2025-09-17", o, o))
	if got := result.Absence.Start.String() + " / " + result.Absence.End.String(); got != "2025-09-14 opening / 2025-09-17 opening" {
		t.Fatalf("unexpected merged interval %s", got)
	}

	isolated := mustCreateAbsence(t, service, absenceParams("m-1", "2025-09-20", "2025-09-20", o, c))
	if len(isolated.Merged) != 0 {
		t.Fatalf("isolated absence should not merge, consumed %d", len(isolated.Merged))
	}

	list, err = service.ListAbsences(ctx, "m-1")
	if err != nil {
		t.Fatalf("ListAbsences returned error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 stored rows, got %d", len(list))
	}

	if _, err := service.CreateAbsence(ctx, absenceParams("m-1", "2025-09-20", "2025-09-10", o, c)); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := service.CreateAbsence(ctx, absenceParams("m-1", "2025-09-20", "2025-09-20", c, o)); !errors.Is(err, ErrInvalidSlotConfiguration) {
		t.Fatalf("expected ErrInvalidSlotConfiguration, got %v", err)
	}

	if inv.count() != 5 {
		t.Fatalf("expected 5 invalidations, got %d", inv.count())
	}
}

func TestAbsenceService_IsAbsent(t *testing.T) {
	store := newMemStore()
	seedMembers(store, Member{ID: "m-1", FirstName: "Alice"})
	service := newTestAbsenceService(store, nil)
	ctx := context.Background()

	mustCreateAbsence(t, service, absenceParams("m-1", "2025-09-10", "2025-09-10", calendar.Opening, calendar.Opening))

	tests := []struct {
		name string
		date string
		slot calendar.Slot
		want bool
	}{
		{name: "covered opening", date: "2025-09-10", slot: calendar.Opening, want: true},
		{name: "free closing", date: "2025-09-10", slot: calendar.Closing, want: false},
		{name: "any part of the day", date: "2025-09-10", slot: calendar.SlotUnspecified, want: true},
		{name: "other day", date: "2025-09-11", slot: calendar.SlotUnspecified, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.IsAbsent(ctx, "m-1", date(tt.date), tt.slot)
			if err != nil {
				t.Fatalf("IsAbsent returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("IsAbsent = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := service.IsAbsent(ctx, "m-1", calendar.Date{}, calendar.Opening); ErrorKind(err) != "validation" {
		t.Fatalf("expected validation error for zero date, got %v", err)
	}
}

func TestAbsenceService_CreateAbsenceUnknownMember(t *testing.T) {
	service := newTestAbsenceService(newMemStore(), nil)

	_, err := service.CreateAbsence(context.Background(), absenceParams("ghost", "2025-09-10", "2025-09-10", calendar.Opening, calendar.Closing))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = service.CreateAbsence(context.Background(), CreateAbsenceParams{StartDate: date("2025-09-10"), EndDate: date("2025-09-10")})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAbsenceService_RemoveAbsence(t *testing.T) {
	store := newMemStore()
	seedMembers(store, Member{ID: "m-1", FirstName: "Alice"})
	service := newTestAbsenceService(store, nil)
	ctx := context.Background()

	created := mustCreateAbsence(t, service, absenceParams("m-1", "2025-09-10", "2025-09-12", calendar.Opening, calendar.Closing))
	if err := service.RemoveAbsence(ctx, created.Absence.ID); err != nil {
		t.Fatalf("RemoveAbsence returned error: %v", err)
	}
	if err := service.RemoveAbsence(ctx, created.Absence.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAbsenceService_ListAbsencesInRange(t *testing.T) {
	store := newMemStore()
	seedMembers(store, Member{ID: "m-1", FirstName: "Alice"}, Member{ID: "m-2", FirstName: "Bob"})
	service := newTestAbsenceService(store, nil)
	ctx := context.Background()

	mustCreateAbsence(t, service, absenceParams("m-1", "2025-09-01", "2025-09-03", calendar.Opening, calendar.Closing))
	mustCreateAbsence(t, service, absenceParams("m-2", "2025-09-10", "2025-09-12", calendar.Opening, calendar.Closing))

	list, err := service.ListAbsencesInRange(ctx, date("2025-09-03"), date("2025-09-09"))
	if err != nil {
		t.Fatalf("ListAbsencesInRange returned error: %v", err)
	}
	if len(list) != 1 || list[0].MemberID != "m-1" {
		t.Fatalf("unexpected absences %+v", list)
	}

	if _, err := service.ListAbsencesInRange(ctx, date("2025-09-09"), date("2025-09-03")); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestAbsenceService_Consolidate(t *testing.T) {
	store := newMemStore()
	seedMembers(store, Member{ID: "m-1", FirstName: "Alice"}, Member{ID: "m-2", FirstName: "Bob"})
	inv := &invalidationRecorder{}
	service := newTestAbsenceService(store, inv)
	ctx := context.Background()

	legacy := func(id, memberID, start, end string, startSlot, endSlot calendar.Slot) {
		t.Helper()
		interval, err := absence.New(memberID, date(start), date(end), startSlot, endSlot)
		if err != nil {
			t.Fatalf("absence.New: %v", err)
		}
		interval.ID = id
		store.put(interval)
	}
	legacy("a-1", "m-1", "2025-09-01", "2025-09-02", calendar.Opening, calendar.Closing)
	legacy("a-2", "m-1", "2025-09-03", "2025-09-03", calendar.Opening, calendar.Opening)
	legacy("a-3", "m-1", "2025-09-10", "2025-09-10", calendar.Closing, calendar.Closing)
	legacy("a-4", "m-2", "2025-09-05", "2025-09-05", calendar.Opening, calendar.Closing)

	result, err := service.Consolidate(ctx, "m-1")
	if err != nil {
		t.Fatalf("Consolidate returned error: %v", err)
	}
	if result.Before != 3 || result.After != 2 || !result.Changed() {
		t.Fatalf("unexpected result %+v", result)
	}

	list, err := service.ListAbsences(ctx, "m-1")
	if err != nil {
		t.Fatalf("ListAbsences returned error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 rows after consolidation, got %d", len(list))
	}
	if list[0].ID != "a-1" || list[0].End.String() != "2025-09-03 opening" {
		t.Fatalf("unexpected consolidated interval %+v", list[0])
	}
	if inv.count() != 1 {
		t.Fatalf("expected 1 invalidation, got %d", inv.count())
	}

	again, err := service.Consolidate(ctx, "m-1")
	if err != nil {
		t.Fatalf("second Consolidate returned error: %v", err)
	}
	if again.Changed() {
		t.Fatalf("second consolidation should be a no-op, got %+v", again)
	}

	if _, err := service.Consolidate(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAbsenceService_ConsolidateAll(t *testing.T) {
	store := newMemStore()
	service := newTestAbsenceService(store, nil)

	for i, member := range []string{"m-1", "m-2"} {
		for j, day := range []string{"2025-09-01", "2025-09-02"} {
			interval, err := absence.New(member, date(day), date(day), calendar.Opening, calendar.Closing)
			if err != nil {
				t.Fatalf("absence.New: %v", err)
			}
			interval.ID = fmt.Sprintf("a-%d-%d", i, j)
			store.put(interval)
		}
	}

	results, err := service.ConsolidateAll(context.Background())
	if err != nil {
		t.Fatalf("ConsolidateAll returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Before != 2 || res.After != 1 {
			t.Fatalf("unexpected result %+v", res)
		}
	}
	if store.replaceCalls != 2 {
		t.Fatalf("expected 2 replacements, got %d", store.replaceCalls)
	}
}

func TestAbsenceService_AbsentMembersForDate(t *testing.T) {
	store := newMemStore()
	seedMembers(store,
		Member{ID: "m-1", FirstName: "Zoe"},
		Member{ID: "m-2", FirstName: "Bob"},
		Member{ID: "m-3", FirstName: "Chloe"},
	)
	service := newTestAbsenceService(store, nil)
	ctx := context.Background()

	mustCreateAbsence(t, service, absenceParams("m-1", "2025-09-14", "2025-09-16", calendar.Opening, calendar.Closing))
	mustCreateAbsence(t, service, absenceParams("m-2", "2025-09-15", "2025-09-15", calendar.Opening, calendar.Opening))
	mustCreateAbsence(t, service, absenceParams("m-3", "2025-09-15", "2025-09-16", calendar.Closing, calendar.Closing))

	absent, err := service.AbsentMembersForDate(ctx, date("2025-09-15"))
	if err != nil {
		t.Fatalf("AbsentMembersForDate returned error: %v", err)
	}
	if len(absent) != 3 {
		t.Fatalf("expected 3 absent members, got %d", len(absent))
	}

	want := []struct {
		name     string
		coverage scheduler.Coverage
	}{
		{"Bob", scheduler.CoverageOpeningOnly},
		{"Chloe", scheduler.CoverageClosingOnly},
		{"Zoe", scheduler.CoverageFullDay},
	}
	for i, w := range want {
		if absent[i].Member.DisplayName != w.name || absent[i].Coverage != w.coverage {
			t.Fatalf("absent[%d] = %s/%v, want %s/%v", i, absent[i].Member.DisplayName, absent[i].Coverage, w.name, w.coverage)
		}
	}

	none, err := service.AbsentMembersForDate(ctx, date("2025-09-20"))
	if err != nil {
		t.Fatalf("AbsentMembersForDate returned error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected nobody absent, got %d", len(none))
	}
}

func TestAbsenceService_ConcurrentCreatesStayMerged(t *testing.T) {
	store := newMemStore()
	seedMembers(store, Member{ID: "m-1", FirstName: "Alice"})
	service := newTestAbsenceService(store, nil)
	ctx := context.Background()

	days := []string{"2025-09-01", "2025-09-02", "2025-09-03", "2025-09-04", "2025-09-05", "2025-09-06"}
	var wg sync.WaitGroup
	errs := make(chan error, len(days))
	for _, day := range days {
		wg.Add(1)
		go func(day string) {
			defer wg.Done()
			if _, err := service.CreateAbsence(ctx, absenceParams("m-1", day, day, calendar.Opening, calendar.Closing)); err != nil {
				errs <- err
			}
		}(day)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("CreateAbsence returned error: %v", err)
	}

	list, err := service.ListAbsences(ctx, "m-1")
	if err != nil {
		t.Fatalf("ListAbsences returned error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one merged row, got %d", len(list))
	}
	if list[0].Start.String() != "2025-09-01 opening" || list[0].End.String() != "2025-09-06 closing" {
		t.Fatalf("unexpected merged interval %s..%s", list[0].Start, list[0].End)
	}
	if service.locks.size() != 0 {
		t.Fatalf("expected member locks to be released, %d held", service.locks.size())
	}
}
