package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/association-planning/internal/absence"
	"github.com/example/association-planning/internal/application"
	"github.com/example/association-planning/internal/calendar"
	"github.com/example/association-planning/internal/export"
	"github.com/example/association-planning/internal/scheduler"
)

type memberServiceStub struct {
	members   []application.Member
	createErr error
	created   string
	deleted   string
}

func (s *memberServiceStub) CreateMember(ctx context.Context, fullName string) (application.Member, error) {
	s.created = fullName
	if s.createErr != nil {
		return application.Member{}, s.createErr
	}
	return application.Member{ID: "m-new", FirstName: strings.Fields(fullName)[0], DisplayName: strings.Fields(fullName)[0]}, nil
}

func (s *memberServiceStub) GetMember(ctx context.Context, id string) (application.Member, error) {
	for _, m := range s.members {
		if m.ID == id {
			return m, nil
		}
	}
	return application.Member{}, application.ErrNotFound
}

func (s *memberServiceStub) ListMembers(ctx context.Context) ([]application.Member, error) {
	return s.members, nil
}

func (s *memberServiceStub) DeleteMember(ctx context.Context, id string) error {
	s.deleted = id
	return nil
}

type absenceServiceStub struct {
	params      application.CreateAbsenceParams
	createErr   error
	absentQuery struct {
		memberID string
		date     calendar.Date
		slot     calendar.Slot
	}
	absent       bool
	todayDate    calendar.Date
	consolidated []application.ConsolidationResult
	consolidErr  error
}

func (s *absenceServiceStub) CreateAbsence(ctx context.Context, params application.CreateAbsenceParams) (application.CreateAbsenceResult, error) {
	s.params = params
	if s.createErr != nil {
		return application.CreateAbsenceResult{}, s.createErr
	}
	interval, err := absence.New(params.MemberID, params.StartDate, params.EndDate, params.StartSlot, params.EndSlot)
	if err != nil {
		return application.CreateAbsenceResult{}, err
	}
	interval.ID = "a-1"
	return application.CreateAbsenceResult{Absence: interval}, nil
}

func (s *absenceServiceStub) RemoveAbsence(ctx context.Context, id string) error {
	if id != "a-1" {
		return application.ErrNotFound
	}
	return nil
}

func (s *absenceServiceStub) ListAbsences(ctx context.Context, memberID string) ([]application.Absence, error) {
	return nil, nil
}

func (s *absenceServiceStub) ListAbsencesInRange(ctx context.Context, start, end calendar.Date) ([]application.Absence, error) {
	if start.After(end) {
		return nil, application.ErrInvalidRange
	}
	return nil, nil
}

func (s *absenceServiceStub) IsAbsent(ctx context.Context, memberID string, date calendar.Date, slot calendar.Slot) (bool, error) {
	s.absentQuery.memberID = memberID
	s.absentQuery.date = date
	s.absentQuery.slot = slot
	return s.absent, nil
}

func (s *absenceServiceStub) Consolidate(ctx context.Context, memberID string) (application.ConsolidationResult, error) {
	return application.ConsolidationResult{MemberID: memberID, Before: 3, After: 2}, nil
}

func (s *absenceServiceStub) ConsolidateAll(ctx context.Context) ([]application.ConsolidationResult, error) {
	return s.consolidated, s.consolidErr
}

func (s *absenceServiceStub) AbsentMembersForDate(ctx context.Context, date calendar.Date) ([]application.AbsentMember, error) {
	s.todayDate = date
	interval, _ := absence.New("m-1", date, date, calendar.Opening, calendar.Closing)
	return []application.AbsentMember{{
		Member:   application.Member{ID: "m-1", DisplayName: "Alice"},
		Absence:  interval,
		Coverage: scheduler.CoverageFullDay,
	}}, nil
}

type assignmentServiceStub struct {
	roster    application.SetRosterParams
	generated [2]calendar.Date
}

func (s *assignmentServiceStub) ListRecurring(ctx context.Context) ([]application.RecurringAssignment, error) {
	return []application.RecurringAssignment{{ID: "r-1", Weekday: 0, Slot: calendar.Opening, MemberID: "m-1"}}, nil
}

func (s *assignmentServiceStub) CreateRecurring(ctx context.Context, params application.CreateRecurringParams) (application.RecurringAssignment, error) {
	return application.RecurringAssignment{ID: "r-2", Weekday: params.Weekday, Slot: params.Slot, MemberID: params.MemberID}, nil
}

func (s *assignmentServiceStub) DeleteRecurring(ctx context.Context, id string) error {
	return nil
}

func (s *assignmentServiceStub) SetRecurringRoster(ctx context.Context, params application.SetRosterParams) (application.RosterResult, error) {
	s.roster = params
	result := application.RosterResult{}
	for i, id := range params.MemberIDs {
		result.Assignments = append(result.Assignments, application.RecurringAssignment{ID: string(rune('a' + i)), Weekday: params.Weekday, Slot: params.Slot, MemberID: id})
	}
	if len(params.MemberIDs) < 2 {
		result.Warnings = []string{"closing slots work best with at least 2 member(s), got 1"}
	}
	return result, nil
}

func (s *assignmentServiceStub) ListSpecific(ctx context.Context, start, end calendar.Date) ([]application.SpecificAssignment, error) {
	return nil, nil
}

func (s *assignmentServiceStub) CreateSpecific(ctx context.Context, params application.CreateSpecificParams) (application.SpecificAssignment, error) {
	return application.SpecificAssignment{ID: "s-1", Date: params.Date, Slot: params.Slot, MemberID: params.MemberID, Source: scheduler.SourceManual}, nil
}

func (s *assignmentServiceStub) DeleteSpecific(ctx context.Context, id string) error {
	return application.ErrNotFound
}

func (s *assignmentServiceStub) GenerateSpecific(ctx context.Context, start, end calendar.Date) (application.GenerateResult, error) {
	s.generated = [2]calendar.Date{start, end}
	return application.GenerateResult{From: start, To: end, Generated: 4}, nil
}

type planningServiceStub struct {
	week struct {
		reference calendar.Date
		offset    int
	}
}

func (s *planningServiceStub) ComputeSchedule(ctx context.Context, start, end calendar.Date) (application.ScheduleView, error) {
	if start.After(end) {
		return application.ScheduleView{}, application.ErrInvalidRange
	}
	return scheduler.ComputeSchedule(start, end, scheduler.Input{
		Members:   []scheduler.Member{{ID: "m-1", FirstName: "Alice", DisplayName: "Alice"}},
		Recurring: []scheduler.RecurringAssignment{{ID: "r-1", Weekday: 0, Slot: calendar.Opening, MemberID: "m-1"}},
	}), nil
}

func (s *planningServiceStub) WeekSchedule(ctx context.Context, reference calendar.Date, offset int) (application.ScheduleView, error) {
	s.week.reference = reference
	s.week.offset = offset
	start, end := calendar.Week(calendar.MustParseDate("2025-09-17"), offset)
	return s.ComputeSchedule(ctx, start, end)
}

func (s *planningServiceStub) ThreeWeekSchedule(ctx context.Context, reference calendar.Date) (application.ScheduleView, error) {
	return s.ComputeSchedule(ctx, calendar.MustParseDate("2025-09-08"), calendar.MustParseDate("2025-09-28"))
}

func (s *planningServiceStub) ExportSchedule(ctx context.Context, start, end calendar.Date) ([]byte, error) {
	view, err := s.ComputeSchedule(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return export.Workbook(view)
}

type fixedToday calendar.Date

func (f fixedToday) Today() calendar.Date { return calendar.Date(f) }

type testAPI struct {
	handler     http.Handler
	members     *memberServiceStub
	absences    *absenceServiceStub
	assignments *assignmentServiceStub
	planning    *planningServiceStub
}

func newTestAPI(t *testing.T) testAPI {
	t.Helper()
	api := testAPI{
		members:     &memberServiceStub{members: []application.Member{{ID: "m-1", FirstName: "Alice", DisplayName: "Alice"}}},
		absences:    &absenceServiceStub{},
		assignments: &assignmentServiceStub{},
		planning:    &planningServiceStub{},
	}
	api.handler = NewRouter(RouterConfig{
		Members:     NewMemberHandler(api.members, nil),
		Absences:    NewAbsenceHandler(api.absences, fixedToday(calendar.MustParseDate("2025-09-15")), nil),
		Assignments: NewAssignmentHandler(api.assignments, nil),
		Planning:    NewPlanningHandler(api.planning, nil),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	})
	return api
}

func (api testAPI) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestMemberHandlers(t *testing.T) {
	api := newTestAPI(t)

	t.Run("list members", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/members", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		members := body["members"].([]any)
		require.Len(t, members, 1)
		assert.Equal(t, "Alice", members[0].(map[string]any)["display_name"])
	})

	t.Run("create member", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/members", map[string]string{"full_name": "  Jean Dupont "})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, "Jean Dupont", api.members.created)
	})

	t.Run("create member requires a name", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/members", map[string]string{})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
		assert.Contains(t, body["errors"].(map[string]any), "full_name")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/members", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate member", func(t *testing.T) {
		api.members.createErr = application.ErrAlreadyExists
		defer func() { api.members.createErr = nil }()
		rec := api.do(t, http.MethodPost, "/api/members", map[string]string{"full_name": "Alice"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown member", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/members/ghost", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete member", func(t *testing.T) {
		rec := api.do(t, http.MethodDelete, "/api/members/m-1", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "m-1", api.members.deleted)
	})
}

func TestAbsenceHandlers(t *testing.T) {
	api := newTestAPI(t)

	t.Run("create defaults to full days", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/absences", map[string]string{
			"member_id":  "m-1",
			"start_date": "2025-09-15",
			"end_date":   "2025-09-16",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, calendar.Opening, api.absences.params.StartSlot)
		assert.Equal(t, calendar.Closing, api.absences.params.EndSlot)

		body := decodeBody(t, rec)
		created := body["absence"].(map[string]any)
		assert.Equal(t, "2025-09-15", created["start_date"])
		assert.Equal(t, "opening", created["start_slot"])
		assert.Equal(t, "closing", created["end_slot"])
	})

	t.Run("invalid range maps to error code", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/absences", map[string]string{
			"member_id":  "m-1",
			"start_date": "2025-09-20",
			"end_date":   "2025-09-10",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "INVALID_RANGE", decodeBody(t, rec)["error_code"])
	})

	t.Run("invalid slot configuration maps to error code", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/absences", map[string]string{
			"member_id":  "m-1",
			"start_date": "2025-09-20",
			"end_date":   "2025-09-20",
			"start_slot": "closing",
			"end_slot":   "opening",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "INVALID_SLOT_CONFIGURATION", decodeBody(t, rec)["error_code"])
	})

	t.Run("rejects malformed dates and slots", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/absences", map[string]string{
			"member_id":  "m-1",
			"start_date": "15/09/2025",
			"end_date":   "2025-09-20",
			"end_slot":   "noon",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		errs := decodeBody(t, rec)["errors"].(map[string]any)
		assert.Contains(t, errs, "start_date")
		assert.Contains(t, errs, "end_slot")
	})

	t.Run("french slot names are accepted", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/absences", map[string]string{
			"member_id":  "m-1",
			"start_date": "2025-09-15",
			"end_date":   "2025-09-15",
			"start_slot": "fermeture",
			"end_slot":   "fermeture",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, calendar.Closing, api.absences.params.StartSlot)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/api/absences/a-1", nil).Code)
		assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/api/absences/a-9", nil).Code)
	})

	t.Run("list in reversed range", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/absences?start=2025-09-20&end=2025-09-10", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("is absent", func(t *testing.T) {
		api.absences.absent = true
		rec := api.do(t, http.MethodGet, "/api/members/m-1/absent?date=2025-09-10&slot=opening", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["absent"])
		assert.Equal(t, "m-1", api.absences.absentQuery.memberID)
		assert.Equal(t, calendar.Opening, api.absences.absentQuery.slot)

		rec = api.do(t, http.MethodGet, "/api/members/m-1/absent", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("today defaults to the clock", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/absences/today", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2025-09-15", api.absences.todayDate.String())
		body := decodeBody(t, rec)
		absent := body["absent"].([]any)
		require.Len(t, absent, 1)
		assert.Equal(t, "full_day", absent[0].(map[string]any)["coverage"])
	})

	t.Run("consolidate member", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/members/m-1/absences/consolidate", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["changed"])
	})

	t.Run("consolidate all reports partial results", func(t *testing.T) {
		api.absences.consolidated = []application.ConsolidationResult{{MemberID: "m-1", Before: 2, After: 1}}
		api.absences.consolidErr = errors.New("member m-2: boom")
		rec := api.do(t, http.MethodPost, "/api/maintenance/consolidate", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody(t, rec)["results"], 1)

		api.absences.consolidated = nil
		rec = api.do(t, http.MethodPost, "/api/maintenance/consolidate", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestAssignmentHandlers(t *testing.T) {
	api := newTestAPI(t)

	t.Run("set roster answers warnings", func(t *testing.T) {
		rec := api.do(t, http.MethodPut, "/api/assignments/recurring/2/closing", map[string][]string{"member_ids": {"m-1"}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 2, api.assignments.roster.Weekday)
		assert.Equal(t, calendar.Closing, api.assignments.roster.Slot)
		assert.Len(t, decodeBody(t, rec)["warnings"], 1)
	})

	t.Run("set roster rejects bad path values", func(t *testing.T) {
		rec := api.do(t, http.MethodPut, "/api/assignments/recurring/9/noon", map[string][]string{"member_ids": {}})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		errs := decodeBody(t, rec)["errors"].(map[string]any)
		assert.Contains(t, errs, "weekday")
		assert.Contains(t, errs, "slot")
	})

	t.Run("create recurring validates weekday", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/assignments/recurring", map[string]any{"weekday": 7, "slot": "opening", "member_id": "m-1"})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["errors"].(map[string]any), "weekday")

		rec = api.do(t, http.MethodPost, "/api/assignments/recurring", map[string]any{"weekday": 0, "slot": "opening", "member_id": "m-1"})
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("create specific", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/assignments/specific", map[string]string{"date": "2025-09-18", "slot": "closing", "member_id": "m-1"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		created := decodeBody(t, rec)["assignment"].(map[string]any)
		assert.Equal(t, "manual", created["source"])
	})

	t.Run("delete missing specific", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/api/assignments/specific/s-9", nil).Code)
	})

	t.Run("generate", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/assignments/specific/generate", map[string]string{"start": "2025-09-15", "end": "2025-09-28"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, float64(4), decodeBody(t, rec)["generated"])
		assert.Equal(t, "2025-09-28", api.assignments.generated[1].String())
	})
}

func TestPlanningHandlers(t *testing.T) {
	api := newTestAPI(t)

	t.Run("range", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/planning?start=2025-09-15&end=2025-09-21", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		days := body["schedule"].([]any)
		require.Len(t, days, 7)
		monday := days[0].(map[string]any)
		opening := monday["opening"].(map[string]any)
		present := opening["present_assigned"].([]any)
		require.Len(t, present, 1)
		assert.Equal(t, "Alice", present[0].(map[string]any)["display_name"])
	})

	t.Run("range requires both bounds", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/planning?start=2025-09-15", nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["errors"].(map[string]any), "end")
	})

	t.Run("week offset", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/planning/week?date=2025-09-17&offset=-1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, -1, api.planning.week.offset)
		assert.Equal(t, "2025-09-08", decodeBody(t, rec)["start"])

		rec = api.do(t, http.MethodGet, "/api/planning/week?offset=soon", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("three weeks", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/planning/three-weeks", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody(t, rec)["dates"], 21)
	})

	t.Run("export", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/planning/export?start=2025-09-15&end=2025-09-21", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "planning_2025-09-15_2025-09-21.xlsx")
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
	})
}

func TestRouterInfrastructure(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	unhealthy := NewRouter(RouterConfig{Health: func(ctx context.Context) error { return errors.New("db down") }})
	rec = httptest.NewRecorder()
	unhealthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
