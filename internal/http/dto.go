package http

import (
	"time"

	"github.com/example/association-planning/internal/application"
	"github.com/example/association-planning/internal/calendar"
	"github.com/example/association-planning/internal/scheduler"
)

type memberDTO struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func toMemberDTO(m application.Member) memberDTO {
	return memberDTO{
		ID:          m.ID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		DisplayName: m.DisplayName,
		CreatedAt:   m.CreatedAt,
	}
}

type absenceDTO struct {
	ID          string        `json:"id"`
	MemberID    string        `json:"member_id"`
	StartDate   calendar.Date `json:"start_date"`
	StartSlot   calendar.Slot `json:"start_slot"`
	EndDate     calendar.Date `json:"end_date"`
	EndSlot     calendar.Slot `json:"end_slot"`
	Description string        `json:"description"`
}

func toAbsenceDTO(a application.Absence) absenceDTO {
	return absenceDTO{
		ID:          a.ID,
		MemberID:    a.MemberID,
		StartDate:   a.Start.Date,
		StartSlot:   a.Start.Slot,
		EndDate:     a.End.Date,
		EndSlot:     a.End.Slot,
		Description: a.Describe(),
	}
}

func toAbsenceDTOs(list []application.Absence) []absenceDTO {
	out := make([]absenceDTO, len(list))
	for i, a := range list {
		out[i] = toAbsenceDTO(a)
	}
	return out
}

type recurringDTO struct {
	ID       string        `json:"id"`
	Weekday  int           `json:"weekday"`
	Slot     calendar.Slot `json:"slot"`
	MemberID string        `json:"member_id"`
}

func toRecurringDTOs(list []application.RecurringAssignment) []recurringDTO {
	out := make([]recurringDTO, len(list))
	for i, a := range list {
		out[i] = recurringDTO{ID: a.ID, Weekday: a.Weekday, Slot: a.Slot, MemberID: a.MemberID}
	}
	return out
}

type specificDTO struct {
	ID       string           `json:"id"`
	Date     calendar.Date    `json:"date"`
	Slot     calendar.Slot    `json:"slot"`
	MemberID string           `json:"member_id"`
	Source   scheduler.Source `json:"source"`
}

func toSpecificDTO(a application.SpecificAssignment) specificDTO {
	return specificDTO{ID: a.ID, Date: a.Date, Slot: a.Slot, MemberID: a.MemberID, Source: a.Source}
}

func toSpecificDTOs(list []application.SpecificAssignment) []specificDTO {
	out := make([]specificDTO, len(list))
	for i, a := range list {
		out[i] = toSpecificDTO(a)
	}
	return out
}

type absenceDetailDTO struct {
	IntervalID  string        `json:"interval_id"`
	StartDate   calendar.Date `json:"start_date"`
	StartSlot   calendar.Slot `json:"start_slot"`
	EndDate     calendar.Date `json:"end_date"`
	EndSlot     calendar.Slot `json:"end_slot"`
	Description string        `json:"description"`
}

func toAbsenceDetailDTO(d scheduler.AbsenceDetail) *absenceDetailDTO {
	return &absenceDetailDTO{
		IntervalID:  d.IntervalID,
		StartDate:   d.Start.Date,
		StartSlot:   d.Start.Slot,
		EndDate:     d.End.Date,
		EndSlot:     d.End.Slot,
		Description: d.Description,
	}
}

type entryDTO struct {
	AssignmentID string            `json:"assignment_id"`
	MemberID     string            `json:"member_id"`
	DisplayName  string            `json:"display_name"`
	Source       scheduler.Source  `json:"source,omitempty"`
	Absence      *absenceDetailDTO `json:"absence,omitempty"`
}

func toEntryDTOs(entries []scheduler.Entry) []entryDTO {
	out := make([]entryDTO, len(entries))
	for i, e := range entries {
		out[i] = entryDTO{
			AssignmentID: e.AssignmentID,
			MemberID:     e.Member.ID,
			DisplayName:  e.Member.DisplayName,
			Source:       e.Source,
		}
		if e.Absence != nil {
			out[i].Absence = toAbsenceDetailDTO(*e.Absence)
		}
	}
	return out
}

type slotDTO struct {
	PresentAssigned   []entryDTO `json:"present_assigned"`
	AbsentAssigned    []entryDTO `json:"absent_assigned"`
	OccasionalPresent []entryDTO `json:"occasional_present"`
}

func toSlotDTO(r scheduler.SlotResolution) slotDTO {
	return slotDTO{
		PresentAssigned:   toEntryDTOs(r.PresentAssigned),
		AbsentAssigned:    toEntryDTOs(r.AbsentAssigned),
		OccasionalPresent: toEntryDTOs(r.OccasionalPresent),
	}
}

type absentMemberDTO struct {
	MemberID    string            `json:"member_id"`
	DisplayName string            `json:"display_name"`
	Absence     *absenceDetailDTO `json:"absence"`
}

func toAbsentMemberDTOs(list []scheduler.AbsentMember) []absentMemberDTO {
	out := make([]absentMemberDTO, len(list))
	for i, a := range list {
		out[i] = absentMemberDTO{
			MemberID:    a.Member.ID,
			DisplayName: a.Member.DisplayName,
			Absence:     toAbsenceDetailDTO(a.Absence),
		}
	}
	return out
}

type dayAbsencesDTO struct {
	FullDay     []absentMemberDTO `json:"full_day"`
	OpeningOnly []absentMemberDTO `json:"opening_only"`
	ClosingOnly []absentMemberDTO `json:"closing_only"`
}

type dayDTO struct {
	Date     calendar.Date  `json:"date"`
	Weekday  int            `json:"weekday"`
	Opening  slotDTO        `json:"opening"`
	Closing  slotDTO        `json:"closing"`
	Absences dayAbsencesDTO `json:"absences"`
}

type scheduleDTO struct {
	Start    calendar.Date   `json:"start"`
	End      calendar.Date   `json:"end"`
	Dates    []calendar.Date `json:"dates"`
	Schedule []dayDTO        `json:"schedule"`
}

func toScheduleDTO(view application.ScheduleView) scheduleDTO {
	days := make([]dayDTO, len(view.Schedule))
	for i, day := range view.Schedule {
		days[i] = dayDTO{
			Date:    day.Date,
			Weekday: day.Weekday,
			Opening: toSlotDTO(day.Opening),
			Closing: toSlotDTO(day.Closing),
			Absences: dayAbsencesDTO{
				FullDay:     toAbsentMemberDTOs(day.Absences.FullDay),
				OpeningOnly: toAbsentMemberDTOs(day.Absences.OpeningOnly),
				ClosingOnly: toAbsentMemberDTOs(day.Absences.ClosingOnly),
			},
		}
	}
	dates := view.Dates
	if dates == nil {
		dates = []calendar.Date{}
	}
	return scheduleDTO{Start: view.Start, End: view.End, Dates: dates, Schedule: days}
}

type absentTodayDTO struct {
	MemberID    string     `json:"member_id"`
	DisplayName string     `json:"display_name"`
	Coverage    string     `json:"coverage"`
	Absence     absenceDTO `json:"absence"`
}

type consolidationDTO struct {
	MemberID string `json:"member_id"`
	Before   int    `json:"before"`
	After    int    `json:"after"`
	Changed  bool   `json:"changed"`
}

func toConsolidationDTO(r application.ConsolidationResult) consolidationDTO {
	return consolidationDTO{MemberID: r.MemberID, Before: r.Before, After: r.After, Changed: r.Changed()}
}
