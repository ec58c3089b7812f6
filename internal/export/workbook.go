// Package export renders computed schedule views as spreadsheets.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/association-planning/internal/scheduler"
)

// SheetName is the name of the schedule worksheet.
const SheetName = "Planning"

// ContentType is the media type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var headers = []any{
	"Date", "Day",
	"Opening", "Opening (absent)", "Opening (occasional)",
	"Closing", "Closing (absent)", "Closing (occasional)",
	"Absent all day", "Absent at opening", "Absent at closing",
}

// WriteSchedule writes view as an xlsx workbook with one row per date.
func WriteSchedule(w io.Writer, view scheduler.View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	title := fmt.Sprintf("Planning %s to %s", view.Start, view.End)
	if err := f.SetCellValue(SheetName, "A1", title); err != nil {
		return err
	}
	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", "A1", titleStyle); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, "A3", &headers); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A3", lastCol+"3", headerStyle); err != nil {
		return err
	}

	for i, day := range view.Schedule {
		cell, err := excelize.CoordinatesToCellName(1, 4+i)
		if err != nil {
			return err
		}
		row := Row(day)
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetName, "A", "B", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "C", lastCol, 28); err != nil {
		return err
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      3,
		TopLeftCell: "A4",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

// Workbook returns view rendered by WriteSchedule.
func Workbook(view scheduler.View) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSchedule(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Row flattens one day into the cell values of its worksheet row.
func Row(day scheduler.DaySchedule) []string {
	weekday := ""
	if day.Weekday >= 0 && day.Weekday < len(weekdayNames) {
		weekday = weekdayNames[day.Weekday]
	}
	return []string{
		day.Date.String(),
		weekday,
		entryNames(day.Opening.PresentAssigned),
		absentNames(day.Opening.AbsentAssigned),
		entryNames(day.Opening.OccasionalPresent),
		entryNames(day.Closing.PresentAssigned),
		absentNames(day.Closing.AbsentAssigned),
		entryNames(day.Closing.OccasionalPresent),
		memberNames(day.Absences.FullDay),
		memberNames(day.Absences.OpeningOnly),
		memberNames(day.Absences.ClosingOnly),
	}
}

func entryNames(entries []scheduler.Entry) string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Member.DisplayName
	}
	return strings.Join(names, ", ")
}

func absentNames(entries []scheduler.Entry) string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Member.DisplayName
		if e.Absence != nil {
			names[i] += " (" + e.Absence.Description + ")"
		}
	}
	return strings.Join(names, ", ")
}

func memberNames(list []scheduler.AbsentMember) string {
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = a.Member.DisplayName
	}
	return strings.Join(names, ", ")
}
