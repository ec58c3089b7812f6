package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlot(t *testing.T) {
	cases := []struct {
		in      string
		want    Slot
		wantErr bool
	}{
		{in: "opening", want: Opening},
		{in: " Closing ", want: Closing},
		{in: "ouverture", want: Opening},
		{in: "fermeture", want: Closing},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseSlot(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidSlot)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSlotOrder(t *testing.T) {
	assert.Equal(t, 1, Opening.Order())
	assert.Equal(t, 2, Closing.Order())
	assert.False(t, SlotUnspecified.Valid())
}

func TestParseSlotOrDefaultsBlank(t *testing.T) {
	slot, err := ParseSlotOr("  ", Closing)
	require.NoError(t, err)
	assert.Equal(t, Closing, slot)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-09-15")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-15", d.String())
	assert.Equal(t, 0, d.Weekday(), "2025-09-15 is a Monday")

	_, err = ParseDate("15/09/2025")
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = ParseDate("2025-02-30")
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestDateArithmetic(t *testing.T) {
	d := MustParseDate("2025-02-28")
	assert.Equal(t, "2025-03-01", d.AddDays(1).String())
	assert.Equal(t, "2025-02-27", d.AddDays(-1).String())
	assert.Equal(t, 3, d.DaysUntil(MustParseDate("2025-03-03")))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.Equal(NewDate(2025, time.February, 28)))
	assert.Equal(t, 6, MustParseDate("2025-09-21").Weekday(), "Sunday maps to 6")
}

func TestDateOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	instant := time.Date(2025, time.September, 14, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-09-15", DateOf(instant.In(loc)).String())
}

func TestDays(t *testing.T) {
	days := Days(MustParseDate("2025-09-29"), MustParseDate("2025-10-02"))
	require.Len(t, days, 4)
	assert.Equal(t, "2025-09-29", days[0].String())
	assert.Equal(t, "2025-10-02", days[3].String())

	assert.Empty(t, Days(MustParseDate("2025-10-02"), MustParseDate("2025-09-29")))
	assert.Len(t, Days(MustParseDate("2025-10-02"), MustParseDate("2025-10-02")), 1)
}

func TestWeek(t *testing.T) {
	start, end := Week(MustParseDate("2025-09-18"), 0)
	assert.Equal(t, "2025-09-15", start.String())
	assert.Equal(t, "2025-09-21", end.String())

	start, end = Week(MustParseDate("2025-09-21"), -1)
	assert.Equal(t, "2025-09-08", start.String())
	assert.Equal(t, "2025-09-14", end.String())
}

func TestComparePoints(t *testing.T) {
	d := MustParseDate("2025-09-15")
	a := At(d, Opening)
	b := At(d, Closing)
	c := At(d.AddDays(1), Opening)

	assert.Equal(t, -1, ComparePoints(a, b))
	assert.Equal(t, 1, ComparePoints(c, b))
	assert.Equal(t, 0, ComparePoints(b, At(d, Closing)))
	assert.Equal(t, a, MinPoint(b, a))
	assert.Equal(t, c, MaxPoint(c, a))
}

func TestIsAdjacent(t *testing.T) {
	d := MustParseDate("2025-09-16")

	assert.True(t, IsAdjacent(At(d, Closing), At(d.AddDays(1), Opening)))
	assert.False(t, IsAdjacent(At(d, Opening), At(d, Closing)), "same day is containment")
	assert.False(t, IsAdjacent(At(d, Closing), At(d.AddDays(2), Opening)))
	assert.False(t, IsAdjacent(At(d, Closing), At(d.AddDays(1), Closing)))
	assert.False(t, IsAdjacent(At(d.AddDays(1), Opening), At(d, Closing)), "order matters")
}

func TestJSONRoundTripOfPointFields(t *testing.T) {
	type payload struct {
		Date Date `json:"date"`
		Slot Slot `json:"slot"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-09-15","slot":"closing"}`), &p))
	assert.Equal(t, Closing, p.Slot)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-09-15","slot":"closing"}`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"date":"2025-09-15","slot":"noon"}`), &p))
}
