package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchclock/punchclock/internal/models"
	"github.com/punchclock/punchclock/internal/store"
)

func strptr(s string) *string { return &s }

func addEntry(t *testing.T, mem *store.Memory, userID uint, date, in, out, comment string) {
	t.Helper()
	entry := &models.Entry{UserID: userID, Date: date, CheckIn: in}
	if out != "" {
		entry.CheckOut = strptr(out)
	}
	if comment != "" {
		entry.Comment = strptr(comment)
	}
	require.NoError(t, mem.CreateEntry(context.Background(), entry))
}

func TestBuildEmptyMonthStillHasAllDays(t *testing.T) {
	mem := store.NewMemory()

	// February 2026 has 28 days and no entries.
	rep, err := Build(context.Background(), mem, 1, Month{2026, time.February}, Month{2026, time.February})
	require.NoError(t, err)
	require.Len(t, rep.Months, 1)

	month := rep.Months[0]
	assert.Equal(t, "February 2026", month.Label)
	assert.Len(t, month.Days, 28)
	assert.Equal(t, "0:00", month.Total)

	for _, day := range month.Days {
		assert.Empty(t, day.CheckIn)
		assert.Empty(t, day.CheckOut)
		date, err := time.Parse("2006-01-02", day.Date)
		require.NoError(t, err)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			assert.Equal(t, NoDataWeekend, day.Total, day.Date)
		} else {
			assert.Equal(t, "0:00", day.Total, day.Date)
		}
	}
}

func TestBuildComputesDayAndMonthTotals(t *testing.T) {
	mem := store.NewMemory()
	addEntry(t, mem, 1, "2026-03-10", "09:00", "17:30", "project work")
	addEntry(t, mem, 1, "2026-03-11", "08:00", "12:00", "")

	rep, err := Build(context.Background(), mem, 1, Month{2026, time.March}, Month{2026, time.March})
	require.NoError(t, err)
	require.Len(t, rep.Months, 1)

	month := rep.Months[0]
	assert.Len(t, month.Days, 31)

	day := month.Days[9] // 2026-03-10
	assert.Equal(t, "2026-03-10", day.Date)
	assert.Equal(t, "Tuesday", day.Weekday)
	assert.Equal(t, "09:00", day.CheckIn)
	assert.Equal(t, "17:30", day.CheckOut)
	assert.Equal(t, "8:30", day.Total)
	assert.Equal(t, "project work", day.Comment)

	assert.Equal(t, 510+240, month.TotalMinutes)
	assert.Equal(t, "12:30", month.Total)
}

func TestBuildSumsMultipleShiftsPerDay(t *testing.T) {
	mem := store.NewMemory()
	addEntry(t, mem, 1, "2026-03-10", "06:00", "10:00", "early shift")
	addEntry(t, mem, 1, "2026-03-10", "14:00", "18:00", "late shift")

	rep, err := Build(context.Background(), mem, 1, Month{2026, time.March}, Month{2026, time.March})
	require.NoError(t, err)

	day := rep.Months[0].Days[9]
	assert.Equal(t, "06:00", day.CheckIn)
	assert.Equal(t, "18:00", day.CheckOut)
	assert.Equal(t, "8:00", day.Total)
	assert.Equal(t, "early shift; late shift", day.Comment)
}

func TestBuildIgnoresOpenEntryDuration(t *testing.T) {
	mem := store.NewMemory()
	addEntry(t, mem, 1, "2026-03-10", "09:00", "", "")

	rep, err := Build(context.Background(), mem, 1, Month{2026, time.March}, Month{2026, time.March})
	require.NoError(t, err)

	day := rep.Months[0].Days[9]
	assert.Equal(t, "09:00", day.CheckIn)
	assert.Empty(t, day.CheckOut)
	assert.Equal(t, "0:00", day.Total)
}

func TestBuildSpansMultipleMonths(t *testing.T) {
	mem := store.NewMemory()
	addEntry(t, mem, 1, "2026-01-15", "09:00", "17:00", "")

	// February has zero entries but must still appear as a month group.
	rep, err := Build(context.Background(), mem, 1, Month{2026, time.January}, Month{2026, time.February})
	require.NoError(t, err)
	require.Len(t, rep.Months, 2)
	assert.Equal(t, "January 2026", rep.Months[0].Label)
	assert.Equal(t, "8:00", rep.Months[0].Total)
	assert.Equal(t, "February 2026", rep.Months[1].Label)
	assert.Equal(t, "0:00", rep.Months[1].Total)
}

func TestBuildYearBoundary(t *testing.T) {
	mem := store.NewMemory()

	rep, err := Build(context.Background(), mem, 1, Month{2025, time.December}, Month{2026, time.January})
	require.NoError(t, err)
	require.Len(t, rep.Months, 2)
	assert.Equal(t, "December 2025", rep.Months[0].Label)
	assert.Equal(t, "January 2026", rep.Months[1].Label)
}

func TestBuildInvertedRangeIsEmpty(t *testing.T) {
	mem := store.NewMemory()

	rep, err := Build(context.Background(), mem, 1, Month{2026, time.March}, Month{2026, time.January})
	require.NoError(t, err)
	assert.Empty(t, rep.Months)
}

func TestBuildFullHistoryUsesEntryBounds(t *testing.T) {
	mem := store.NewMemory()
	addEntry(t, mem, 1, "2025-11-03", "09:00", "17:00", "")
	addEntry(t, mem, 1, "2026-01-20", "09:00", "17:00", "")

	rep, err := BuildFullHistory(context.Background(), mem, 1)
	require.NoError(t, err)
	require.Len(t, rep.Months, 3) // Nov, Dec, Jan
	assert.Equal(t, "November 2025", rep.Months[0].Label)
	assert.Equal(t, "January 2026", rep.Months[2].Label)
}

func TestBuildFullHistoryWithoutEntriesFails(t *testing.T) {
	mem := store.NewMemory()

	_, err := BuildFullHistory(context.Background(), mem, 1)
	assert.ErrorIs(t, err, ErrNoEntries)
}

func TestToXLSXWritesMonthSheets(t *testing.T) {
	mem := store.NewMemory()
	addEntry(t, mem, 1, "2026-01-15", "09:00", "17:00", "")

	rep, err := Build(context.Background(), mem, 1, Month{2026, time.January}, Month{2026, time.February})
	require.NoError(t, err)

	content, err := ToXLSX(rep)
	require.NoError(t, err)
	assert.NotEmpty(t, content)
	// XLSX files are zip archives.
	assert.Equal(t, []byte{'P', 'K'}, content[:2])
}
