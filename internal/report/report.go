// Package report builds per-month time reports: one row per calendar day,
// month totals, spreadsheet rendering and the monthly email run.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/punchclock/punchclock/internal/models"
	"github.com/punchclock/punchclock/internal/store"
	"github.com/punchclock/punchclock/internal/timeclock"
)

// ErrNoEntries is returned when a full-history report is requested for a user
// without a single entry.
var ErrNoEntries = errors.New("no entries to report")

// NoDataWeekend is the sentinel shown for weekend days without an entry, to
// distinguish "didn't work" from missing data on working days.
const NoDataWeekend = "---"

// Month identifies one calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// Date returns the first day of the month.
func (m Month) Date() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String renders the month as "January 2026".
func (m Month) String() string {
	return m.Date().Format("January 2006")
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	next := m.Date().AddDate(0, 1, 0)
	return Month{Year: next.Year(), Month: next.Month()}
}

// Before reports whether m precedes other.
func (m Month) Before(other Month) bool {
	return m.Year < other.Year || (m.Year == other.Year && m.Month < other.Month)
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// DayRow is one calendar day in a month group. Days without entries have
// empty check-in/out and a "0:00" total; weekend days without entries carry
// the NoDataWeekend sentinel in Total instead. Multiple closed entries on one
// day are summed.
type DayRow struct {
	Date     string `json:"date"`
	Weekday  string `json:"weekday"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Total    string `json:"total"`
	Comment  string `json:"comment"`
	Minutes  int    `json:"minutes"`
}

// MonthGroup is the report for a single month: every calendar day, whether or
// not it has entries, plus the month total.
type MonthGroup struct {
	Month        Month    `json:"-"`
	Label        string   `json:"month"`
	Days         []DayRow `json:"days"`
	TotalMinutes int      `json:"total_minutes"`
	Total        string   `json:"total"` // H:MM
}

// Report is the grouped output for a month range.
type Report struct {
	Months []MonthGroup `json:"months"`
}

// Build enumerates every month in [start, end] and every calendar day within
// each month. A range that covers no months yields an empty report.
func Build(ctx context.Context, entries store.EntryStore, userID uint, start, end Month) (*Report, error) {
	report := &Report{}
	if end.Before(start) {
		return report, nil
	}

	from := start.Date().Format(timeclock.DateLayout)
	to := end.Date().AddDate(0, 1, -1).Format(timeclock.DateLayout)
	rows, err := entries.EntriesInRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string][]models.Entry)
	for _, entry := range rows {
		byDate[entry.Date] = append(byDate[entry.Date], entry)
	}

	for month := start; !end.Before(month); month = month.Next() {
		group, err := buildMonth(month, byDate)
		if err != nil {
			return nil, err
		}
		report.Months = append(report.Months, *group)
	}
	return report, nil
}

// BuildFullHistory builds the report over [min(date), max(date)] of the
// user's entries. Fails with ErrNoEntries when the user has none.
func BuildFullHistory(ctx context.Context, entries store.EntryStore, userID uint) (*Report, error) {
	min, max, err := entries.DateBounds(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNoEntries, userID)
	}
	if err != nil {
		return nil, err
	}

	first, err := time.Parse(timeclock.DateLayout, min)
	if err != nil {
		return nil, fmt.Errorf("malformed entry date %q: %w", min, err)
	}
	last, err := time.Parse(timeclock.DateLayout, max)
	if err != nil {
		return nil, fmt.Errorf("malformed entry date %q: %w", max, err)
	}
	return Build(ctx, entries, userID, MonthOf(first), MonthOf(last))
}

func buildMonth(month Month, byDate map[string][]models.Entry) (*MonthGroup, error) {
	group := &MonthGroup{Month: month, Label: month.String()}

	first := month.Date()
	daysInMonth := first.AddDate(0, 1, -1).Day()
	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(month.Year, month.Month, day, 0, 0, 0, 0, time.UTC)
		row, err := buildDay(date, byDate[date.Format(timeclock.DateLayout)])
		if err != nil {
			return nil, err
		}
		group.Days = append(group.Days, *row)
		group.TotalMinutes += row.Minutes
	}
	group.Total = timeclock.FormatClock(group.TotalMinutes)
	return group, nil
}

func buildDay(date time.Time, entries []models.Entry) (*DayRow, error) {
	row := &DayRow{
		Date:    date.Format(timeclock.DateLayout),
		Weekday: date.Weekday().String(),
	}

	if len(entries) == 0 {
		if isWeekend(date) {
			row.Total = NoDataWeekend
		} else {
			row.Total = timeclock.FormatClock(0)
		}
		return row, nil
	}

	var comments []string
	for _, entry := range entries {
		if row.CheckIn == "" {
			row.CheckIn = entry.CheckIn
		}
		if entry.CheckOut != nil {
			row.CheckOut = *entry.CheckOut
			minutes, err := timeclock.DurationMinutes(entry.CheckIn, *entry.CheckOut)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", entry.ID, err)
			}
			row.Minutes += minutes
		}
		if entry.Comment != nil && *entry.Comment != "" {
			comments = append(comments, *entry.Comment)
		}
	}
	row.Total = timeclock.FormatClock(row.Minutes)
	row.Comment = strings.Join(comments, "; ")
	return row, nil
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
