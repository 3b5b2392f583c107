// Package entries exposes the time-entry HTTP surface: clock-in, clock-out,
// toggle, history, direct edit/delete and the spreadsheet export.
package entries

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/punchclock/punchclock/internal/auth"
	"github.com/punchclock/punchclock/internal/report"
	"github.com/punchclock/punchclock/internal/store"
	"github.com/punchclock/punchclock/internal/timeclock"
)

type clockRequest struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
	Comment  string `json:"comment"`
}

func (r clockRequest) toEngine() timeclock.ClockRequest {
	return timeclock.ClockRequest{
		Date:     r.Date,
		Time:     r.Time,
		Timezone: r.Timezone,
		Comment:  r.Comment,
	}
}

// writeError maps lifecycle errors to HTTP status codes. Anything unmapped is
// a store failure and aborts with 500.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, timeclock.ErrAlreadyClockedIn):
		c.JSON(http.StatusConflict, gin.H{"error": "already clocked in"})
	case errors.Is(err, timeclock.ErrNotClockedIn):
		c.JSON(http.StatusConflict, gin.H{"error": "not clocked in"})
	case errors.Is(err, timeclock.ErrAlreadyClockedOut):
		c.JSON(http.StatusConflict, gin.H{"error": "already clocked out"})
	case errors.Is(err, timeclock.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
	case errors.Is(err, report.ErrNoEntries):
		c.JSON(http.StatusNotFound, gin.H{"error": "no entries to export"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// HandleClockIn opens a new entry for the day.
func HandleClockIn(engine *timeclock.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req clockRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
				return
			}
		}

		entry, err := engine.ClockIn(c.Request.Context(), auth.CurrentUserID(c), req.toEngine())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

// HandleClockOut closes the day's open entry.
func HandleClockOut(engine *timeclock.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req clockRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
				return
			}
		}

		entry, err := engine.ClockOut(c.Request.Context(), auth.CurrentUserID(c), req.toEngine())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

// HandleToggle clocks in or out depending on the day's state, for
// single-action clients such as a tag scanner.
func HandleToggle(engine *timeclock.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req clockRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
				return
			}
		}

		result, err := engine.Toggle(c.Request.Context(), auth.CurrentUserID(c), req.toEngine())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// HandleList returns the user's entries in a date range. Both bounds default
// to today.
func HandleList(entries store.EntryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		today := time.Now().Format(timeclock.DateLayout)
		from := c.DefaultQuery("from", today)
		to := c.DefaultQuery("to", today)
		if !timeclock.ValidDate(from) || !timeclock.ValidDate(to) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be YYYY-MM-DD"})
			return
		}

		rows, err := entries.EntriesInRange(c.Request.Context(), auth.CurrentUserID(c), from, to)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": rows})
	}
}

type updateRequest struct {
	CheckIn  *string `json:"check_in"`
	CheckOut *string `json:"check_out"`
	Comment  *string `json:"comment"`
	Timezone *string `json:"timezone"`
}

// HandleUpdate edits an entry's fields directly. Only the owner's entries are
// visible; a foreign id yields 404.
func HandleUpdate(entries store.EntryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		entryID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
			return
		}

		var req updateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
			return
		}
		if req.CheckIn != nil && !timeclock.ValidTime(*req.CheckIn) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "check_in must be HH:MM"})
			return
		}
		if req.CheckOut != nil && *req.CheckOut != "" && !timeclock.ValidTime(*req.CheckOut) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "check_out must be HH:MM"})
			return
		}

		ctx := c.Request.Context()
		entry, err := entries.GetEntry(ctx, auth.CurrentUserID(c), uint(entryID))
		if err != nil {
			writeError(c, err)
			return
		}

		if req.CheckIn != nil {
			entry.CheckIn = *req.CheckIn
		}
		if req.CheckOut != nil {
			if *req.CheckOut == "" {
				entry.CheckOut = nil // reopen the entry
			} else {
				entry.CheckOut = req.CheckOut
			}
		}
		if req.Comment != nil {
			entry.Comment = req.Comment
		}
		if req.Timezone != nil {
			entry.Timezone = req.Timezone
		}

		if err := entries.UpdateEntry(ctx, entry); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

// HandleDelete removes one of the user's entries.
func HandleDelete(entries store.EntryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		entryID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
			return
		}

		if err := entries.DeleteEntry(c.Request.Context(), auth.CurrentUserID(c), uint(entryID)); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// HandleExport builds the month-range report and streams it as a spreadsheet
// download. Without range parameters it covers the user's full history and
// fails with 404 when there is nothing to export.
func HandleExport(entries store.EntryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := auth.CurrentUserID(c)

		var (
			rep *report.Report
			err error
		)
		if c.Query("start_month") == "" && c.Query("start_year") == "" {
			rep, err = report.BuildFullHistory(ctx, entries, userID)
		} else {
			start, end, parseErr := parseMonthRange(c)
			if parseErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": parseErr.Error()})
				return
			}
			rep, err = report.Build(ctx, entries, userID, start, end)
		}
		if err != nil {
			writeError(c, err)
			return
		}

		content, err := report.ToXLSX(rep)
		if err != nil {
			writeError(c, err)
			return
		}

		filename := fmt.Sprintf("timesheet-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
	}
}

func parseMonthRange(c *gin.Context) (report.Month, report.Month, error) {
	parse := func(key string, min, max int) (int, error) {
		v, err := strconv.Atoi(c.Query(key))
		if err != nil || v < min || v > max {
			return 0, fmt.Errorf("%s must be a number between %d and %d", key, min, max)
		}
		return v, nil
	}

	startMonth, err := parse("start_month", 1, 12)
	if err != nil {
		return report.Month{}, report.Month{}, err
	}
	startYear, err := parse("start_year", 1970, 9999)
	if err != nil {
		return report.Month{}, report.Month{}, err
	}
	endMonth, err := parse("end_month", 1, 12)
	if err != nil {
		return report.Month{}, report.Month{}, err
	}
	endYear, err := parse("end_year", 1970, 9999)
	if err != nil {
		return report.Month{}, report.Month{}, err
	}

	return report.Month{Year: startYear, Month: time.Month(startMonth)},
		report.Month{Year: endYear, Month: time.Month(endMonth)}, nil
}
