// Package timeclock implements the clock-in/clock-out entry lifecycle: the
// per-day open/closed state, the clock-in, clock-out and toggle operations,
// and duration arithmetic.
package timeclock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/punchclock/punchclock/internal/models"
	"github.com/punchclock/punchclock/internal/store"
)

// State is the derived per-(user, day) lifecycle state. It is never stored;
// it is computed from the day's most-recently-created entry.
type State string

const (
	// StateNone means the day has no entries or its latest entry is closed.
	StateNone State = "none"
	// StateOpen means the latest entry has a check-in and no check-out.
	StateOpen State = "open"
)

// Toggle response actions.
const (
	ActionCheckIn  = "check-in"
	ActionCheckOut = "check-out"
)

// ClockRequest carries the optional fields of a clock-in/out/toggle call.
// Empty Date and Time default to the engine clock's wall-clock day and time.
// Note the caveat: a client that omits them gets the server's local clock,
// which can misattribute the day boundary for users in other timezones.
type ClockRequest struct {
	Date     string
	Time     string
	Timezone string
	Comment  string
}

// ToggleResult is the outcome of a toggle call: which action ran, and either
// a carried-over comment suggestion (check-in) or the formatted shift
// duration (check-out).
type ToggleResult struct {
	Action   string        `json:"action"`
	Entry    *models.Entry `json:"entry"`
	Comment  string        `json:"comment,omitempty"`
	Duration string        `json:"duration,omitempty"`
}

// Engine enforces the entry lifecycle invariants on top of an EntryStore.
type Engine struct {
	entries store.EntryStore
	now     func() time.Time
}

// NewEngine builds an engine over the given store.
func NewEngine(entries store.EntryStore) *Engine {
	return &Engine{entries: entries, now: time.Now}
}

// WithClock replaces the engine's wall clock. Test helper.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// State returns the lifecycle state for (user, date) and the latest entry it
// was derived from (nil in StateNone with no entries). This is the single
// derivation point; no other code inspects entry rows for openness.
func (e *Engine) State(ctx context.Context, userID uint, date string) (State, *models.Entry, error) {
	return stateOf(ctx, e.entries, userID, date)
}

// ClockIn opens a new entry for the day. Fails with ErrAlreadyClockedIn when
// the day's latest entry is still open.
func (e *Engine) ClockIn(ctx context.Context, userID uint, req ClockRequest) (*models.Entry, error) {
	req, err := e.withDefaults(req)
	if err != nil {
		return nil, err
	}

	var entry *models.Entry
	err = e.entries.WithUserLock(ctx, userID, func(s store.EntryStore) error {
		state, _, err := stateOf(ctx, s, userID, req.Date)
		if err != nil {
			return err
		}
		if state == StateOpen {
			return fmt.Errorf("%w: %s", ErrAlreadyClockedIn, req.Date)
		}
		entry = &models.Entry{
			UserID:   userID,
			Date:     req.Date,
			CheckIn:  req.Time,
			Timezone: nilIfEmpty(req.Timezone),
		}
		return s.CreateEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ClockOut closes the day's open entry, recording check-out time and comment.
// The entry's timezone keeps its first non-null value.
func (e *Engine) ClockOut(ctx context.Context, userID uint, req ClockRequest) (*models.Entry, error) {
	req, err := e.withDefaults(req)
	if err != nil {
		return nil, err
	}

	var entry *models.Entry
	err = e.entries.WithUserLock(ctx, userID, func(s store.EntryStore) error {
		state, latest, err := stateOf(ctx, s, userID, req.Date)
		if err != nil {
			return err
		}
		if latest == nil {
			return fmt.Errorf("%w: %s", ErrNotClockedIn, req.Date)
		}
		if state != StateOpen {
			return fmt.Errorf("%w: %s", ErrAlreadyClockedOut, req.Date)
		}
		latest.CheckOut = &req.Time
		if req.Comment != "" {
			latest.Comment = &req.Comment
		}
		if latest.Timezone == nil {
			latest.Timezone = nilIfEmpty(req.Timezone)
		}
		entry = latest
		return s.UpdateEntry(ctx, latest)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Toggle clocks in when the day is not open and clocks out when it is, for
// single-action triggers such as a tag scan. The check-in branch carries the
// most recent non-empty comment from any prior entry as a suggestion; the
// check-out branch reports the shift duration.
func (e *Engine) Toggle(ctx context.Context, userID uint, req ClockRequest) (*ToggleResult, error) {
	req, err := e.withDefaults(req)
	if err != nil {
		return nil, err
	}

	var result *ToggleResult
	err = e.entries.WithUserLock(ctx, userID, func(s store.EntryStore) error {
		state, latest, err := stateOf(ctx, s, userID, req.Date)
		if err != nil {
			return err
		}

		if state != StateOpen {
			comment, err := s.LatestComment(ctx, userID)
			if err != nil {
				return err
			}
			entry := &models.Entry{
				UserID:   userID,
				Date:     req.Date,
				CheckIn:  req.Time,
				Timezone: nilIfEmpty(req.Timezone),
			}
			if err := s.CreateEntry(ctx, entry); err != nil {
				return err
			}
			result = &ToggleResult{Action: ActionCheckIn, Entry: entry, Comment: comment}
			return nil
		}

		latest.CheckOut = &req.Time
		if latest.Timezone == nil {
			latest.Timezone = nilIfEmpty(req.Timezone)
		}
		if err := s.UpdateEntry(ctx, latest); err != nil {
			return err
		}
		minutes, err := DurationMinutes(latest.CheckIn, req.Time)
		if err != nil {
			return err
		}
		result = &ToggleResult{Action: ActionCheckOut, Entry: latest, Duration: FormatDuration(minutes)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// withDefaults fills empty date/time from the engine clock and validates the
// supplied values.
func (e *Engine) withDefaults(req ClockRequest) (ClockRequest, error) {
	now := e.now()
	if req.Date == "" {
		req.Date = now.Format(DateLayout)
	}
	if req.Time == "" {
		req.Time = now.Format(TimeLayout)
	}
	if !ValidDate(req.Date) {
		return req, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrValidation, req.Date)
	}
	if !ValidTime(req.Time) {
		return req, fmt.Errorf("%w: time %q is not HH:MM", ErrValidation, req.Time)
	}
	return req, nil
}

// stateOf derives the lifecycle state through the given store handle, so it
// participates in the caller's lock scope.
func stateOf(ctx context.Context, s store.EntryStore, userID uint, date string) (State, *models.Entry, error) {
	entry, err := s.LatestForDay(ctx, userID, date)
	if errors.Is(err, store.ErrNotFound) {
		return StateNone, nil, nil
	}
	if err != nil {
		return StateNone, nil, err
	}
	if entry.Open() {
		return StateOpen, entry, nil
	}
	return StateNone, entry, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
