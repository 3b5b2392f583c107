// Package reminder decides who gets the "still clocked in" push notification
// on each sweep of the per-minute schedule.
package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/punchclock/punchclock/internal/push"
	"github.com/punchclock/punchclock/internal/store"
	"github.com/punchclock/punchclock/internal/timeclock"
)

// Pusher is the slice of push.Sender the sweep needs.
type Pusher interface {
	NotifyUser(ctx context.Context, userID uint, payload push.Payload) (int, error)
}

// Marks records which users were already reminded on a given day, so a sweep
// that runs late (or twice, when the process is scaled out) never sends a
// second reminder.
type Marks interface {
	// MarkSent records the reminder for (user, date) and reports whether this
	// call was the first to do so.
	MarkSent(ctx context.Context, userID uint, date string) (bool, error)

	// Clear releases the (user, date) marker again, so a sweep whose push
	// delivery failed can hand the day back to a later tick.
	Clear(ctx context.Context, userID uint, date string) error
}

// Sweeper walks all users once per schedule tick. A user is due when
// reminders are enabled, the configured time has passed on the current day,
// today's latest entry is still open and no reminder went out today yet.
// "Has passed" rather than exact-minute matching means a missed tick is
// caught up by the next one instead of silently skipping the day.
type Sweeper struct {
	users    store.UserStore
	settings store.SettingsStore
	engine   *timeclock.Engine
	marks    Marks
	pusher   Pusher
	logger   *slog.Logger
	now      func() time.Time
}

// NewSweeper wires a sweeper over the given collaborators.
func NewSweeper(users store.UserStore, settings store.SettingsStore, entries store.EntryStore, marks Marks, pusher Pusher, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		users:    users,
		settings: settings,
		engine:   timeclock.NewEngine(entries),
		marks:    marks,
		pusher:   pusher,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the sweeper's wall clock. Test helper.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Sweep runs one pass and returns how many users were notified. Per-user
// failures are logged and skipped; only listing the users at all can fail.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	date := now.Format(timeclock.DateLayout)
	clock := now.Format(timeclock.TimeLayout)

	userIDs, err := s.users.UserIDs(ctx)
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, userID := range userIDs {
		due, err := s.due(ctx, userID, date, clock)
		if err != nil {
			s.logger.Warn("Reminder check failed", "user_id", userID, "error", err.Error())
			continue
		}
		if !due {
			continue
		}

		first, err := s.marks.MarkSent(ctx, userID, date)
		if err != nil {
			s.logger.Warn("Reminder mark failed", "user_id", userID, "error", err.Error())
			continue
		}
		if !first {
			continue
		}

		sent, err := s.pusher.NotifyUser(ctx, userID, push.Payload{
			Title: "Still clocked in",
			Body:  "You are still clocked in. Don't forget to clock out.",
			Tag:   "clock-out-reminder",
		})
		if err != nil || sent == 0 {
			if err != nil {
				s.logger.Warn("Reminder push failed", "user_id", userID, "error", err.Error())
			}
			// Nothing reached the user; release the marker so a later tick
			// retries once delivery becomes possible.
			if clearErr := s.marks.Clear(ctx, userID, date); clearErr != nil {
				s.logger.Warn("Reminder mark release failed", "user_id", userID, "error", clearErr.Error())
			}
			continue
		}
		s.logger.Info("Reminder sent", "user_id", userID, "subscriptions", sent)
		notified++
	}
	return notified, nil
}

func (s *Sweeper) due(ctx context.Context, userID uint, date, clock string) (bool, error) {
	settings, err := s.settings.Settings(ctx, userID)
	if err != nil {
		return false, err
	}
	if !store.RemindersEnabled(settings) {
		return false, nil
	}
	if clock < store.ReminderTime(settings) {
		return false, nil
	}

	state, _, err := s.engine.State(ctx, userID, date)
	if err != nil {
		return false, err
	}
	return state == timeclock.StateOpen, nil
}
