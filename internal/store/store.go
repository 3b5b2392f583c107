// Package store defines the persistence interfaces consumed by the timeclock
// engine, the report aggregator and the reminder sweep, together with the
// GORM-backed implementation used in production and an in-memory
// implementation used by tests.
package store

import (
	"context"
	"errors"

	"github.com/punchclock/punchclock/internal/models"
)

// ErrNotFound is returned when a requested row does not exist or is owned by
// another user.
var ErrNotFound = errors.New("store: not found")

// EntryStore persists time entries.
type EntryStore interface {
	// LatestForDay returns the most-recently-created entry for (user, date),
	// or ErrNotFound when the day has no entries. All callers derive the
	// day's open/closed state from this single row.
	LatestForDay(ctx context.Context, userID uint, date string) (*models.Entry, error)

	// LatestComment returns the most recent non-empty comment across all of
	// the user's entries, or "" when there is none.
	LatestComment(ctx context.Context, userID uint) (string, error)

	CreateEntry(ctx context.Context, entry *models.Entry) error
	UpdateEntry(ctx context.Context, entry *models.Entry) error

	// GetEntry and DeleteEntry are owner-scoped: an entry belonging to a
	// different user yields ErrNotFound.
	GetEntry(ctx context.Context, userID, entryID uint) (*models.Entry, error)
	DeleteEntry(ctx context.Context, userID, entryID uint) error

	// EntriesInRange returns the user's entries with from <= date <= to,
	// ordered by date then creation time.
	EntriesInRange(ctx context.Context, userID uint, from, to string) ([]models.Entry, error)

	// DateBounds returns the user's earliest and latest entry dates, or
	// ErrNotFound when the user has no entries.
	DateBounds(ctx context.Context, userID uint) (min, max string, err error)

	// UsersWithEntries lists the ids of users with at least one entry in
	// [from, to].
	UsersWithEntries(ctx context.Context, from, to string) ([]uint, error)

	// WithUserLock runs fn under per-user mutual exclusion, so that a
	// read-latest-then-write sequence cannot interleave with another request
	// for the same user. fn receives a store bound to the same lock scope.
	WithUserLock(ctx context.Context, userID uint, fn func(EntryStore) error) error
}

// SettingsStore persists per-user key/value settings.
type SettingsStore interface {
	// Settings returns all stored settings for the user. Missing keys carry
	// their defaults; use reminder helpers on the result rather than reading
	// the map directly.
	Settings(ctx context.Context, userID uint) (map[string]string, error)
	SetSetting(ctx context.Context, userID uint, key, value string) error
}

// SubscriptionStore persists Web Push subscriptions.
type SubscriptionStore interface {
	Subscriptions(ctx context.Context, userID uint) ([]models.Subscription, error)
	// SaveSubscription upserts by endpoint: re-registering an endpoint moves
	// it to the given user and refreshes its keys.
	SaveSubscription(ctx context.Context, sub *models.Subscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// UserStore exposes the user lookups needed outside the auth handlers.
type UserStore interface {
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserIDs(ctx context.Context) ([]uint, error)
}

// ReminderTime returns the user's configured reminder time (HH:MM) from a
// settings map, applying the default when unset.
func ReminderTime(settings map[string]string) string {
	if v, ok := settings[models.SettingReminderTime]; ok && v != "" {
		return v
	}
	return models.DefaultReminderTime
}

// RemindersEnabled reports whether reminders are enabled for a settings map.
// Unset means enabled.
func RemindersEnabled(settings map[string]string) bool {
	v, ok := settings[models.SettingRemindersEnabled]
	if !ok {
		return true
	}
	return v != "false"
}
