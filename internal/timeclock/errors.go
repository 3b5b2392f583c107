package timeclock

import "errors"

// Lifecycle errors. All are user-facing and map to rejected operations, not
// server failures.
var (
	// ErrAlreadyClockedIn is returned by a clock-in while the day's latest
	// entry is still open.
	ErrAlreadyClockedIn = errors.New("already clocked in")

	// ErrNotClockedIn is returned by a clock-out when the day has no entries.
	ErrNotClockedIn = errors.New("not clocked in")

	// ErrAlreadyClockedOut is returned by a clock-out when the day's latest
	// entry is already closed.
	ErrAlreadyClockedOut = errors.New("already clocked out")

	// ErrValidation is returned when a supplied date or time does not parse.
	ErrValidation = errors.New("invalid field")
)
