package timeclock

import (
	"fmt"
	"regexp"
	"time"
)

const (
	// DateLayout is the calendar-day wire format.
	DateLayout = "2006-01-02"
	// TimeLayout is the time-of-day wire format, 24-hour, no seconds.
	TimeLayout = "15:04"

	minutesPerDay = 24 * 60
)

var timeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidDate reports whether s is a YYYY-MM-DD calendar day.
func ValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}

// ValidTime reports whether s is an HH:MM time of day.
func ValidTime(s string) bool {
	return timeRe.MatchString(s)
}

// ParseMinutes converts an HH:MM string into minutes since midnight.
func ParseMinutes(s string) (int, error) {
	if !ValidTime(s) {
		return 0, fmt.Errorf("%w: time %q is not HH:MM", ErrValidation, s)
	}
	var h, m int
	fmt.Sscanf(s, "%d:%d", &h, &m)
	return h*60 + m, nil
}

// DurationMinutes computes the worked minutes between two HH:MM clock faces.
// A check-out numerically earlier than the check-in is treated as a shift
// that crossed midnight and gains one day.
func DurationMinutes(checkIn, checkOut string) (int, error) {
	in, err := ParseMinutes(checkIn)
	if err != nil {
		return 0, err
	}
	out, err := ParseMinutes(checkOut)
	if err != nil {
		return 0, err
	}
	minutes := out - in
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return minutes, nil
}

// FormatDuration renders minutes as "8h 30m", the interactive format used in
// toggle responses and notifications.
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// FormatClock renders minutes as "8:30", the compact format used in report
// cells and totals.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}
