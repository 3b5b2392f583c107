package timeclock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationMinutes(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  string
		checkOut string
		want     int
	}{
		{"regular day", "09:00", "17:30", 510},
		{"zero length", "09:00", "09:00", 0},
		{"one minute", "23:58", "23:59", 1},
		{"overnight shift gains a day", "22:00", "06:00", 480},
		{"just past midnight", "23:59", "00:01", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DurationMinutes(tt.checkIn, tt.checkOut)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationMinutesRejectsMalformedTimes(t *testing.T) {
	_, err := DurationMinutes("9:00", "17:30")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = DurationMinutes("09:00", "24:00")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "8h 30m", FormatDuration(510))
	assert.Equal(t, "0h 0m", FormatDuration(0))
	assert.Equal(t, "25h 1m", FormatDuration(1501))
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "8:30", FormatClock(510))
	assert.Equal(t, "0:00", FormatClock(0))
	assert.Equal(t, "160:05", FormatClock(9605))
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2026-03-10"))
	assert.False(t, ValidDate("2026-3-10"))
	assert.False(t, ValidDate("2026-02-30"))
	assert.False(t, ValidDate("10.03.2026"))
}
