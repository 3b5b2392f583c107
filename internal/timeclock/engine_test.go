package timeclock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchclock/punchclock/internal/store"
)

func fixedClock(date, hhmm string) func() time.Time {
	t, _ := time.Parse(DateLayout+" "+TimeLayout, date+" "+hhmm)
	return func() time.Time { return t }
}

func newTestEngine() (*Engine, *store.Memory) {
	mem := store.NewMemory()
	return NewEngine(mem).WithClock(fixedClock("2026-03-10", "09:00")), mem
}

func TestClockInOpensDay(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	entry, err := engine.ClockIn(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "09:00", Timezone: "Europe/Berlin"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", entry.Date)
	assert.Equal(t, "09:00", entry.CheckIn)
	assert.Nil(t, entry.CheckOut)
	require.NotNil(t, entry.Timezone)
	assert.Equal(t, "Europe/Berlin", *entry.Timezone)

	state, _, err := engine.State(ctx, 1, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, StateOpen, state)
}

func TestClockInTwiceFails(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.ClockIn(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "09:00"})
	require.NoError(t, err)

	_, err = engine.ClockIn(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "09:05"})
	assert.ErrorIs(t, err, ErrAlreadyClockedIn)
}

func TestClockOutWithoutEntryFails(t *testing.T) {
	engine, _ := newTestEngine()

	_, err := engine.ClockOut(context.Background(), 1, ClockRequest{Date: "2026-03-10", Time: "17:30"})
	assert.ErrorIs(t, err, ErrNotClockedIn)
}

func TestClockOutTwiceFails(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.ClockIn(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "09:00"})
	require.NoError(t, err)
	_, err = engine.ClockOut(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "17:30"})
	require.NoError(t, err)

	_, err = engine.ClockOut(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "18:00"})
	assert.ErrorIs(t, err, ErrAlreadyClockedOut)
}

func TestClockOutKeepsFirstTimezone(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.ClockIn(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "09:00", Timezone: "Europe/Berlin"})
	require.NoError(t, err)

	entry, err := engine.ClockOut(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "17:30", Timezone: "America/New_York"})
	require.NoError(t, err)
	require.NotNil(t, entry.Timezone)
	assert.Equal(t, "Europe/Berlin", *entry.Timezone)
}

func TestClockOutFillsMissingTimezone(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.ClockIn(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "09:00"})
	require.NoError(t, err)

	entry, err := engine.ClockOut(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "17:30", Timezone: "America/New_York"})
	require.NoError(t, err)
	require.NotNil(t, entry.Timezone)
	assert.Equal(t, "America/New_York", *entry.Timezone)
}

func TestClockRequestDefaultsToWallClock(t *testing.T) {
	engine, _ := newTestEngine()

	entry, err := engine.ClockIn(context.Background(), 1, ClockRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", entry.Date)
	assert.Equal(t, "09:00", entry.CheckIn)
}

func TestClockInRejectsMalformedFields(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.ClockIn(ctx, 1, ClockRequest{Date: "10.03.2026", Time: "09:00"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = engine.ClockIn(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "9am"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestToggleCycle(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	first, err := engine.Toggle(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, ActionCheckIn, first.Action)

	second, err := engine.Toggle(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "17:30"})
	require.NoError(t, err)
	assert.Equal(t, ActionCheckOut, second.Action)
	assert.Equal(t, "8h 30m", second.Duration)

	state, _, err := engine.State(ctx, 1, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, StateNone, state)
}

func TestToggleCarriesOverLastComment(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.ClockIn(ctx, 1, ClockRequest{Date: "2026-03-09", Time: "08:00"})
	require.NoError(t, err)
	_, err = engine.ClockOut(ctx, 1, ClockRequest{Date: "2026-03-09", Time: "16:00", Comment: "support shift"})
	require.NoError(t, err)

	result, err := engine.Toggle(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, ActionCheckIn, result.Action)
	assert.Equal(t, "support shift", result.Comment)
}

func TestToggleSupportsMultipleShiftsPerDay(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	for _, times := range [][2]string{{"06:00", "10:00"}, {"14:00", "18:00"}} {
		in, err := engine.Toggle(ctx, 1, ClockRequest{Date: "2026-03-10", Time: times[0]})
		require.NoError(t, err)
		require.Equal(t, ActionCheckIn, in.Action)

		out, err := engine.Toggle(ctx, 1, ClockRequest{Date: "2026-03-10", Time: times[1]})
		require.NoError(t, err)
		require.Equal(t, ActionCheckOut, out.Action)
		assert.Equal(t, "4h 0m", out.Duration)
	}
}

// Two concurrent toggles for the same (user, date) in NONE state must produce
// exactly one open entry: one caller wins the check-in, the other observes the
// open entry and closes it.
func TestConcurrentToggleOpensOnce(t *testing.T) {
	engine, mem := newTestEngine()
	ctx := context.Background()

	const attempts = 20
	for i := 0; i < attempts; i++ {
		var wg sync.WaitGroup
		results := make([]*ToggleResult, 2)
		errs := make([]error, 2)
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				results[j], errs[j] = engine.Toggle(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "09:00"})
			}(j)
		}
		wg.Wait()

		actions := map[string]int{}
		for j, res := range results {
			require.NoError(t, errs[j])
			actions[res.Action]++
		}
		require.Equal(t, 1, actions[ActionCheckIn], "attempt %d double-opened the day", i)
		require.Equal(t, 1, actions[ActionCheckOut], "attempt %d", i)

		state, _, err := engine.State(ctx, 1, "2026-03-10")
		require.NoError(t, err)
		require.Equal(t, StateNone, state)

		// Reset for the next attempt.
		entries, err := mem.EntriesInRange(ctx, 1, "2026-03-10", "2026-03-10")
		require.NoError(t, err)
		for _, e := range entries {
			require.NoError(t, mem.DeleteEntry(ctx, 1, e.ID))
		}
	}
}

func TestConcurrentClockInOpensOnce(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.ClockIn(ctx, 1, ClockRequest{Date: "2026-03-10", Time: "09:00"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyClockedIn)
		}
	}
	assert.Equal(t, 1, succeeded)
}
