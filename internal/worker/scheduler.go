package worker

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/punchclock/punchclock/internal/config"
)

// StartScheduler creates and starts an Asynq Scheduler for the periodic
// tasks: the per-minute reminder sweep and the monthly report mailing on the
// first of each month at 08:00. The Unique option keeps duplicate timers
// (two processes running the scheduler) from enqueueing the same tick twice.
// Returns a stop function for graceful shutdown.
func StartScheduler(cfg *config.Config) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := NewLogger(cfg.LogLevel, cfg.LogFormat)

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: logger},
		},
	)

	sweep := asynq.NewTask(
		TaskReminderSweep,
		nil, // Empty payload - the sweep queries all users
		asynq.MaxRetry(0), // A failed sweep is superseded by the next tick
		asynq.Timeout(50*time.Second),
		asynq.Unique(time.Minute),
	)
	if _, err := scheduler.Register(scheduleReminderSweep, sweep); err != nil {
		return nil, fmt.Errorf("failed to register reminder sweep: %w", err)
	}

	monthly := asynq.NewTask(
		TaskMonthlyReport,
		nil,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute), // Longer timeout for processing all users
		asynq.Retention(24*time.Hour),
		asynq.Unique(24*time.Hour), // Prevent duplicate if scheduler runs twice
	)
	if _, err := scheduler.Register(scheduleMonthlyReport, monthly); err != nil {
		return nil, fmt.Errorf("failed to register monthly report: %w", err)
	}

	// Start scheduler (non-blocking)
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info(
		"Scheduler started",
		"reminder_schedule", scheduleReminderSweep,
		"report_schedule", scheduleMonthlyReport,
	)

	return func() { scheduler.Shutdown() }, nil
}
