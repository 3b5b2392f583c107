package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/punchclock/punchclock/internal/config"
	"github.com/punchclock/punchclock/internal/mailer"
	"github.com/punchclock/punchclock/internal/reminder"
	"github.com/punchclock/punchclock/internal/report"
	"github.com/punchclock/punchclock/internal/store"
)

// Deps bundles the collaborators the task handlers need.
type Deps struct {
	Entries  store.EntryStore
	Users    store.UserStore
	Settings store.SettingsStore
	Pusher   reminder.Pusher
	Marks    reminder.Marks
	Mail     mailer.Mailer
}

// Run starts the Asynq worker server and blocks until shutdown signal.
// Use this for standalone worker mode.
func Run(cfg *config.Config, deps Deps) error {
	srv, mux, err := newServer(cfg, deps)
	if err != nil {
		return err
	}

	// Note: Scheduler is started separately in main.go worker mode
	// and deferred there for shutdown coordination.
	// Run blocks and handles its own signal interception
	return srv.Run(mux)
}

// Start starts the Asynq worker in non-blocking mode and returns a stop function.
// Use this for embedded mode so the caller can coordinate shutdown.
func Start(cfg *config.Config, deps Deps) (stop func(), err error) {
	srv, mux, err := newServer(cfg, deps)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, deps Deps) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := NewLogger(cfg.LogLevel, cfg.LogFormat)

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     5,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	sweeper := reminder.NewSweeper(deps.Users, deps.Settings, deps.Entries, deps.Marks, deps.Pusher, logger)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskReminderSweep, handleReminderSweep(logger, sweeper))
	mux.HandleFunc(TaskMonthlyReport, handleMonthlyReport(logger, deps))

	logger.Info("Worker starting", "concurrency", 5, "redis", cfg.RedisURL)
	return srv, mux, nil
}

// handleReminderSweep runs one pass of the clock-out reminder sweep. Errors
// inside the sweep are per-user and already logged there; only a failure to
// list users at all reaches asynq and is retried on the next tick.
func handleReminderSweep(logger *slog.Logger, sweeper *reminder.Sweeper) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		notified, err := sweeper.Sweep(ctx)
		if err != nil {
			return fmt.Errorf("reminder sweep failed: %w", err)
		}
		if notified > 0 {
			logger.Info("Reminder sweep finished", "notified", notified)
		}
		return nil
	}
}

// handleMonthlyReport emails last month's report to every user who tracked
// time in it. Per-user failures are isolated inside the run.
func handleMonthlyReport(logger *slog.Logger, deps Deps) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		result, err := report.RunMonthlyEmail(ctx, report.MonthlyDeps{
			Entries: deps.Entries,
			Users:   deps.Users,
			Mail:    deps.Mail,
			Logger:  logger,
		}, time.Now())
		if err != nil {
			return fmt.Errorf("monthly report run failed: %w", err)
		}
		logger.Info(
			"Monthly report task finished",
			"month", result.Month,
			"sent", result.Sent,
			"skipped", result.Skipped,
		)
		return nil
	}
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		if retried >= maxRetry {
			logger.Error(
				"Task moved to dead letter queue (all retries exhausted)",
				"task_type", task.Type(),
				"payload", string(task.Payload()),
			)
		}
	}
}
