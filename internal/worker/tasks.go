package worker

// Task type constants
const (
	// TaskReminderSweep runs the per-minute clock-out reminder sweep.
	TaskReminderSweep = "reminder:sweep"
	// TaskMonthlyReport emails last month's report to every active user.
	TaskMonthlyReport = "report:monthly"
)

// Cron expressions for the periodic tasks, registered by StartScheduler.
const (
	scheduleReminderSweep = "* * * * *"
	scheduleMonthlyReport = "0 8 1 * *"
)
