package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/punchclock/punchclock/internal/mailer"
	"github.com/punchclock/punchclock/internal/store"
	"github.com/punchclock/punchclock/internal/timeclock"
)

// MonthlyDeps are the collaborators of the monthly email run.
type MonthlyDeps struct {
	Entries store.EntryStore
	Users   store.UserStore
	Mail    mailer.Mailer
	Logger  *slog.Logger
}

// MonthlyResult counts the outcome of one monthly run, surfaced to manual
// triggers.
type MonthlyResult struct {
	Month   string `json:"month"`
	Sent    int    `json:"sent"`
	Skipped int    `json:"skipped"`
}

// RunMonthlyEmail builds last month's report for every user with at least one
// entry in that month and emails it as a spreadsheet attachment. Per-user
// failures (no email on file, render or send error) are logged and counted as
// skipped; they never abort the run for other users.
func RunMonthlyEmail(ctx context.Context, deps MonthlyDeps, now time.Time) (*MonthlyResult, error) {
	month := MonthOf(now.AddDate(0, -1, 0))
	result := &MonthlyResult{Month: month.String()}
	// Correlates the per-user warnings of one run across interleaved workers.
	log := deps.Logger.With("run_id", uuid.NewString())

	from := month.Date().Format(timeclock.DateLayout)
	to := month.Date().AddDate(0, 1, -1).Format(timeclock.DateLayout)
	userIDs, err := deps.Entries.UsersWithEntries(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list users for %s: %w", month, err)
	}

	for _, userID := range userIDs {
		if err := emailUserReport(ctx, deps, userID, month); err != nil {
			log.Warn("Monthly report skipped",
				"user_id", userID,
				"month", month.String(),
				"error", err.Error(),
			)
			result.Skipped++
			continue
		}
		result.Sent++
	}

	log.Info("Monthly report run finished",
		"month", month.String(),
		"sent", result.Sent,
		"skipped", result.Skipped,
	)
	return result, nil
}

func emailUserReport(ctx context.Context, deps MonthlyDeps, userID uint, month Month) error {
	if deps.Mail == nil {
		return fmt.Errorf("mail delivery is not configured")
	}
	user, err := deps.Users.UserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user.Email == nil || *user.Email == "" {
		return fmt.Errorf("no email address on file")
	}

	rep, err := Build(ctx, deps.Entries, userID, month, month)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	content, err := ToXLSX(rep)
	if err != nil {
		return fmt.Errorf("failed to render spreadsheet: %w", err)
	}

	total := "0:00"
	if len(rep.Months) > 0 {
		total = rep.Months[0].Total
	}
	subject := fmt.Sprintf("Time report %s", month)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>attached is your time report for %s. Total tracked: <strong>%s</strong>.</p>",
		user.Username, month, total,
	)
	attachment := &mailer.Attachment{
		Filename: fmt.Sprintf("report-%s.xlsx", month.Date().Format("2006-01")),
		Content:  content,
	}
	return deps.Mail.Send(*user.Email, subject, body, attachment)
}
