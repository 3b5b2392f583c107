package main

import (
	"log"

	"github.com/punchclock/punchclock/internal/config"
	"github.com/punchclock/punchclock/internal/database"
	"github.com/punchclock/punchclock/internal/mailer"
	"github.com/punchclock/punchclock/internal/push"
	"github.com/punchclock/punchclock/internal/reminder"
	"github.com/punchclock/punchclock/internal/store"
	"github.com/punchclock/punchclock/internal/worker"
)

// Standalone worker mode: runs the asynq server and scheduler without the
// HTTP frontend, for deployments that separate web and background processing.
func main() {
	cfg := config.Load()

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	st := store.NewGorm(db)
	logger := worker.NewLogger(cfg.LogLevel, cfg.LogFormat)

	pusher := push.NewSender(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubscriber, st, logger)
	if !pusher.Enabled() {
		log.Println("WARNING: VAPID keys not set. Push reminders are disabled.")
	}

	marks, err := reminder.NewRedisMarks(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer marks.Close()

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail, err = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
		if err != nil {
			log.Fatalf("Failed to configure SMTP: %v", err)
		}
	} else {
		log.Println("WARNING: SMTP_HOST not set. Monthly report email is disabled.")
	}

	stopScheduler, err := worker.StartScheduler(cfg)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer stopScheduler()

	// Blocks until shutdown signal.
	if err := worker.Run(cfg, worker.Deps{
		Entries:  st,
		Users:    st,
		Settings: st,
		Pusher:   pusher,
		Marks:    marks,
		Mail:     mail,
	}); err != nil {
		log.Fatalf("Worker error: %v", err)
	}
}
