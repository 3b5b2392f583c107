package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/punchclock/punchclock/internal/auth"
	"github.com/punchclock/punchclock/internal/config"
	"github.com/punchclock/punchclock/internal/database"
	"github.com/punchclock/punchclock/internal/entries"
	"github.com/punchclock/punchclock/internal/health"
	"github.com/punchclock/punchclock/internal/mailer"
	"github.com/punchclock/punchclock/internal/push"
	"github.com/punchclock/punchclock/internal/reminder"
	"github.com/punchclock/punchclock/internal/report"
	"github.com/punchclock/punchclock/internal/settings"
	"github.com/punchclock/punchclock/internal/store"
	"github.com/punchclock/punchclock/internal/timeclock"
	"github.com/punchclock/punchclock/internal/worker"
)

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
	if cfg.Env == "development" {
		if err := database.SeedDevData(db); err != nil {
			log.Printf("WARNING: failed to seed dev data: %v", err)
		}
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

	auth.InitProviders(cfg)

	deps := worker.Deps{
		Entries:  st,
		Users:    st,
		Settings: st,
		Pusher:   pusher,
		Marks:    marks,
		Mail:     mail,
	}
	stopWorker, err := worker.Start(cfg, deps)
	if err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}
	defer stopWorker()

	stopScheduler, err := worker.StartScheduler(cfg)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer stopScheduler()

	router := newRouter(cfg, db, st, pusher, mail, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func newRouter(cfg *config.Config, db *gorm.DB, st *store.Gorm, pusher *push.Sender, mail mailer.Mailer, logger *slog.Logger) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions("punchclock_session", sessionStore))

	router.GET("/health", gin.WrapF(health.Handler))

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", auth.HandleRegister(db))
		authGroup.POST("/login", auth.HandlePasswordLogin(db))
		authGroup.GET("/google", auth.HandleGoogleLogin)
		authGroup.GET("/google/callback", auth.HandleGoogleCallback(db))
		authGroup.POST("/logout", auth.HandleLogout)
	}

	engine := timeclock.NewEngine(st)

	api := router.Group("/api", auth.RequireAuth())
	{
		api.POST("/clock-in", entries.HandleClockIn(engine))
		api.POST("/clock-out", entries.HandleClockOut(engine))
		api.POST("/toggle", entries.HandleToggle(engine))
		api.GET("/entries", entries.HandleList(st))
		api.PUT("/entries/:id", entries.HandleUpdate(st))
		api.DELETE("/entries/:id", entries.HandleDelete(st))
		api.GET("/export", entries.HandleExport(st))

		api.GET("/settings", settings.HandleGet(st))
		api.PUT("/settings", settings.HandleUpdate(st))
		api.GET("/push/key", settings.HandlePushKey(pusher))
		api.POST("/push/subscribe", settings.HandleSubscribe(st))
		api.DELETE("/push/subscribe", settings.HandleUnsubscribe(st))

		admin := api.Group("/reports", auth.RequireAdmin(db))
		admin.POST("/monthly/run", report.HandleMonthlyRun(report.MonthlyDeps{
			Entries: st,
			Users:   st,
			Mail:    mail,
			Logger:  logger,
		}))
	}

	return router
}
