// Package main is the entry point for the eventhub server. It loads
// configuration, opens the user store, loads the event collection, starts
// the background jobs and serves HTTP until interrupted.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/eventhub/internal/app"
	"github.com/keyxmakerx/eventhub/internal/config"
	"github.com/keyxmakerx/eventhub/internal/database"
	"github.com/keyxmakerx/eventhub/internal/plugins/calendar"
	"github.com/keyxmakerx/eventhub/internal/scheduler"
)

func main() {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	slog.Info("starting eventhub",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("db_driver", cfg.Database.Driver),
	)

	// --- Open User Store ---
	db, err := database.Open(cfg.Database)
	if err != nil {
		slog.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(db, cfg.Database.Driver); err != nil {
		slog.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("database ready")

	// --- Connect to Redis (optional) ---
	// Without Redis, registrations and reminders are only logged.
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = database.NewRedis(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, falling back to log delivery", slog.Any("error", err))
			rdb = nil
		} else {
			defer rdb.Close()
			slog.Info("connected to Redis")
		}
	}

	// --- Create Application ---
	source := calendar.NewFileSource(cfg.Calendar.EventsPath, calendar.ParseOptions{
		Location:          cfg.Calendar.Location,
		RecurrenceHorizon: cfg.Calendar.RecurrenceHorizon,
		RecurrenceLimit:   cfg.Calendar.RecurrenceLimit,
	})

	application, err := app.New(cfg, db, rdb, source)
	if err != nil {
		slog.Error("failed to create application", slog.Any("error", err))
		os.Exit(1)
	}

	// A missing or broken events file is not fatal: the calendar starts
	// empty and the refresh job retries.
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	if err := application.Calendar.Reload(loadCtx); err != nil {
		slog.Error("initial event load failed",
			slog.String("path", cfg.Calendar.EventsPath),
			slog.Any("error", err),
		)
	}
	cancelLoad()

	// Register all routes (public, calendar, auth, dashboard).
	application.RegisterRoutes()

	// --- Background Jobs ---
	sched := scheduler.New(cfg.Calendar.Location)
	for _, job := range application.Jobs() {
		if err := sched.Add(job); err != nil {
			slog.Error("failed to schedule job", slog.String("job", job.Name), slog.Any("error", err))
			os.Exit(1)
		}
	}
	sched.Start()

	// --- Graceful Shutdown ---
	// Listen for interrupt/term signals to drain connections cleanly.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		// Give in-flight requests and running jobs 10 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Echo.Shutdown(ctx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
		if err := sched.Stop(ctx); err != nil {
			slog.Error("background jobs did not stop in time", slog.Any("error", err))
		}
	}()

	// --- Start Server ---
	if err := application.Start(); err != nil {
		// Echo returns http.ErrServerClosed on graceful shutdown, which is expected.
		slog.Info("server stopped", slog.Any("reason", err))
	}
}

// setupLogging configures the global slog logger based on the environment.
// Development uses text format for readability. Production uses JSON for
// structured log aggregation.
func setupLogging(cfg *config.Config) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
