package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minhvh/vieclam/api"
	migrationsfs "github.com/minhvh/vieclam/db"
	"github.com/minhvh/vieclam/internal/application"
	"github.com/minhvh/vieclam/internal/checkin"
	"github.com/minhvh/vieclam/internal/config"
	"github.com/minhvh/vieclam/internal/db"
	"github.com/minhvh/vieclam/internal/jobs"
	"github.com/minhvh/vieclam/internal/policy"
	"github.com/minhvh/vieclam/internal/qualification"
	"github.com/minhvh/vieclam/internal/reliability"
	"github.com/minhvh/vieclam/internal/reminder"
	"github.com/minhvh/vieclam/internal/repository/sqlite"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	api.SetLogger(logger)

	logger.Info("starting vieclam server", "version", version, "build_time", buildTime)

	ctx := context.Background()

	pol, err := policy.Load(ctx, cfg.PolicyPath)
	if err != nil {
		log.Fatalf("Failed to load scoring policy: %v", err)
	}

	database, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Migrate(ctx, database, migrationsfs.Migrations); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	repo := sqlite.New(database, logger)
	ledger := reliability.NewLedger(repo, repo, pol, logger)
	evaluator := qualification.NewEvaluator(pol)
	controller := application.NewController(repo, repo, repo, ledger, evaluator, pol, logger)
	processor := checkin.NewProcessor(repo, repo, repo, ledger, cfg.Geofence.RadiusMeters, logger)

	// background queue: reminder notices go out through here; delivery
	// itself belongs to an external collaborator, so the handler only logs
	queueRepo := jobs.NewRepository(database)
	handlers := map[string]jobs.Handler{
		reminder.JobTypeShiftReminder: func(ctx context.Context, j *jobs.Job) error {
			logger.Info("shift reminder", "payload", string(j.Payload))
			return nil
		},
	}
	pool := jobs.NewWorkerPool(queueRepo, handlers, logger, cfg.WorkerCount)
	pool.Start(ctx)
	defer pool.Stop()

	dispatcher := reminder.NewDispatcher(repo, pool, cfg.ReminderInterval, logger)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	handler := api.SetupRoutes(cfg, version, buildTime, api.Deps{
		Repo:       repo,
		Controller: controller,
		Processor:  processor,
		Ledger:     ledger,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := database.Close(); err != nil {
		logger.Error("closing DB", "err", err)
	}

	logger.Info("server exited")
}
