package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsdesk/internal/app"
	"newsdesk/internal/infra/db"
	workerPkg "newsdesk/internal/infra/worker"
	"newsdesk/internal/observability/logging"
	"newsdesk/internal/observability/tracing"
)

func main() {
	logger := logging.New()
	slog.SetDefault(logger)

	shutdownTracer := tracing.InitTracer("newsdesk-worker")
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// fail-open: 不正な値はデフォルトに置き換わる
	workerMetrics := workerPkg.NewWorkerMetrics()
	cfg := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Duration("ingest_timeout", cfg.IngestTimeout),
		slog.Int("health_port", cfg.HealthPort),
		slog.Bool("run_on_start", cfg.RunOnStart))

	ingestion, err := app.NewIngestion(database, logger)
	if err != nil {
		logger.Error("failed to set up ingestion", slog.Any("error", err))
		os.Exit(1)
	}
	if ingestion.Service == nil {
		logger.Error("FIRECRAWL_API_KEY must be set for the worker")
		os.Exit(1)
	}

	health := workerPkg.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger)
	healthDone := make(chan struct{})
	go func() {
		defer close(healthDone)
		if err := health.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	job := workerPkg.NewJob(ingestion.Service, cfg.IngestTimeout, workerMetrics, logger)
	scheduler, err := workerPkg.NewScheduler(ctx, cfg, job, logger)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	health.SetReady(true)

	if cfg.RunOnStart {
		go job.Run(ctx)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	health.SetReady(false)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		logger.Warn("scheduler did not stop cleanly", slog.Any("error", err))
	}
	<-healthDone
	logger.Info("worker stopped")
}

// initDatabase opens the pool and applies the schema.
func initDatabase(logger *slog.Logger) *sql.DB {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database, err := db.Open(ctx)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(ctx, database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}
