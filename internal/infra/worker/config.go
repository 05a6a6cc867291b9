// Package worker holds the building blocks of the scheduled ingestion
// process: its configuration, the cron job, metrics and a small health
// server for orchestrator probes.
package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsdesk/internal/pkg/config"
)

// WorkerConfig controls the ingestion schedule.
type WorkerConfig struct {
	// CronSchedule is a five-field cron expression (CRON_SCHEDULE).
	CronSchedule string
	// Timezone is the IANA zone the schedule is evaluated in (WORKER_TIMEZONE).
	Timezone string
	// IngestTimeout bounds one scheduled run (INGEST_TIMEOUT, 1m to 4h).
	IngestTimeout time.Duration
	// HealthPort serves /health, /health/ready and /metrics (WORKER_HEALTH_PORT).
	HealthPort int
	// RunOnStart triggers one run right after startup (WORKER_RUN_ON_START).
	RunOnStart bool
}

// DefaultConfig runs every two hours, Beijing time.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:  "0 */2 * * *",
		Timezone:      "Asia/Shanghai",
		IngestTimeout: 30 * time.Minute,
		HealthPort:    9091,
	}
}

// Validate reports every invalid field at once.
func (c *WorkerConfig) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.IngestTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("ingest timeout: %w", err))
	}
	if err := config.ValidatePort(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	return errors.Join(errs...)
}

// Location returns the schedule's time zone, UTC if it cannot be loaded.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv loads the worker configuration. It is fail-open: every
// invalid value is replaced by its default, logged and counted on metrics,
// so the returned configuration is always valid.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	m := metrics.ConfigMetrics

	cfg.CronSchedule = config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule,
		config.ValidateCronSchedule).Report(logger, m, "cron_schedule")

	cfg.Timezone = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone,
		config.ValidateTimezone).Report(logger, m, "timezone")

	cfg.IngestTimeout = config.LoadEnvDuration("INGEST_TIMEOUT", cfg.IngestTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Minute, 4*time.Hour)
	}).Report(logger, m, "ingest_timeout")

	cfg.HealthPort = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort,
		config.ValidatePort).Report(logger, m, "health_port")

	cfg.RunOnStart = config.LoadEnvBool("WORKER_RUN_ON_START", cfg.RunOnStart).Report(logger, m, "run_on_start")

	m.RecordLoadTimestamp()
	return &cfg
}
