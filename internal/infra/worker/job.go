package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"newsdesk/internal/handler/http/respond"
	"newsdesk/internal/usecase/ingest"
)

// Ingester runs one ingestion pass.
type Ingester interface {
	Run(ctx context.Context, req ingest.Request) (*ingest.Summary, error)
}

// Job is the scheduled ingestion run. A trigger that fires while the
// previous run is still going is skipped.
type Job struct {
	ingester Ingester
	timeout  time.Duration
	metrics  *WorkerMetrics
	logger   *slog.Logger
	running  atomic.Bool
}

// NewJob creates a Job that bounds every run by timeout.
func NewJob(ingester Ingester, timeout time.Duration, metrics *WorkerMetrics, logger *slog.Logger) *Job {
	return &Job{ingester: ingester, timeout: timeout, metrics: metrics, logger: logger}
}

// Run performs one run over every source. It reports whether the run
// actually started.
func (j *Job) Run(ctx context.Context) bool {
	if !j.running.CompareAndSwap(false, true) {
		j.logger.Warn("previous ingestion run still in progress, skipping")
		j.metrics.RecordJobRun("skipped")
		return false
	}
	defer j.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("scheduled ingestion started", slog.Duration("timeout", j.timeout))

	sum, err := j.ingester.Run(ctx, ingest.Request{})
	elapsed := time.Since(start)
	if sum == nil {
		sum = &ingest.Summary{}
	}
	j.metrics.RecordJobDuration(elapsed.Seconds())
	j.metrics.RecordArticlesInserted(sum.Inserted)

	switch {
	case err != nil:
		j.metrics.RecordJobRun("failure")
		j.logger.Error("scheduled ingestion failed",
			slog.String("error", respond.SanitizeError(err)),
			slog.Int64("inserted", sum.Inserted),
			slog.Duration("duration", elapsed))
	case len(sum.Errors) > 0:
		j.metrics.RecordJobRun("partial")
		j.metrics.RecordLastSuccess()
		j.logger.Warn("scheduled ingestion completed with failed sources",
			slog.Int("scraped", sum.Scraped),
			slog.Int64("inserted", sum.Inserted),
			slog.Any("failed_sources", sum.Errors),
			slog.Duration("duration", elapsed))
	default:
		j.metrics.RecordJobRun("success")
		j.metrics.RecordLastSuccess()
		j.logger.Info("scheduled ingestion completed",
			slog.Int("scraped", sum.Scraped),
			slog.Int64("inserted", sum.Inserted),
			slog.Duration("duration", elapsed))
	}
	return true
}
