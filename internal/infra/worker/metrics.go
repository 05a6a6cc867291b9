package worker

import (
	"newsdesk/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_cron_job_runs_total",
		Help: "Scheduled ingestion runs by status (success/partial/failure/skipped)",
	}, []string{"status"})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "worker_cron_job_duration_seconds",
		Help:    "Duration of scheduled ingestion runs in seconds",
		Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
	})

	jobArticlesInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worker_cron_job_articles_inserted_total",
		Help: "Articles inserted across all scheduled runs",
	})

	jobLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "worker_cron_job_last_success_timestamp",
		Help: "Unix timestamp of the last successful scheduled run",
	})
)

// WorkerMetrics records scheduled run outcomes and worker config state.
type WorkerMetrics struct {
	*config.ConfigMetrics
}

// NewWorkerMetrics creates the worker recorder.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{ConfigMetrics: config.NewConfigMetrics("worker")}
}

// RecordJobRun counts a run with status.
func (m *WorkerMetrics) RecordJobRun(status string) {
	jobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes a run's duration.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	jobDuration.Observe(seconds)
}

// RecordArticlesInserted adds a run's inserted count.
func (m *WorkerMetrics) RecordArticlesInserted(n int64) {
	if n > 0 {
		jobArticlesInserted.Add(float64(n))
	}
}

// RecordLastSuccess marks now as the last successful run.
func (m *WorkerMetrics) RecordLastSuccess() {
	jobLastSuccess.SetToCurrentTime()
}
