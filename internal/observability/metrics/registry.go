// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Ingestion metrics
var (
	// SourceScrapeDuration measures the time to harvest one source
	SourceScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_source_duration_seconds",
			Help:    "Time taken to harvest one source",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"source", "kind"},
	)

	// SourceArticlesTotal counts candidate articles produced per source
	SourceArticlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_source_articles_total",
			Help: "Total number of candidate articles produced per source",
		},
		[]string{"source"},
	)

	// SourceErrorsTotal counts sources that failed during a run
	SourceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_source_errors_total",
			Help: "Total number of failed source harvests",
		},
		[]string{"source", "kind"},
	)

	// CrawlJobsTotal counts deep-crawl jobs by their final state
	CrawlJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_crawl_jobs_total",
			Help: "Total number of vendor crawl jobs by final state",
		},
		[]string{"state"},
	)

	// CrawlFallbacksTotal counts deep crawls that degraded to a single-page scrape
	CrawlFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_crawl_fallbacks_total",
			Help: "Total number of deep crawls that fell back to a single-page scrape",
		},
		[]string{"source", "reason"},
	)

	// ArticlesInsertedTotal counts rows actually written to the article store
	ArticlesInsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_articles_inserted_total",
			Help: "Total number of new articles written to the store",
		},
	)

	// UpsertChunkErrorsTotal counts failed upsert chunks
	UpsertChunkErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_upsert_chunk_errors_total",
			Help: "Total number of article upsert chunks that failed",
		},
	)

	// IngestRunsTotal counts ingestion runs by outcome (success, partial, failed)
	IngestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_runs_total",
			Help: "Total number of ingestion runs by outcome",
		},
		[]string{"outcome"},
	)

	// IngestRunDuration measures whole ingestion runs
	IngestRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_run_duration_seconds",
			Help:    "Time taken by a whole ingestion run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// ArticlesTotal tracks the number of stored articles
	ArticlesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "articles_total",
			Help: "Total number of articles in the database",
		},
	)

	// EnrichmentAttemptsTotal counts page enrichment attempts by result
	EnrichmentAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_enrichment_attempts_total",
			Help: "Total number of article page enrichment attempts",
		},
		[]string{"result"}, // result: enriched, unchanged
	)
)

// Vendor metrics
var (
	// VendorRequestsTotal counts scraping vendor calls by endpoint and outcome
	VendorRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firecrawl_requests_total",
			Help: "Total number of scraping vendor requests",
		},
		[]string{"endpoint", "outcome"},
	)

	// VendorRequestDuration measures scraping vendor calls including retries
	VendorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "firecrawl_request_duration_seconds",
			Help:    "Scraping vendor request duration including retries",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"endpoint"},
	)
)

// Translation metrics
var (
	// TranslationsTotal counts translation requests by backend and outcome
	TranslationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translations_total",
			Help: "Total number of translation requests",
		},
		[]string{"backend", "outcome"}, // outcome: translated, passthrough, degraded
	)

	// TranslationDuration measures backend translation calls
	TranslationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "translation_duration_seconds",
			Help:    "Time taken by a translation backend",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"backend"},
	)
)

// Database metrics
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Resilience metrics
var (
	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state per upstream (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitionsTotal counts state changes by target state
	CircuitBreakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions by target state",
		},
		[]string{"name", "to"},
	)
)

// RateLimitRequestsTotal counts per-client rate limit decisions
var RateLimitRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rate_limit_requests_total",
		Help: "Rate limiter decisions by limiter and outcome (allowed, denied, unresolved)",
	},
	[]string{"limiter", "outcome"},
)
