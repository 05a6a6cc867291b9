package metrics

import (
	"time"
)

// RecordSourceScrape records the outcome of harvesting one source.
func RecordSourceScrape(source, kind string, articles int, duration time.Duration, err error) {
	SourceScrapeDuration.WithLabelValues(source, kind).Observe(duration.Seconds())
	if err != nil {
		SourceErrorsTotal.WithLabelValues(source, kind).Inc()
		return
	}
	SourceArticlesTotal.WithLabelValues(source).Add(float64(articles))
}

// RecordCrawlJob records the final state of a vendor crawl job.
func RecordCrawlJob(state string) {
	CrawlJobsTotal.WithLabelValues(state).Inc()
}

// RecordCrawlFallback records a deep crawl degrading to a single-page scrape.
func RecordCrawlFallback(source, reason string) {
	CrawlFallbacksTotal.WithLabelValues(source, reason).Inc()
}

// RecordArticlesInserted records rows written by one upsert chunk.
func RecordArticlesInserted(n int64) {
	if n > 0 {
		ArticlesInsertedTotal.Add(float64(n))
	}
}

// RecordUpsertChunkError records a failed upsert chunk.
func RecordUpsertChunkError() {
	UpsertChunkErrorsTotal.Inc()
}

// RecordIngestRun records a whole ingestion run.
func RecordIngestRun(outcome string, duration time.Duration) {
	IngestRunsTotal.WithLabelValues(outcome).Inc()
	IngestRunDuration.Observe(duration.Seconds())
}

// UpdateArticlesTotal sets the stored article gauge.
func UpdateArticlesTotal(count int64) {
	ArticlesTotal.Set(float64(count))
}

// RecordEnrichment records one enrichment attempt.
func RecordEnrichment(enriched bool) {
	if enriched {
		EnrichmentAttemptsTotal.WithLabelValues("enriched").Inc()
		return
	}
	EnrichmentAttemptsTotal.WithLabelValues("unchanged").Inc()
}

// RecordVendorRequest records one scraping vendor call.
func RecordVendorRequest(endpoint string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	VendorRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	VendorRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordTranslation records one translation request.
func RecordTranslation(backend, outcome string, duration time.Duration) {
	TranslationsTotal.WithLabelValues(backend, outcome).Inc()
	if outcome != "passthrough" {
		TranslationDuration.WithLabelValues(backend).Observe(duration.Seconds())
	}
}

// RecordDBQuery records database query duration.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBreakerState publishes a breaker's state. level follows gobreaker's
// ordering: 0 closed, 1 half-open, 2 open.
func RecordBreakerState(name, to string, level int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(level))
	CircuitBreakerTransitionsTotal.WithLabelValues(name, to).Inc()
}

// RecordRateLimit counts one rate limiter decision.
func RecordRateLimit(limiter, outcome string) {
	RateLimitRequestsTotal.WithLabelValues(limiter, outcome).Inc()
}
