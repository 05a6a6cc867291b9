// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Ingestion metrics (per-source scrapes, crawl jobs, upserts, runs)
//   - Scraping vendor request metrics
//   - Translation metrics
//   - Database query metrics
//
// All metrics are registered with the Prometheus default registry and exposed
// via the /metrics endpoint.
//
// Example usage:
//
//	start := time.Now()
//	articles, err := scraper.Scrape(ctx, src)
//	metrics.RecordSourceScrape(src.Name, string(src.Kind), len(articles), time.Since(start), err)
package metrics
