// Package observability provides the logging, metrics and tracing infrastructure
// shared by the API server, the worker and the operator CLI.
//
// Subpackages:
//   - logging: slog JSON logger with request-id propagation
//   - metrics: Prometheus metrics for HTTP, ingestion, vendor and translation calls
//   - tracing: OpenTelemetry tracer access and HTTP middleware
//
// Example usage:
//
//	import (
//	    "newsdesk/internal/observability/logging"
//	    "newsdesk/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started")
//
//	    metrics.RecordSourceScrape("BBC World", "generic", 12, time.Second, nil)
//	}
package observability
