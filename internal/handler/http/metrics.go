package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsdesk/internal/observability/metrics"
)

// knownPaths are the only path label values; anything else is "other" so
// scanners cannot blow up label cardinality.
var knownPaths = map[string]bool{
	"/functions/v1/fetch-news":     true,
	"/functions/v1/translate-news": true,
	"/health":                      true,
	"/health/live":                 true,
	"/metrics":                     true,
}

func pathLabel(p string) string {
	if knownPaths[p] {
		return p
	}
	return "other"
}

// MetricsMiddleware records request counts and latency per method, path and status.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := newStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(rec, r)

		path := pathLabel(r.URL.Path)
		status := strconv.Itoa(rec.status)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

// MetricsHandler serves the Prometheus metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
