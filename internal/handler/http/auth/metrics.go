package auth

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// authRequestsTotal counts bearer token checks by result.
var authRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_requests_total",
		Help: "Total authentication checks by result",
	},
	[]string{"result"}, // result: success | missing | invalid
)

// RecordAuthRequest records one authentication check.
func RecordAuthRequest(result string) {
	authRequestsTotal.WithLabelValues(result).Inc()
}

func resultFor(err error) string {
	if errors.Is(err, ErrMissingToken) {
		return "missing"
	}
	return "invalid"
}
