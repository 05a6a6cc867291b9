package config

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config metrics are shared by every component and labelled by it, so a
// component may create its ConfigMetrics more than once.
var (
	loadTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "config_load_timestamp_seconds",
		Help: "Unix timestamp of the last configuration load",
	}, []string{"component"})

	validationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "config_validation_errors_total",
		Help: "Configuration values rejected by validation",
	}, []string{"component", "field"})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "config_fallbacks_total",
		Help: "Configuration fallbacks by field and fallback type",
	}, []string{"component", "field", "type"})

	fallbackActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "config_fallback_active",
		Help: "1 if any configuration fallback is active for the component",
	}, []string{"component"})
)

// ConfigMetrics records configuration state for one component.
type ConfigMetrics struct {
	component string

	mu     sync.Mutex
	active map[string]bool
}

// NewConfigMetrics creates the recorder for component ("worker", "ingest", ...).
func NewConfigMetrics(component string) *ConfigMetrics {
	return &ConfigMetrics{component: component, active: make(map[string]bool)}
}

// RecordLoadTimestamp marks a completed load.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	loadTimestamp.WithLabelValues(m.component).SetToCurrentTime()
}

// RecordValidationError counts a rejected value for field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	validationErrorsTotal.WithLabelValues(m.component, field).Inc()
}

// RecordFallback counts a fallback of kind fallbackType ("default", ...) for field.
func (m *ConfigMetrics) RecordFallback(field, fallbackType string) {
	fallbacksTotal.WithLabelValues(m.component, field, fallbackType).Inc()
}

// SetFallbackActive marks field as running on a fallback. The component
// gauge is 1 while any field is.
func (m *ConfigMetrics) SetFallbackActive(field string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if active {
		m.active[field] = true
	} else {
		delete(m.active, field)
	}
	v := 0.0
	if len(m.active) > 0 {
		v = 1
	}
	fallbackActive.WithLabelValues(m.component).Set(v)
}
