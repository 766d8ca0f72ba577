package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics exposes configuration health for one component, with every
// metric name prefixed by the component name (e.g. "worker_config_fallbacks_total").
type ConfigMetrics struct {
	LoadTimestamp         prometheus.Gauge
	ValidationErrorsTotal *prometheus.CounterVec // labels: field
	FallbacksTotal        *prometheus.CounterVec // labels: field
	FallbackActive        prometheus.Gauge       // 1 while any field runs on its default

	componentName string
}

// NewConfigMetrics registers the metrics with the default registry.
// Registering the same componentName twice panics.
func NewConfigMetrics(componentName string) *ConfigMetrics {
	name := func(suffix string) string { return fmt.Sprintf("%s_config_%s", componentName, suffix) }
	return &ConfigMetrics{
		LoadTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: name("load_timestamp"),
			Help: fmt.Sprintf("Unix timestamp of last %s configuration load", componentName),
		}),
		ValidationErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: name("validation_errors_total"),
			Help: fmt.Sprintf("Total number of %s configuration validation errors", componentName),
		}, []string{"field"}),
		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: name("fallbacks_total"),
			Help: fmt.Sprintf("Total number of %s configuration fallback operations", componentName),
		}, []string{"field"}),
		FallbackActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: name("fallback_active"),
			Help: fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", componentName),
		}),
		componentName: componentName,
	}
}

func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback counts a fallback for field. fallbackType is informational only.
func (m *ConfigMetrics) RecordFallback(field, fallbackType string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// SetFallbackActive sets the component-wide gauge; field is ignored.
func (m *ConfigMetrics) SetFallbackActive(field string, active bool) {
	if active {
		m.FallbackActive.Set(1)
		return
	}
	m.FallbackActive.Set(0)
}

// Track records r against field and returns its warnings so callers can
// collect them in one place. A nil receiver only returns the warnings.
func (m *ConfigMetrics) Track(field string, r ConfigLoadResult) []string {
	if m != nil && r.FallbackApplied {
		m.RecordValidationError(field)
		m.RecordFallback(field, "default")
	}
	return r.Warnings
}
