package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"lesnouvelles-feed/internal/pkg/config"
)

// WorkerMetrics holds the scheduler metrics, labelled by pass, next to the
// worker_config_* metrics of the embedded ConfigMetrics.
//
// NewWorkerMetrics registers with the default registry and panics when
// called twice in one process.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// JobRunsTotal labels: pass, status (started, success, failure, skipped).
	JobRunsTotal *prometheus.CounterVec

	// JobDurationSeconds labels: pass.
	JobDurationSeconds *prometheus.HistogramVec

	// JobItemsTotal counts the items a pass handled. Labels: pass.
	JobItemsTotal *prometheus.CounterVec

	// JobLastSuccessTimestamp labels: pass.
	JobLastSuccessTimestamp *prometheus.GaugeVec
}

// NewWorkerMetrics creates and registers the worker metrics.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_job_runs_total",
			Help: "Total number of pass runs by pass and status",
		}, []string{"pass", "status"}),

		JobDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of pass runs in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800}, // 1s, 5s, 30s, 1m, 5m, 15m, 30m
		}, []string{"pass"}),

		JobItemsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_job_items_total",
			Help: "Total number of items handled by pass runs",
		}, []string{"pass"}),

		JobLastSuccessTimestamp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run of each pass",
		}, []string{"pass"}),
	}
}

// RecordJobRun counts a run of pass with status.
func (m *WorkerMetrics) RecordJobRun(pass, status string) {
	m.JobRunsTotal.WithLabelValues(pass, status).Inc()
}

// RecordJobDuration observes the duration of a run, in seconds.
func (m *WorkerMetrics) RecordJobDuration(pass string, seconds float64) {
	m.JobDurationSeconds.WithLabelValues(pass).Observe(seconds)
}

// RecordItems adds the items a run handled.
func (m *WorkerMetrics) RecordItems(pass string, n int) {
	m.JobItemsTotal.WithLabelValues(pass).Add(float64(n))
}

// RecordLastSuccess stamps the current time as the last success of pass.
func (m *WorkerMetrics) RecordLastSuccess(pass string) {
	m.JobLastSuccessTimestamp.WithLabelValues(pass).SetToCurrentTime()
}
