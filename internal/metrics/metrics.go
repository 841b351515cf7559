package metrics

import (
	"sync"
	"time"

	"github.com/go-authgate/dirgate/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the metrics sink used across the application.
type Recorder = core.Recorder

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Directory Metrics
	DirectoryOperationsTotal   *prometheus.CounterVec
	DirectoryOperationDuration *prometheus.HistogramVec

	// Authentication Metrics
	AuthAttemptsTotal *prometheus.CounterVec
	AuthDuration      *prometheus.HistogramVec

	// Modification Metrics
	ModificationStepsTotal *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	return GetMetrics()
}

// GetMetrics returns the process-wide Prometheus metrics, registering them on first use.
func GetMetrics() *Metrics {
	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		DirectoryOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "directory_operations_total",
				Help: "Total number of directory backend operations",
			},
			[]string{"backend", "operation", "result"}, // result: success or failure kind
		),
		DirectoryOperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "directory_operation_duration_seconds",
				Help:    "Time taken by directory backend operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),

		AuthAttemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_attempts_total",
				Help: "Total number of authentication attempts",
			},
			[]string{"backend", "result"},
		),
		AuthDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_duration_seconds",
				Help:    "Time taken to resolve a principal",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),

		ModificationStepsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "directory_modification_steps_total",
				Help: "Total number of orchestrated modification steps",
			},
			[]string{"step", "result"}, // success, failure
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
	}
}

// RecordDirectoryOperation records one backend call
func (m *Metrics) RecordDirectoryOperation(
	backend, operation, result string,
	duration time.Duration,
) {
	m.DirectoryOperationsTotal.WithLabelValues(backend, operation, result).Inc()
	m.DirectoryOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordAuthAttempt records one principal resolution
func (m *Metrics) RecordAuthAttempt(backend, result string, duration time.Duration) {
	m.AuthAttemptsTotal.WithLabelValues(backend, result).Inc()
	m.AuthDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordModificationStep records an orchestrator step outcome
func (m *Metrics) RecordModificationStep(step string, success bool) {
	result := resultSuccess
	if !success {
		result = resultFailure
	}
	m.ModificationStepsTotal.WithLabelValues(step, result).Inc()
}
