// Package metrics provides Prometheus metrics for the gauntlet leaderboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Leaderboard business metrics
	entriesSubmitted   prometheus.Counter
	validationFailures *prometheus.CounterVec
	resets             prometheus.Counter
	entriesDeleted     prometheus.Counter
	entriesTotal       prometheus.Gauge
	ready              prometheus.Gauge

	// Storage metrics
	storageLatency *prometheus.HistogramVec
	storageErrors  *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	panicsRecovered     prometheus.Counter

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // service metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gauntlet",
		subsystem:        "leaderboard",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval returns how often periodic gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.entriesSubmitted = auto.NewCounter(m.counterOpts("entries_submitted_total",
		"Total number of leaderboard entries stored"))
	m.validationFailures = auto.NewCounterVec(m.counterOpts("validation_failures_total",
		"Submissions rejected by validation, by reason"), []string{"reason"})
	m.resets = auto.NewCounter(m.counterOpts("resets_total",
		"Total number of leaderboard resets"))
	m.entriesDeleted = auto.NewCounter(m.counterOpts("entries_deleted_total",
		"Total number of entries removed by resets"))
	m.entriesTotal = auto.NewGauge(m.gaugeOpts("entries",
		"Current number of stored entries"))
	m.ready = auto.NewGauge(m.gaugeOpts("storage_ready",
		"1 when storage is initialized and serving, 0 otherwise"))

	m.storageLatency = auto.NewHistogramVec(m.histogramOpts("storage_latency_milliseconds",
		"Storage call latency in milliseconds, by operation"), []string{"op"})
	m.storageErrors = auto.NewCounterVec(m.counterOpts("storage_errors_total",
		"Storage call failures, by operation"), []string{"op"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by route, method and status"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("http_errors_total",
		"HTTP error responses by route, method and error type"),
		[]string{"endpoint", "method", "error_type"})
	m.panicsRecovered = auto.NewCounter(m.counterOpts("panics_recovered_total",
		"Handler panics recovered by the HTTP middleware"))

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes",
		"Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines",
		"Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds",
		"Average GC pause in milliseconds"))
}

// RecordEntrySubmitted increments the stored entries counter.
func RecordEntrySubmitted() {
	globalManager.entriesSubmitted.Inc()
}

// RecordValidationFailure counts a rejected submission.
func RecordValidationFailure(reason string) {
	globalManager.validationFailures.WithLabelValues(reason).Inc()
}

// RecordReset counts a reset and the rows it removed.
func RecordReset(deleted int64) {
	globalManager.resets.Inc()
	globalManager.entriesDeleted.Add(float64(deleted))
}

// UpdateEntriesTotal sets the stored entries gauge.
func UpdateEntriesTotal(count int) {
	globalManager.entriesTotal.Set(float64(count))
}

// UpdateReady sets the readiness gauge.
func UpdateReady(ready bool) {
	if ready {
		globalManager.ready.Set(1)
		return
	}
	globalManager.ready.Set(0)
}

// RecordStorageLatency records a storage call latency in milliseconds.
func RecordStorageLatency(op string, latencyMs float64) {
	globalManager.storageLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStorageError counts a failed storage call.
func RecordStorageError(op string) {
	globalManager.storageErrors.WithLabelValues(op).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordPanicRecovered counts a recovered handler panic.
func RecordPanicRecovered() {
	globalManager.panicsRecovered.Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RefreshInterval returns the refresh interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Default returns the process-wide manager.
func Default() *Manager {
	return globalManager
}
