// Package metrics provides Prometheus metrics for the patzer fetch pipeline.
//
// A fetch run can take days; exposing its counters over promhttp lets the
// run be watched without grepping logs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the fetch pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Fetch outcome counters.
	usersFetched  prometheus.Counter
	usersNoData   prometheus.Counter
	usersNotFound prometheus.Counter
	fetchErrors   prometheus.Counter
	rateLimitHits prometheus.Counter
	checkpoints   prometheus.Counter

	// Pipeline state gauges.
	cacheSize   prometheus.Gauge
	pendingSize prometheus.Gauge

	// Request timing.
	requestDuration prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "patzer",
		subsystem:        "fetch",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.usersFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "users_fetched_total",
		Help:      "Users whose puzzle history was retrieved and cached",
	})

	m.usersNoData = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "users_no_data_total",
		Help:      "Users fetched but lacking any puzzle history (negatively cached)",
	})

	m.usersNotFound = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "users_not_found_total",
		Help:      "Usernames the API reported as unknown",
	})

	m.fetchErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Transient per-user fetch failures (not cached, retried on rerun)",
	})

	m.rateLimitHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_limit_hits_total",
		Help:      "Requests that persisted as rate limited after the backoff retry",
	})

	m.checkpoints = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "checkpoints_total",
		Help:      "Cache flushes to disk during the fetch loop",
	})

	m.cacheSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_users",
		Help:      "Users currently held in the performance cache",
	})

	m.pendingSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pending_users",
		Help:      "Sampled users still waiting to be fetched this run",
	})

	m.requestDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of per-user API request duration in seconds",
		Buckets:   m.histogramBuckets,
	})
}

// Package-level helpers operating on the global manager.

// RecordUserFetched counts a user whose history was cached.
func RecordUserFetched() {
	globalManager.usersFetched.Inc()
}

// RecordUserNoData counts a user cached without puzzle history.
func RecordUserNoData() {
	globalManager.usersNoData.Inc()
}

// RecordUserNotFound counts an unknown username.
func RecordUserNotFound() {
	globalManager.usersNotFound.Inc()
}

// RecordFetchError counts a transient per-user failure.
func RecordFetchError() {
	globalManager.fetchErrors.Inc()
}

// RecordRateLimitHit counts a request rejected even after backoff.
func RecordRateLimitHit() {
	globalManager.rateLimitHits.Inc()
}

// RecordCheckpoint counts a cache flush.
func RecordCheckpoint() {
	globalManager.checkpoints.Inc()
}

// UpdateCacheSize sets the cached-user gauge.
func UpdateCacheSize(n int) {
	globalManager.cacheSize.Set(float64(n))
}

// UpdatePendingSize sets the pending-user gauge.
func UpdatePendingSize(n int) {
	globalManager.pendingSize.Set(float64(n))
}

// RecordRequestDuration observes one API request's duration.
func RecordRequestDuration(seconds float64) {
	globalManager.requestDuration.Observe(seconds)
}

// GetRegistry returns the registry backing the global manager, for promhttp
// exposition.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
