// Package metrics provides Prometheus metrics for the review desk service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exposes.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Core review flow
	assignments     *prometheus.CounterVec
	verdicts        *prometheus.CounterVec
	verdictRejects  *prometheus.CounterVec
	sessionsExpired prometheus.Counter
	releasedItems   prometheus.Counter
	registrations   prometheus.Counter
	catalogFinished prometheus.Counter
	resets          prometheus.Counter

	// Progress gauges
	catalogSize      prometheus.Gauge
	assignedItems    prometheus.Gauge
	completedItems   *prometheus.GaugeVec
	activeSessions   prometheus.Gauge
	leaderboardUsers prometheus.Gauge
	cursorPosition   prometheus.Gauge

	// Persistence
	persistLatency  *prometheus.HistogramVec
	persistFailures *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter
	duplicateRequests   prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "reviewdesk",
		subsystem:        "review",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.assignments = m.counterVec("assignments_total",
		"Items handed to holders, by kind (current or preload)", "kind")
	m.verdicts = m.counterVec("verdicts_total",
		"Recorded verdicts by outcome", "verdict")
	m.verdictRejects = m.counterVec("verdict_rejections_total",
		"Verdict submissions rejected by the ledger, by reason", "reason")
	m.sessionsExpired = m.counter("sessions_expired_total",
		"Holder sessions expired after the idle timeout")
	m.releasedItems = m.counter("released_items_total",
		"Assignments released because their holder expired")
	m.registrations = m.counter("username_registrations_total",
		"Username registrations (including re-registrations)")
	m.catalogFinished = m.counter("catalog_exhausted_total",
		"Assignment requests answered with the finished state")
	m.resets = m.counter("admin_resets_total",
		"Administrative resets of the shared state")

	m.catalogSize = m.gauge("catalog_items", "Number of items in the catalog")
	m.assignedItems = m.gauge("assigned_items", "Items currently held by a holder")
	m.completedItems = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "completed_items",
		Help: "Completed reviews by verdict", ConstLabels: m.constLabels,
	}, []string{"verdict"})
	m.activeSessions = m.gauge("active_sessions", "Holders active within the session timeout")
	m.leaderboardUsers = m.gauge("leaderboard_users", "Usernames on the leaderboard")
	m.cursorPosition = m.gauge("cursor_position", "Current search cursor")

	m.persistLatency = m.histogramVec("persist_duration_milliseconds",
		"State store latency in milliseconds", "backend", "op")
	m.persistFailures = m.counterVec("persist_failures_total",
		"State store failures", "backend", "op")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.rateLimited = m.counter("http_rate_limited_total", "Requests rejected by the rate limiter")
	m.duplicateRequests = m.counter("duplicate_requests_total",
		"Verdict submissions acknowledged as duplicates by request id")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "system_gc_pause_milliseconds",
		Help: "Average GC pause in milliseconds", Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	})
}

// Review flow.

// RecordAssignment counts an item handed out; kind is "current" or "preload".
func RecordAssignment(kind string) {
	globalManager.assignments.WithLabelValues(kind).Inc()
}

// RecordVerdict counts a recorded verdict.
func RecordVerdict(liked bool) {
	globalManager.verdicts.WithLabelValues(verdictLabel(liked)).Inc()
}

// RecordVerdictRejected counts a rejected verdict submission.
func RecordVerdictRejected(reason string) {
	globalManager.verdictRejects.WithLabelValues(reason).Inc()
}

// RecordSessionsExpired counts expired sessions and the assignments they released.
func RecordSessionsExpired(sessions, released int) {
	globalManager.sessionsExpired.Add(float64(sessions))
	globalManager.releasedItems.Add(float64(released))
}

// RecordRegistration counts a username registration.
func RecordRegistration() {
	globalManager.registrations.Inc()
}

// RecordCatalogExhausted counts a finished answer.
func RecordCatalogExhausted() {
	globalManager.catalogFinished.Inc()
}

// RecordReset counts an administrative reset.
func RecordReset() {
	globalManager.resets.Inc()
}

// Progress gauges.

// UpdateCatalogSize sets the catalog size gauge.
func UpdateCatalogSize(n int) {
	globalManager.catalogSize.Set(float64(n))
}

// UpdateProgress sets the progress gauges in one call.
func UpdateProgress(assigned, liked, disliked, active, users, cursor int) {
	globalManager.assignedItems.Set(float64(assigned))
	globalManager.completedItems.WithLabelValues(verdictLabel(true)).Set(float64(liked))
	globalManager.completedItems.WithLabelValues(verdictLabel(false)).Set(float64(disliked))
	globalManager.activeSessions.Set(float64(active))
	globalManager.leaderboardUsers.Set(float64(users))
	globalManager.cursorPosition.Set(float64(cursor))
}

// Persistence.

// RecordPersistLatency observes a state store operation.
func RecordPersistLatency(backend, op string, latencyMs float64) {
	globalManager.persistLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// RecordPersistFailure counts a failed state store operation.
func RecordPersistFailure(backend, op string) {
	globalManager.persistFailures.WithLabelValues(backend, op).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited() {
	globalManager.rateLimited.Inc()
}

// RecordDuplicateRequest counts a verdict retry recognised by request id.
func RecordDuplicateRequest() {
	globalManager.duplicateRequests.Inc()
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

func verdictLabel(liked bool) string {
	if liked {
		return "liked"
	}
	return "disliked"
}
