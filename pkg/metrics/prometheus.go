// Package metrics provides Prometheus metrics for the househunt server and sync core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refetch outcomes recorded by RecordRefetch.
const (
	RefetchLoaded    = "loaded"
	RefetchEmpty     = "empty"
	RefetchFailed    = "failed"
	RefetchCancelled = "cancelled"
)

// Manager owns every collector registered by the application.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Sync core
	refetchTotal     *prometheus.CounterVec
	refetchLatency   prometheus.Histogram
	revision         prometheus.Gauge
	loadedProjects   prometheus.Gauge
	mutationsTotal   *prometheus.CounterVec
	sessionLiveness  prometheus.Gauge
	sessionChecks    *prometheus.CounterVec
	remoteRequests   *prometheus.CounterVec
	remoteLatency    *prometheus.HistogramVec
	droppedPayloads  *prometheus.CounterVec
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueRejected    *prometheus.CounterVec
	workerProcessed  prometheus.Counter
	workerErrors     prometheus.Counter
	workerProcessing prometheus.Histogram

	// API server
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	repositoryOps       *prometheus.CounterVec
	repositoryLatency   *prometheus.HistogramVec
	projectsCreated     prometheus.Counter
	entriesAppended     prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "househunt",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels}
}

func (m *Manager) histogram(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets, ConstLabels: m.customLabels}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.refetchTotal = auto.NewCounterVec(m.counter("sync_refetch_total",
		"Refetches of the project collection by outcome ("+
			RefetchLoaded+", "+RefetchEmpty+", "+RefetchFailed+", "+RefetchCancelled+")"), []string{"result"})
	m.refetchLatency = auto.NewHistogram(m.histogram("sync_refetch_latency_milliseconds",
		"Time from refetch start to settle in milliseconds"))
	m.revision = auto.NewGauge(m.gauge("sync_revision",
		"Current revision counter of the local project store"))
	m.loadedProjects = auto.NewGauge(m.gauge("sync_loaded_projects",
		"Number of projects held by the local store after the last refetch"))
	m.mutationsTotal = auto.NewCounterVec(m.counter("sync_mutations_total",
		"Remote mutations issued by the sync controller"), []string{"operation", "result"})
	m.sessionLiveness = auto.NewGauge(m.gauge("session_authenticated",
		"1 when the last session liveness check succeeded"))
	m.sessionChecks = auto.NewCounterVec(m.counter("session_checks_total",
		"Session liveness checks by outcome"), []string{"result"})
	m.remoteRequests = auto.NewCounterVec(m.counter("remote_requests_total",
		"Requests sent to the project API by operation and status"), []string{"operation", "status"})
	m.remoteLatency = auto.NewHistogramVec(m.histogram("remote_request_latency_milliseconds",
		"Project API round trip latency"), []string{"operation"})
	m.droppedPayloads = auto.NewCounterVec(m.counter("remote_payload_items_dropped_total",
		"Malformed payload items skipped while decoding"), []string{"kind"})
	m.queueSize = auto.NewGauge(m.gauge("sync_queue_size",
		"Pending refetch tasks"))
	m.queueCapacity = auto.NewGauge(m.gauge("sync_queue_capacity",
		"Capacity of the refetch task queue"))
	m.queueRejected = auto.NewCounterVec(m.counter("sync_queue_rejected_total",
		"Refetch tasks that could not be enqueued"), []string{"reason"})
	m.workerProcessed = auto.NewCounter(m.counter("sync_worker_processed_total",
		"Refetch tasks processed by the worker"))
	m.workerErrors = auto.NewCounter(m.counter("sync_worker_errors_total",
		"Refetch tasks that ended in an error"))
	m.workerProcessing = auto.NewHistogram(m.histogram("sync_worker_processing_milliseconds",
		"Worker time per refetch task"))

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogram("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counter("http_errors_total",
		"HTTP errors by endpoint, method and error type"), []string{"endpoint", "method", "error_type"})
	m.repositoryOps = auto.NewCounterVec(m.counter("repository_operations_total",
		"Repository operations by backend, operation and result"), []string{"backend", "operation", "result"})
	m.repositoryLatency = auto.NewHistogramVec(m.histogram("repository_latency_milliseconds",
		"Repository operation latency"), []string{"backend", "operation"})
	m.projectsCreated = auto.NewCounter(m.counter("projects_created_total",
		"Projects written by the API server"))
	m.entriesAppended = auto.NewCounter(m.counter("entries_appended_total",
		"House entries appended by the API server"))
}

// Sync core.

// RecordRefetch records a settled refetch and its latency.
func RecordRefetch(result string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.refetchTotal.WithLabelValues(result).Inc()
	globalManager.refetchLatency.Observe(latencyMs)
}

// UpdateRevision sets the store revision gauge.
func UpdateRevision(rev uint64) {
	globalManager.revision.Set(float64(rev))
}

// UpdateLoadedProjects sets the number of projects in the local store.
func UpdateLoadedProjects(count int) {
	globalManager.loadedProjects.Set(float64(count))
}

// RecordMutation records a remote mutation outcome.
func RecordMutation(operation, result string) {
	globalManager.mutationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordSessionCheck records a liveness check outcome and updates the gauge.
func RecordSessionCheck(authenticated bool) {
	result := "valid"
	value := 1.0
	if !authenticated {
		result = "invalid"
		value = 0
	}
	globalManager.sessionChecks.WithLabelValues(result).Inc()
	globalManager.sessionLiveness.Set(value)
}

// RecordRemoteRequest records a project API round trip.
func RecordRemoteRequest(operation, status string, latencyMs float64) {
	globalManager.remoteRequests.WithLabelValues(operation, status).Inc()
	globalManager.remoteLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordDroppedPayloadItem counts a malformed payload item skipped while decoding.
func RecordDroppedPayloadItem(kind string) {
	globalManager.droppedPayloads.WithLabelValues(kind).Inc()
}

// UpdateQueueSize sets the pending refetch task gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a task that could not be enqueued.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// RecordWorkerProcessed records a processed refetch task.
func RecordWorkerProcessed(latencyMs float64) {
	globalManager.workerProcessed.Inc()
	globalManager.workerProcessing.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// API server.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records request latency in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordRepositoryOp records a repository operation.
func RecordRepositoryOp(backend, operation string, err error, latencyMs float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	globalManager.repositoryOps.WithLabelValues(backend, operation, result).Inc()
	globalManager.repositoryLatency.WithLabelValues(backend, operation).Observe(latencyMs)
}

// RecordProjectCreated increments the created projects counter.
func RecordProjectCreated() {
	globalManager.projectsCreated.Inc()
}

// RecordEntryAppended increments the appended entries counter.
func RecordEntryAppended() {
	globalManager.entriesAppended.Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
