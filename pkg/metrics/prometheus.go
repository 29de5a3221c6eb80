// Package metrics provides Prometheus metrics for the acolyte ingestion pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Seed metrics
	seedsWritten prometheus.Counter
	seedRecords  prometheus.Counter
	seedErrors   prometheus.Counter

	// Ingestion metrics
	batchesReceived   prometheus.Counter
	batchSize         prometheus.Histogram
	messagesProcessed prometheus.Counter
	messagesDuplicate prometheus.Counter
	objectsRead       prometheus.Counter
	objectsEmpty      prometheus.Counter
	objectReadLatency prometheus.Histogram
	recordsUpserted   prometheus.Counter
	upsertLatency     prometheus.Histogram
	faults            *prometheus.CounterVec

	// Table metrics
	tableItems prometheus.Gauge

	// Queue metrics (local stack)
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueEnqueueErrs prometheus.Counter
	redeliveries     prometheus.Counter
	deadLetters      prometheus.Counter

	// Worker metrics (local stack)
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec
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
		namespace:        "acolyte",
		subsystem:        "pipeline",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.seedsWritten = m.counter("seeds_written_total", "Total number of seed objects written to the object store")
	m.seedRecords = m.counter("seed_records_total", "Total number of records serialized into seed objects")
	m.seedErrors = m.counter("seed_errors_total", "Total number of seed writes that failed")

	m.batchesReceived = m.counter("batches_received_total", "Total number of queue batches handed to the ingestion function")
	m.batchSize = m.histogram("batch_size", "Number of messages per ingestion batch", []float64{0, 1, 2, 5, 10})
	m.messagesProcessed = m.counter("messages_processed_total", "Total number of queue messages processed successfully")
	m.messagesDuplicate = m.counter("messages_duplicate_total", "Total number of queue messages skipped as duplicate deliveries")
	m.objectsRead = m.counter("objects_read_total", "Total number of objects read from the object store")
	m.objectsEmpty = m.counter("objects_empty_total", "Total number of objects read without a body")
	m.objectReadLatency = m.histogram("object_read_latency_ms", "Object store read latency in milliseconds", m.histogramBuckets)
	m.recordsUpserted = m.counter("records_upserted_total", "Total number of records written to the record table")
	m.upsertLatency = m.histogram("upsert_latency_ms", "Record table upsert latency in milliseconds", m.histogramBuckets)
	m.faults = m.counterVec("faults_total", "Ingestion faults by kind", "kind")

	m.tableItems = m.gauge("table_items", "Number of items currently held by the record table")

	m.queueSize = m.gauge("queue_size", "Current number of messages waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of messages the queue can hold")
	m.queueUtilization = m.gauge("queue_utilization", "Queue fill ratio in [0,1]")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Total number of messages enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Total number of messages dequeued")
	m.queueEnqueueErrs = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")
	m.redeliveries = m.counter("redeliveries_total", "Total number of messages made visible again after a failed batch")
	m.deadLetters = m.counter("dead_letters_total", "Total number of messages moved to the dead-letter list")

	m.workerCount = m.gauge("worker_count", "Number of queue consumers")
	m.workerProcessingLatency = m.histogram("worker_batch_latency_ms", "Time to hand one batch to the ingestion function", m.histogramBuckets)

	auto := promauto.With(m.registry)
	m.httpRequests = m.counterVec("http_requests_total", "Total number of gateway requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_ms"),
		Help:        "Gateway request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Gateway errors by endpoint", "endpoint", "method", "error_type")
	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
}

// Seed metrics.

// RecordSeedWritten counts one seed object holding n records.
func RecordSeedWritten(n int) {
	globalManager.seedsWritten.Inc()
	globalManager.seedRecords.Add(float64(n))
}

// RecordSeedError counts a failed seed write.
func RecordSeedError() {
	globalManager.seedErrors.Inc()
}

// Ingestion metrics.

// RecordBatch counts a batch and observes its size.
func RecordBatch(size int) {
	globalManager.batchesReceived.Inc()
	globalManager.batchSize.Observe(float64(size))
}

// RecordMessageProcessed counts a successfully processed message.
func RecordMessageProcessed() {
	globalManager.messagesProcessed.Inc()
}

// RecordMessageDuplicate counts a message skipped by the deduper.
func RecordMessageDuplicate() {
	globalManager.messagesDuplicate.Inc()
}

// RecordObjectRead observes an object store read.
func RecordObjectRead(latencyMs float64) {
	globalManager.objectsRead.Inc()
	globalManager.objectReadLatency.Observe(latencyMs)
}

// RecordObjectEmpty counts an object that had no body.
func RecordObjectEmpty() {
	globalManager.objectsEmpty.Inc()
}

// RecordUpsert observes a record table write.
func RecordUpsert(latencyMs float64) {
	globalManager.recordsUpserted.Inc()
	globalManager.upsertLatency.Observe(latencyMs)
}

// RecordFault counts an ingestion fault by kind (storage_read, parse, write).
func RecordFault(kind string) {
	globalManager.faults.WithLabelValues(kind).Inc()
}

// UpdateTableItems sets the current record table size.
func UpdateTableItems(count int) {
	globalManager.tableItems.Set(float64(count))
}

// Queue metrics.

// UpdateQueueSize sets the current queue depth.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue fill ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue counts an accepted enqueue.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a dequeued message.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrs.Inc()
}

// RecordRedelivery counts a message returned to the queue after a failure.
func RecordRedelivery() {
	globalManager.redeliveries.Inc()
}

// RecordDeadLetter counts a message that exhausted its receives.
func RecordDeadLetter() {
	globalManager.deadLetters.Inc()
}

// Worker metrics.

// UpdateWorkerCount sets the number of queue consumers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency observes one batch hand-off.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// HTTP metrics.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
