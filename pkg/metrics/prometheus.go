// Package metrics provides Prometheus metrics for the churn-risk service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// probabilityBuckets partitions [0,1] in tenths.
var probabilityBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the churn-risk service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Inference
	predictions        *prometheus.CounterVec
	predictionLatency  prometheus.Histogram
	churnProbability   prometheus.Histogram
	invalidModel       prometheus.Counter
	encodingErrors     prometheus.Counter
	rejectedInputs     *prometheus.CounterVec
	modelInfo          *prometheus.GaugeVec
	modelLoadDuration  prometheus.Gauge
	rateLimitedClients prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry avoids the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "churn",
		subsystem:        "inference",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(
		m.counterOpts("predictions_total", "Total number of predictions served, by verdict"),
		[]string{"verdict"},
	)
	m.predictionLatency = auto.NewHistogram(
		m.histogramOpts("prediction_latency_milliseconds", "Encode plus inference latency in milliseconds", m.histogramBuckets),
	)
	m.churnProbability = auto.NewHistogram(
		m.histogramOpts("churn_probability", "Distribution of predicted churn probabilities", probabilityBuckets),
	)
	m.invalidModel = auto.NewCounter(
		m.counterOpts("invalid_model_total", "Predictions rejected because the model output did not have two classes"),
	)
	m.encodingErrors = auto.NewCounter(
		m.counterOpts("encoding_errors_total", "Records whose categories were missing from the encoding table"),
	)
	m.rejectedInputs = auto.NewCounterVec(
		m.counterOpts("rejected_inputs_total", "Records rejected by input validation, by field"),
		[]string{"field"},
	)
	m.modelInfo = auto.NewGaugeVec(
		m.gaugeOpts("model_info", "Loaded classifier artifact; value is the number of trees"),
		[]string{"name", "version", "encoding"},
	)
	m.modelLoadDuration = auto.NewGauge(
		m.gaugeOpts("model_load_duration_milliseconds", "Time spent loading the classifier artifact"),
	)
	m.rateLimitedClients = auto.NewCounter(
		m.counterOpts("rate_limited_total", "Requests refused by the per-client rate limiter"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordPrediction counts a served prediction and observes its probability.
func RecordPrediction(verdict string, churnProbability float64) error {
	if churnProbability < 0 || churnProbability > 1 {
		return fmt.Errorf("%w: churn probability %v", ErrOutOfRange, churnProbability)
	}
	globalManager.predictions.WithLabelValues(verdict).Inc()
	globalManager.churnProbability.Observe(churnProbability)
	return nil
}

// RecordPredictionLatency records encode plus inference latency.
func RecordPredictionLatency(latencyMs float64) {
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordInvalidModel counts a prediction whose output had the wrong class count.
func RecordInvalidModel() {
	globalManager.invalidModel.Inc()
}

// RecordEncodingError counts a record that could not be encoded.
func RecordEncodingError() {
	globalManager.encodingErrors.Inc()
}

// RecordRejectedInput counts a record rejected at the input layer.
func RecordRejectedInput(field string) {
	globalManager.rejectedInputs.WithLabelValues(field).Inc()
}

// SetModelInfo publishes the loaded artifact identity.
func SetModelInfo(name, version, encoding string, trees int) {
	globalManager.modelInfo.Reset()
	globalManager.modelInfo.WithLabelValues(name, version, encoding).Set(float64(trees))
}

// SetModelLoadDuration records how long the artifact took to load.
func SetModelLoadDuration(ms float64) {
	globalManager.modelLoadDuration.Set(ms)
}

// RecordRateLimited counts a request refused by the rate limiter.
func RecordRateLimited() {
	globalManager.rateLimitedClients.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
