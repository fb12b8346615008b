package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mdyrsy/kalbar-cm/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	LoginCounter        prometheus.Counter
	RegisterCounter     prometheus.Counter
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Entity CRUD metrics
	EntityOperationsCounter prometheus.CounterVec

	// Identity provider compensation metrics
	CompensatingDeleteCounter prometheus.CounterVec

	// Contract metrics
	ContractsPerSegmentGauge     prometheus.GaugeVec
	ContractValuePerSegmentGauge prometheus.GaugeVec

	// Active sessions issued by the embedded identity provider
	ActiveSessionsGauge prometheus.Gauge
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	LoginCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_logins_total",
			Help: "Total number of login attempts",
		},
	)

	RegisterCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_registrations_total",
			Help: "Total number of registration attempts",
		},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of token validation attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful token validations",
		},
	)

	AuthErrorsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"reason"},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Entity CRUD metrics
	EntityOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_entity_operations_total",
			Help: "Total number of entity operations",
		},
		[]string{"entity", "operation"},
	)

	// Identity provider compensation metrics
	CompensatingDeleteCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_identity_compensating_deletes_total",
			Help: "Total number of compensating identity-account deletes",
		},
		[]string{"result"},
	)

	// Contract metrics
	ContractsPerSegmentGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_contracts_per_segment",
			Help: "Number of active contracts per business segment",
		},
		[]string{"segment"},
	)

	ContractValuePerSegmentGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_contract_value_per_segment",
			Help: "Summed contract value per business segment",
		},
		[]string{"segment"},
	)

	ActiveSessionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_active_sessions",
			Help: "Number of sessions issued by the embedded identity provider",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordEntityOperation increments the counter for CRUD operations on an entity
func RecordEntityOperation(entity, operation string) {
	EntityOperationsCounter.WithLabelValues(entity, operation).Inc()
}

// RecordAuthError increments the counter for a specific authentication error
func RecordAuthError(reason string) {
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordCompensatingDelete records the outcome of a compensating identity delete
func RecordCompensatingDelete(result string) {
	CompensatingDeleteCounter.WithLabelValues(result).Inc()
}

// RecordHTTPRequest updates the HTTP request metrics for one handled request
func RecordHTTPRequest(method, path string, status int, duration float64) {
	HttpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HttpRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration)
}

// UpdateSegmentContracts updates the per-segment contract gauges
func UpdateSegmentContracts(segment string, count int64, value float64) {
	ContractsPerSegmentGauge.WithLabelValues(segment).Set(float64(count))
	ContractValuePerSegmentGauge.WithLabelValues(segment).Set(value)
}

// GetPrometheusHandler returns the handler for the metrics endpoint
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
