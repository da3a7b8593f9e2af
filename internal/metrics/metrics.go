// Package metrics provides Prometheus metrics collection for the score predictor.
// It defines the inference, HTTP and storage metrics that are exposed via the
// Prometheus metrics endpoint for monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the predictor service.
type Metrics struct {
	// Inference metrics
	PredictionsTotal   *prometheus.CounterVec   // Successful predictions per model
	PredictionFailures *prometheus.CounterVec   // Failed predictions per model and reason
	PredictionLatency  *prometheus.HistogramVec // Model invocation latency in seconds
	PredictionScores   *prometheus.HistogramVec // Distribution of predicted scores
	ModelDivergence    prometheus.Histogram     // Absolute difference between the two models
	ModelAge           *prometheus.GaugeVec     // Age of each loaded artifact in seconds

	// HTTP metrics
	HTTPRequests    *prometheus.CounterVec   // Requests per route and status code
	HTTPDuration    *prometheus.HistogramVec // Request duration per route
	InvalidRequests *prometheus.CounterVec   // Rejected inputs per reason
	WSConnections   prometheus.Gauge         // Open websocket connections
	WSMessages      prometheus.Counter       // Websocket prediction requests handled

	// Storage and system metrics
	HistoryWrites   prometheus.Counter // Predictions persisted to history
	HistoryFailures prometheus.Counter // Failed history writes
	ErrorsTotal     prometheus.Counter // Total number of errors encountered

	gatherer prometheus.Gatherer
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// When registerer also implements prometheus.Gatherer it is used by ErrorRate.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	gatherer := prometheus.DefaultGatherer
	if g, ok := registerer.(prometheus.Gatherer); ok {
		gatherer = g
	}

	return &Metrics{
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of successful predictions per model",
		}, []string{"model"}),
		PredictionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed predictions per model and reason",
		}, []string{"model", "reason"}),
		PredictionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Model invocation latency in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"model"}),
		PredictionScores: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prediction_scores",
			Help:    "Distribution of predicted average scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}, []string{"model"}),
		ModelDivergence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "model_divergence",
			Help:    "Absolute difference between the two model predictions",
			Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13, 21},
		}),
		ModelAge: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the loaded model artifact in seconds",
		}, []string{"model"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests per route and status code",
		}, []string{"route", "code"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		InvalidRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "invalid_requests_total",
			Help: "Total number of rejected prediction inputs",
		}, []string{"reason"}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Number of open websocket connections",
		}),
		WSMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "ws_messages_total",
			Help: "Total number of websocket prediction requests handled",
		}),
		HistoryWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "history_writes_total",
			Help: "Total number of predictions written to history",
		}),
		HistoryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "history_failures_total",
			Help: "Total number of failed history writes",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
		gatherer: gatherer,
	}
}

// ErrorRate returns failed predictions as a share of all prediction attempts,
// or 0 if nothing has been recorded.
func (m *Metrics) ErrorRate() float64 {
	var ok, failed float64

	metricFamilies, err := m.gatherer.Gather()
	if err != nil {
		return 0
	}

	for _, mf := range metricFamilies {
		switch mf.GetName() {
		case "predictions_total":
			for _, metric := range mf.Metric {
				ok += metric.GetCounter().GetValue()
			}
		case "prediction_failures_total":
			for _, metric := range mf.Metric {
				failed += metric.GetCounter().GetValue()
			}
		}
	}

	if ok+failed == 0 {
		return 0
	}
	return failed / (ok + failed)
}
