// Package metrics provides Prometheus metrics collection for the flight delay
// service. It defines the request, prediction and training metrics exposed on
// the /metrics endpoint.
package metrics

import (
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the delay service.
type Metrics struct {
	// HTTP metrics
	Requests        *prometheus.CounterVec   // Requests by endpoint and status code
	RequestDuration *prometheus.HistogramVec // Request latency by endpoint

	// Prediction metrics
	Predictions        prometheus.Counter     // Flights labeled by /predict
	DelayedPredictions prometheus.Counter     // Flights labeled as delayed
	BatchSize          prometheus.Histogram   // Flights per /predict request
	ValidationFailures *prometheus.CounterVec // Rejected requests by reason

	// Classifier metrics
	MLPredictions    prometheus.Counter   // Rows classified by the ensemble
	MLLatency        prometheus.Histogram // Ensemble evaluation latency in seconds
	MLFitDuration    prometheus.Histogram // Classifier fit duration in seconds
	MLTrainingRows   prometheus.Gauge     // Rows in the last training set
	MLScalePosWeight prometheus.Gauge     // Imbalance weight of the last fit
	MLModelAge       prometheus.GaugeFunc // Seconds since the served model was trained

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of internal errors

	trainedAt atomic.Int64 // unix nanoseconds, 0 when no model is loaded
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	m := &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status code",
		}, []string{"endpoint", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "delay_predictions_total",
			Help: "Total number of flights labeled",
		}),
		DelayedPredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "delay_predictions_delayed_total",
			Help: "Total number of flights labeled as delayed",
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "delay_prediction_batch_size",
			Help:    "Number of flights per prediction request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "delay_validation_failures_total",
			Help: "Total number of rejected prediction requests by reason",
		}, []string{"reason"}),
		MLPredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Total number of rows classified",
		}),
		MLLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_latency_seconds",
			Help:    "Ensemble evaluation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		MLFitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_fit_duration_seconds",
			Help:    "Classifier fit duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		MLTrainingRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ml_training_rows",
			Help: "Number of rows in the last training set",
		}),
		MLScalePosWeight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ml_scale_pos_weight",
			Help: "Negative to positive label ratio used by the last fit",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of internal errors",
		}),
	}

	m.MLModelAge = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ml_model_age_seconds",
		Help: "Age of the served model in seconds",
	}, m.modelAge)

	return m
}

// SetModelTrainedAt records when the served model was trained.
func (m *Metrics) SetModelTrainedAt(t time.Time) {
	m.trainedAt.Store(t.UnixNano())
}

func (m *Metrics) modelAge() float64 {
	ts := m.trainedAt.Load()
	if ts == 0 {
		return math.NaN()
	}
	return time.Since(time.Unix(0, ts)).Seconds()
}

// ObserveRequest records a finished HTTP request.
func (m *Metrics) ObserveRequest(endpoint string, code int, d time.Duration) {
	m.Requests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObservePredictions records the labels returned for one request.
func (m *Metrics) ObservePredictions(labels []int) {
	delayed := 0
	for _, l := range labels {
		delayed += l
	}
	m.BatchSize.Observe(float64(len(labels)))
	m.Predictions.Add(float64(len(labels)))
	m.DelayedPredictions.Add(float64(delayed))
}

// GetDelayedRate returns the share of predictions labeled as delayed, or 0
// before any prediction.
func (m *Metrics) GetDelayedRate() float64 {
	total := counterValue(m.Predictions)
	if total == 0 {
		return 0
	}
	return counterValue(m.DelayedPredictions) / total
}
