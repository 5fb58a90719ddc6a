package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// MetricsWrapper adapts Metrics to the narrow interfaces of the classifier
// and the HTTP server, which cannot import this package directly.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

// Classifier metrics

func (w *MetricsWrapper) MLFitDurationObserve(seconds float64) {
	w.m.MLFitDuration.Observe(seconds)
}

func (w *MetricsWrapper) MLTrainingRowsSet(rows float64) {
	w.m.MLTrainingRows.Set(rows)
}

func (w *MetricsWrapper) MLScalePosWeightSet(weight float64) {
	w.m.MLScalePosWeight.Set(weight)
}

func (w *MetricsWrapper) MLPredictionsAdd(rows float64) {
	w.m.MLPredictions.Add(rows)
}

func (w *MetricsWrapper) MLLatencyObserve(seconds float64) {
	w.m.MLLatency.Observe(seconds)
}

// Server metrics

func (w *MetricsWrapper) RequestObserve(endpoint string, code int, d time.Duration) {
	w.m.ObserveRequest(endpoint, code, d)
}

func (w *MetricsWrapper) PredictionsObserve(labels []int) {
	w.m.ObservePredictions(labels)
}

func (w *MetricsWrapper) ValidationFailureInc(reason string) {
	w.m.ValidationFailures.WithLabelValues(reason).Inc()
}

func (w *MetricsWrapper) ErrorsInc() {
	w.m.ErrorsTotal.Inc()
}

func (w *MetricsWrapper) ModelLoaded(trainedAt time.Time) {
	w.m.SetModelTrainedAt(trainedAt)
}

func (w *MetricsWrapper) DelayedRate() float64 {
	return w.m.GetDelayedRate()
}

func counterValue(c prometheus.Counter) float64 {
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0
	}
	return pb.GetCounter().GetValue()
}
