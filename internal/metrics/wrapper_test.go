package metrics

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWrapper(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	if wrapper == nil {
		t.Fatal("NewWrapper returned nil")
	}
	if wrapper.m != metrics {
		t.Error("Wrapper does not contain correct metrics instance")
	}
}

func TestMetricsWrapper_ClassifierMetrics(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	wrapper.MLTrainingRowsSet(2000)
	wrapper.MLScalePosWeightSet(4.4)
	wrapper.MLPredictionsAdd(3)
	wrapper.MLPredictionsAdd(2)
	wrapper.MLFitDurationObserve(1.5)
	wrapper.MLLatencyObserve(0.0002)

	if v := testutil.ToFloat64(metrics.MLTrainingRows); v != 2000 {
		t.Errorf("Expected training rows 2000, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.MLScalePosWeight); v != 4.4 {
		t.Errorf("Expected scale_pos_weight 4.4, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.MLPredictions); v != 5 {
		t.Errorf("Expected 5 classified rows, got %f", v)
	}
	if n := testutil.CollectAndCount(metrics.MLFitDuration); n != 1 {
		t.Errorf("Expected one fit duration series, got %d", n)
	}
}

func TestMetricsWrapper_ServerMetrics(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	wrapper.RequestObserve("/predict", 200, 3*time.Millisecond)
	wrapper.RequestObserve("/predict", 200, 5*time.Millisecond)
	wrapper.RequestObserve("/predict", 400, time.Millisecond)
	wrapper.RequestObserve("/health", 200, time.Millisecond)

	if v := testutil.ToFloat64(metrics.Requests.WithLabelValues("/predict", "200")); v != 2 {
		t.Errorf("Expected 2 successful predict requests, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.Requests.WithLabelValues("/predict", "400")); v != 1 {
		t.Errorf("Expected 1 rejected predict request, got %f", v)
	}
	if n := testutil.CollectAndCount(metrics.RequestDuration); n != 2 {
		t.Errorf("Expected duration series for 2 endpoints, got %d", n)
	}

	wrapper.PredictionsObserve([]int{0, 1, 1, 0})
	wrapper.PredictionsObserve([]int{0})

	if v := testutil.ToFloat64(metrics.Predictions); v != 5 {
		t.Errorf("Expected 5 predictions, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.DelayedPredictions); v != 2 {
		t.Errorf("Expected 2 delayed predictions, got %f", v)
	}
	if rate := metrics.GetDelayedRate(); rate != 0.4 {
		t.Errorf("Expected delayed rate 0.4, got %f", rate)
	}
	if rate := wrapper.DelayedRate(); rate != 0.4 {
		t.Errorf("Expected wrapper delayed rate 0.4, got %f", rate)
	}

	wrapper.ValidationFailureInc("vocabulary")
	wrapper.ValidationFailureInc("vocabulary")
	wrapper.ValidationFailureInc("empty")
	if v := testutil.ToFloat64(metrics.ValidationFailures.WithLabelValues("vocabulary")); v != 2 {
		t.Errorf("Expected 2 vocabulary failures, got %f", v)
	}

	wrapper.ErrorsInc()
	if v := testutil.ToFloat64(metrics.ErrorsTotal); v != 1 {
		t.Errorf("Expected 1 error, got %f", v)
	}
}

func TestMetrics_DelayedRateEmpty(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	if rate := metrics.GetDelayedRate(); rate != 0 {
		t.Errorf("Expected delayed rate 0 before predictions, got %f", rate)
	}
}

func TestMetrics_ModelAge(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())

	if v := testutil.ToFloat64(metrics.MLModelAge); !math.IsNaN(v) {
		t.Errorf("Expected NaN model age before load, got %f", v)
	}

	NewWrapper(metrics).ModelLoaded(time.Now().Add(-time.Hour))
	age := testutil.ToFloat64(metrics.MLModelAge)
	if age < 3600 || age > 3660 {
		t.Errorf("Expected model age around 3600s, got %f", age)
	}
}

func TestMetrics_Exposition(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	metrics.ObservePredictions([]int{1})

	expected := `
# HELP delay_predictions_delayed_total Total number of flights labeled as delayed
# TYPE delay_predictions_delayed_total counter
delay_predictions_delayed_total 1
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "delay_predictions_delayed_total"); err != nil {
		t.Errorf("Unexpected exposition: %v", err)
	}
}

func TestNewWithRegistry_DuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewWithRegistry(registry)

	defer func() {
		if recover() == nil {
			t.Error("Expected panic when registering metrics twice")
		}
	}()
	NewWithRegistry(registry)
}
