package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu             sync.Mutex
	fitDurations   []float64
	trainingRows   float64
	scalePosWeight float64
	predictions    float64
	latencySum     float64
}

func (m *MockMetrics) MLFitDurationObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fitDurations = append(m.fitDurations, v)
}

func (m *MockMetrics) MLTrainingRowsSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainingRows = v
}

func (m *MockMetrics) MLScalePosWeightSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scalePosWeight = v
}

func (m *MockMetrics) MLPredictionsAdd(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions += v
}

func (m *MockMetrics) MLLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}
