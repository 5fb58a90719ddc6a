package model

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"flight-delay/internal/dataset"
	"flight-delay/internal/features"
	"flight-delay/internal/flights"
	"flight-delay/internal/ml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	data []byte
	err  error
}

func (s *memStore) SaveArtifact(data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.data = append([]byte(nil), data...)
	return nil
}

func (s *memStore) LoadArtifact() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

func testEngine() ml.Engine {
	params := ml.DefaultBoosterParams()
	params.NEstimators = 50
	return ml.NewNativeEngine(params)
}

func fittedModel(t *testing.T) *DelayModel {
	t.Helper()
	m := New(testEngine(), nil)
	ts, err := m.EncodeForTraining(dataset.GenerateSample(2000, 42))
	require.NoError(t, err)
	require.NoError(t, m.Fit(context.Background(), ts))
	return m
}

func TestNew(t *testing.T) {
	m := New(testEngine(), nil)
	assert.Equal(t, Unfitted, m.State())
	assert.Equal(t, features.TopDimensions(), m.Dimensions())
	assert.Equal(t, 15.0, m.Threshold())
}

func TestEncodeForTraining(t *testing.T) {
	records := []flights.Record{
		{Airline: "Copa Air", FlightType: "I", Month: 7, ScheduledAt: "2017-07-20 06:00:00", ActualAt: "2017-07-20 06:15:00"},
		{Airline: "Avianca", FlightType: "N", Month: 3, ScheduledAt: "2017-03-10 13:00:00", ActualAt: "2017-03-10 13:16:00"},
		{Airline: "Copa Air", FlightType: "N", Month: 3, ScheduledAt: "2017-03-10 22:00:00", ActualAt: "2017-03-10 21:50:00"},
	}

	m := New(testEngine(), nil)
	ts, err := m.EncodeForTraining(records)
	require.NoError(t, err)

	rows, cols := ts.Features.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 10, cols)
	assert.Equal(t, []int{0, 1, 0}, ts.Labels)

	assert.Equal(t, []string{"Copa Air", "Avianca"}, ts.Vocabulary.Airlines)
	assert.Equal(t, []string{"I", "N"}, ts.Vocabulary.FlightTypes)
	assert.Equal(t, []int{7, 3}, ts.Vocabulary.Months)

	assert.Equal(t, features.Derived{Period: features.Morning, HighSeason: 1, MinDiff: 15}, ts.Derived[0])
	assert.Equal(t, features.Derived{Period: features.Afternoon, HighSeason: 0, MinDiff: 16}, ts.Derived[1])
	assert.Equal(t, features.Derived{Period: features.Night, HighSeason: 0, MinDiff: -10}, ts.Derived[2])

	// Encoding does not touch the model.
	assert.Equal(t, Unfitted, m.State())
	assert.True(t, m.vocabulary.Empty())
}

func TestEncodeForTraining_Errors(t *testing.T) {
	m := New(testEngine(), nil)

	_, err := m.EncodeForTraining(nil)
	assert.ErrorIs(t, err, features.ErrEmptyBatch)

	_, err = m.EncodeForTraining([]flights.Record{
		{Airline: "Copa Air", FlightType: "I", Month: 7, ScheduledAt: "2017-07-20 06:00:00", ActualAt: "2017-07-20 06:15:00"},
		{Airline: "Copa Air", FlightType: "I", Month: 7, ScheduledAt: "20/07/2017 06:00", ActualAt: "2017-07-20 06:15:00"},
	})
	var formatErr *features.FormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, "20/07/2017 06:00", formatErr.Value)
	assert.Contains(t, err.Error(), "record 1")
}

func TestEncodeForInference(t *testing.T) {
	m := New(testEngine(), nil)
	x, err := m.EncodeForInference([]flights.Record{{Airline: "Aerolineas Argentinas", FlightType: "N", Month: 3}})
	require.NoError(t, err)

	rows, cols := x.Dims()
	assert.Equal(t, 1, rows)
	assert.Equal(t, 10, cols)
	for j := 0; j < cols; j++ {
		assert.Zero(t, x.At(0, j))
	}
}

func TestPredictBeforeFit(t *testing.T) {
	m := New(testEngine(), nil)
	x, err := m.EncodeForInference([]flights.Record{{Airline: "Copa Air", FlightType: "I", Month: 7}})
	require.NoError(t, err)

	_, err = m.Predict(x)
	var notFitted *ml.NotFittedError
	assert.True(t, errors.As(err, &notFitted))
	assert.ErrorIs(t, err, ml.ErrNotFitted)

	_, err = m.Trained()
	assert.ErrorIs(t, err, ml.ErrNotFitted)
}

func TestFit(t *testing.T) {
	m := fittedModel(t)
	assert.Equal(t, Fitted, m.State())

	trained, err := m.Trained()
	require.NoError(t, err)
	assert.NotEmpty(t, trained.Info().ModelID)
	assert.Equal(t, 2000, trained.Info().TrainingRows)
	assert.Equal(t, "native", trained.Info().Engine)
	assert.Contains(t, trained.Vocabulary().Airlines, "Aerolineas Argentinas")

	labels, err := trained.PredictRecords([]flights.Record{
		{Airline: "Aerolineas Argentinas", FlightType: "N", Month: 3},
		{Airline: "Latin American Wings", FlightType: "I", Month: 7},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, labels)

	x, err := m.EncodeForInference([]flights.Record{{Airline: "Aerolineas Argentinas", FlightType: "N", Month: 3}})
	require.NoError(t, err)
	direct, err := m.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, direct)
}

func TestFit_Twice(t *testing.T) {
	m := fittedModel(t)
	ts, err := m.EncodeForTraining(dataset.GenerateSample(100, 1))
	require.NoError(t, err)

	assert.ErrorIs(t, m.Fit(context.Background(), ts), ErrAlreadyFitted)
	assert.Error(t, New(testEngine(), nil).Fit(context.Background(), nil))
}

func TestTrained_AccessorsReturnCopies(t *testing.T) {
	m := fittedModel(t)
	trained, err := m.Trained()
	require.NoError(t, err)

	dims := trained.Dimensions()
	dims[0], dims[1] = dims[1], dims[0]
	vocab := trained.Vocabulary()
	vocab.Airlines[0] = "Tampered Air"
	vocab.Months = append(vocab.Months[:0], 13)
	m.Dimensions()[0] = features.Dimension{Column: "MES", Value: "13"}
	features.TopDimensions()[0] = features.Dimension{Column: "MES", Value: "13"}

	assert.Equal(t, features.TopDimensions(), trained.Dimensions())
	assert.Equal(t, features.TopDimensions(), m.Dimensions())
	assert.NotContains(t, trained.Vocabulary().Airlines, "Tampered Air")
	assert.NotContains(t, trained.Vocabulary().Months, 13)
	assert.Equal(t, "OPERA_Latin American Wings", features.TopDimensions()[0].Name())

	// Latin American Wings in July is still encoded into the first two columns.
	labels, err := trained.PredictRecords([]flights.Record{{Airline: "Latin American Wings", FlightType: "I", Month: 7}})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, labels)
}

func TestTrained_Validate(t *testing.T) {
	trained, err := fittedModel(t).Trained()
	require.NoError(t, err)

	assert.NoError(t, trained.Validate([]flights.Record{{Airline: "Copa Air", FlightType: "I", Month: 7}}))

	err = trained.Validate([]flights.Record{
		{Airline: "Copa Air", FlightType: "I", Month: 7},
		{Airline: "Copa Air", FlightType: "X", Month: 13},
	})
	var unknown *features.UnknownValueError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Invalid flight type: X", err.Error())
}

func TestSummary(t *testing.T) {
	ts := &TrainingSet{
		Labels: []int{0, 1, 0, 0},
		Derived: []features.Derived{
			{Period: features.Morning, HighSeason: 1},
			{Period: features.Morning},
			{Period: features.Night, HighSeason: 1},
			{Period: features.Afternoon},
		},
	}

	s := ts.Summary()
	assert.Equal(t, 4, s.Rows)
	assert.Equal(t, 1, s.Positives)
	assert.Equal(t, 3.0, s.ScalePosWeight)
	assert.Equal(t, 0.5, s.HighSeasonShare)
	assert.Equal(t, map[features.DayPeriod]int{features.Morning: 2, features.Afternoon: 1, features.Night: 1}, s.Periods)
}

func TestArtifact_RoundTrip(t *testing.T) {
	m := fittedModel(t)
	store := &memStore{}
	require.NoError(t, m.Save(store))

	loaded, err := Load(store, nil)
	require.NoError(t, err)
	assert.Equal(t, Fitted, loaded.State())

	want, err := m.Trained()
	require.NoError(t, err)
	got, err := loaded.Trained()
	require.NoError(t, err)

	assert.Equal(t, want.Vocabulary(), got.Vocabulary())
	assert.Equal(t, want.Dimensions(), got.Dimensions())
	assert.Equal(t, want.Info().ModelID, got.Info().ModelID)
	assert.True(t, want.Info().TrainedAt.Equal(got.Info().TrainedAt))

	records := dataset.GenerateSample(200, 9)
	wantLabels, err := want.PredictRecords(records)
	require.NoError(t, err)
	gotLabels, err := got.PredictRecords(records)
	require.NoError(t, err)
	assert.Equal(t, wantLabels, gotLabels)

	// A loaded model is never trained again.
	ts, err := loaded.EncodeForTraining(records)
	require.NoError(t, err)
	assert.ErrorIs(t, loaded.Fit(context.Background(), ts), ErrAlreadyFitted)
}

func TestArtifact_Unfitted(t *testing.T) {
	store := &memStore{}
	require.NoError(t, New(testEngine(), nil).Save(store))

	var a Artifact
	require.NoError(t, json.Unmarshal(store.data, &a))
	assert.Equal(t, Unfitted, a.State)
	assert.Nil(t, a.Ensemble)

	loaded, err := Load(store, nil)
	require.NoError(t, err)
	assert.Equal(t, Unfitted, loaded.State())
	_, err = loaded.Trained()
	assert.ErrorIs(t, err, ml.ErrNotFitted)
}

func TestUnmarshalArtifact_Invalid(t *testing.T) {
	valid, err := MarshalArtifact(fittedModel(t))
	require.NoError(t, err)

	mutate := func(f func(a *Artifact)) []byte {
		var a Artifact
		require.NoError(t, json.Unmarshal(valid, &a))
		f(&a)
		data, err := json.Marshal(a)
		require.NoError(t, err)
		return data
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"not json", []byte("{")},
		{"unknown version", mutate(func(a *Artifact) { a.FormatVersion = 99 })},
		{"no dimensions", mutate(func(a *Artifact) { a.Dimensions = nil })},
		{"no ensemble", mutate(func(a *Artifact) { a.Ensemble = nil })},
		{"dimension mismatch", mutate(func(a *Artifact) { a.Dimensions = a.Dimensions[:3] })},
		{"split on unknown column", mutate(func(a *Artifact) {
			a.Ensemble.Trees = append(a.Ensemble.Trees, &ml.Node{
				Feature: 15, Threshold: 0.5, Left: &ml.Node{Leaf: 1}, Right: &ml.Node{Leaf: -1},
			})
		})},
		{"split with one child", mutate(func(a *Artifact) {
			a.Ensemble.Trees = append(a.Ensemble.Trees, &ml.Node{Feature: 0, Threshold: 0.5, Left: &ml.Node{Leaf: 1}})
		})},
		{"null tree", mutate(func(a *Artifact) { a.Ensemble.Trees = append(a.Ensemble.Trees, nil) })},
		{"bad state", []byte(`{"format_version":1,"state":"trained","dimensions":[{"column":"MES","value":"7"}]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalArtifact(tt.data, nil)
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReaderError(t *testing.T) {
	_, err := Load(&memStore{err: errors.New("disk on fire")}, nil)
	assert.ErrorContains(t, err, "disk on fire")
	assert.Error(t, New(testEngine(), nil).Save(&memStore{err: errors.New("read-only")}))
}
