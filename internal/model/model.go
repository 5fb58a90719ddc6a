// Package model ties the feature encoder and the classifier into the delay
// model: the unit that is trained, persisted and served.
package model

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"flight-delay/internal/features"
	"flight-delay/internal/flights"
	"flight-delay/internal/ml"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// DelayThreshold is the number of minutes a departure may slip before it
// counts as delayed.
const DelayThreshold = 15.0

// ErrAlreadyFitted is returned by a second Fit on the same model.
var ErrAlreadyFitted = errors.New("model: already fitted")

// State is the lifecycle stage of a DelayModel. The only transition is
// Unfitted to Fitted.
type State int

const (
	Unfitted State = iota
	Fitted
)

func (s State) String() string {
	switch s {
	case Unfitted:
		return "unfitted"
	case Fitted:
		return "fitted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	if s != Unfitted && s != Fitted {
		return nil, fmt.Errorf("invalid model state %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unfitted":
		*s = Unfitted
	case "fitted":
		*s = Fitted
	default:
		return fmt.Errorf("invalid model state %q", text)
	}
	return nil
}

// Info describes a fitted model.
type Info struct {
	ModelID      string    `json:"model_id"`
	TrainedAt    time.Time `json:"trained_at"`
	TrainingRows int       `json:"training_rows"`
	Engine       string    `json:"engine"`
}

// TrainingSet is the output of EncodeForTraining.
type TrainingSet struct {
	Features   *mat.Dense
	Labels     []int
	Vocabulary features.Vocabulary
	Derived    []features.Derived
}

// Summary aggregates a training set for the training run ledger.
type Summary struct {
	Rows            int                        `json:"rows"`
	Positives       int                        `json:"positives"`
	ScalePosWeight  float64                    `json:"scale_pos_weight"`
	HighSeasonShare float64                    `json:"high_season_share"`
	Periods         map[features.DayPeriod]int `json:"periods"`
}

func (ts *TrainingSet) Summary() Summary {
	s := Summary{
		Rows:           len(ts.Labels),
		ScalePosWeight: ml.ScalePosWeight(ts.Labels),
		Periods:        make(map[features.DayPeriod]int),
	}
	for _, l := range ts.Labels {
		s.Positives += l
	}

	var high int
	for _, d := range ts.Derived {
		high += d.HighSeason
		s.Periods[d.Period]++
	}
	if len(ts.Derived) > 0 {
		s.HighSeasonShare = float64(high) / float64(len(ts.Derived))
	}
	return s
}

// DelayModel owns the feature dimensions, the vocabulary captured at training
// time and the classifier. It is not safe for concurrent Fit; serve a Trained
// view instead.
type DelayModel struct {
	state      State
	dims       []features.Dimension
	threshold  float64
	classifier *ml.Classifier
	vocabulary features.Vocabulary
	info       Info
	engineName string
	metrics    ml.MetricsInterface
}

// New returns an unfitted model over features.TopDimensions.
func New(engine ml.Engine, metrics ml.MetricsInterface) *DelayModel {
	m := &DelayModel{
		state:      Unfitted,
		dims:       features.TopDimensions(),
		threshold:  DelayThreshold,
		classifier: ml.NewClassifier(engine, metrics),
		metrics:    metrics,
	}
	if engine != nil {
		m.engineName = engine.Name()
	}
	return m
}

func (m *DelayModel) State() State { return m.state }

func (m *DelayModel) Dimensions() []features.Dimension { return slices.Clone(m.dims) }

func (m *DelayModel) Threshold() float64 { return m.threshold }

// EncodeForTraining encodes records, derives their temporal attributes and
// labels, and captures the vocabulary. The model itself is left untouched.
func (m *DelayModel) EncodeForTraining(records []flights.Record) (*TrainingSet, error) {
	x, err := features.Encode(records, m.dims)
	if err != nil {
		return nil, err
	}

	derived := make([]features.Derived, len(records))
	diffs := make([]float64, len(records))
	for i, r := range records {
		d, err := features.Derive(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		derived[i] = d
		diffs[i] = d.MinDiff
	}

	ts := &TrainingSet{
		Features:   x,
		Labels:     features.BuildLabels(diffs, m.threshold),
		Vocabulary: features.CaptureVocabulary(records),
		Derived:    derived,
	}

	log.Info().
		Int("rows", len(records)).
		Int("airlines", len(ts.Vocabulary.Airlines)).
		Int("flight_types", len(ts.Vocabulary.FlightTypes)).
		Int("months", len(ts.Vocabulary.Months)).
		Msg("Encoded training data")
	return ts, nil
}

// EncodeForInference returns the feature matrix for records.
func (m *DelayModel) EncodeForInference(records []flights.Record) (*mat.Dense, error) {
	return features.Encode(records, m.dims)
}

// Fit trains the classifier on ts and moves the model to Fitted.
func (m *DelayModel) Fit(ctx context.Context, ts *TrainingSet) error {
	if m.state == Fitted {
		return ErrAlreadyFitted
	}
	if ts == nil || ts.Features == nil {
		return errors.New("model: nil training set")
	}

	if err := m.classifier.Fit(ctx, ts.Features, ts.Labels); err != nil {
		return fmt.Errorf("fit classifier: %w", err)
	}

	m.vocabulary = ts.Vocabulary
	m.info = Info{
		ModelID:      uuid.NewString(),
		TrainedAt:    time.Now().UTC(),
		TrainingRows: len(ts.Labels),
		Engine:       m.engineName,
	}
	m.state = Fitted

	log.Info().
		Str("model_id", m.info.ModelID).
		Int("training_rows", m.info.TrainingRows).
		Msg("Delay model fitted")
	return nil
}

// Predict labels every row of x. It fails with *ml.NotFittedError before Fit.
func (m *DelayModel) Predict(x mat.Matrix) ([]int, error) {
	if m.state != Fitted {
		return nil, &ml.NotFittedError{Op: "predict"}
	}
	return m.classifier.Predict(x)
}

// Trained returns the read-only view of a fitted model.
func (m *DelayModel) Trained() (*Trained, error) {
	if m.state != Fitted {
		return nil, &ml.NotFittedError{Op: "trained"}
	}
	return &Trained{
		dims:       m.dims,
		threshold:  m.threshold,
		classifier: m.classifier,
		vocabulary: m.vocabulary,
		info:       m.info,
	}, nil
}
