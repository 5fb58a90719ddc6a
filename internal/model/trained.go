package model

import (
	"slices"

	"flight-delay/internal/features"
	"flight-delay/internal/flights"
	"flight-delay/internal/ml"

	"gonum.org/v1/gonum/mat"
)

// Trained is a fitted delay model. It never changes after construction and may
// be shared by concurrent readers.
type Trained struct {
	dims       []features.Dimension
	threshold  float64
	classifier *ml.Classifier
	vocabulary features.Vocabulary
	info       Info
}

// Predict labels every row of x.
func (t *Trained) Predict(x mat.Matrix) ([]int, error) {
	return t.classifier.Predict(x)
}

// PredictRecords encodes records and labels them in input order.
func (t *Trained) PredictRecords(records []flights.Record) ([]int, error) {
	x, err := features.Encode(records, t.dims)
	if err != nil {
		return nil, err
	}
	return t.Predict(x)
}

// Validate returns the first out-of-vocabulary value among records.
func (t *Trained) Validate(records []flights.Record) error {
	for _, r := range records {
		if err := t.vocabulary.Validate(r); err != nil {
			return err
		}
	}
	return nil
}

// Vocabulary returns a copy of the accepted categorical values.
func (t *Trained) Vocabulary() features.Vocabulary { return t.vocabulary.Clone() }

// Dimensions returns a copy of the feature columns in encoding order.
func (t *Trained) Dimensions() []features.Dimension { return slices.Clone(t.dims) }

func (t *Trained) Threshold() float64 { return t.threshold }

func (t *Trained) Info() Info { return t.info }

// Trees returns the number of boosted trees.
func (t *Trained) Trees() int { return len(t.classifier.Ensemble().Trees) }

// MaxDepth returns the depth of the deepest tree.
func (t *Trained) MaxDepth() int { return t.classifier.Ensemble().MaxDepth() }
