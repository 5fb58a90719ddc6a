// Package ml provides the binary delay classifier: a gradient boosted tree
// ensemble trained with class-imbalance weighting.
//
// Training is delegated to an Engine. The native engine boosts trees in process;
// the xgboost engine runs the reference learner in a Python subprocess and
// imports its tree dump. Both produce the same Ensemble, which is what gets
// persisted and evaluated at inference time.
package ml

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// ErrNotFitted is matched by every NotFittedError.
var ErrNotFitted = errors.New("model is not fitted yet")

// NotFittedError is returned when predicting with a classifier that was never fit.
type NotFittedError struct {
	Op string
}

func (e *NotFittedError) Error() string {
	if e.Op == "" {
		return ErrNotFitted.Error()
	}
	return e.Op + ": " + ErrNotFitted.Error()
}

func (e *NotFittedError) Is(target error) bool {
	return target == ErrNotFitted
}

// MetricsInterface defines metrics methods needed by the classifier
type MetricsInterface interface {
	MLFitDurationObserve(float64)
	MLTrainingRowsSet(float64)
	MLScalePosWeightSet(float64)
	MLPredictionsAdd(float64)
	MLLatencyObserve(float64)
}

// Engine trains an ensemble from a labeled feature matrix. Positive rows are
// weighted by scalePosWeight.
type Engine interface {
	Name() string
	Fit(ctx context.Context, x *mat.Dense, y []int, scalePosWeight float64) (*Ensemble, error)
}

// ScalePosWeight returns count(label=0)/count(label=1), or 1 when there are no
// positive labels.
func ScalePosWeight(labels []int) float64 {
	var neg, pos int
	for _, l := range labels {
		if l == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 {
		return 1
	}
	return float64(neg) / float64(pos)
}

// Classifier couples an Engine with the ensemble it produced.
type Classifier struct {
	engine   Engine
	ensemble *Ensemble
	metrics  MetricsInterface
}

func NewClassifier(engine Engine, metrics MetricsInterface) *Classifier {
	return &Classifier{engine: engine, metrics: metrics}
}

// RestoreClassifier rebuilds a fitted classifier from persisted parameters.
func RestoreClassifier(ensemble *Ensemble, metrics MetricsInterface) *Classifier {
	return &Classifier{ensemble: ensemble, metrics: metrics}
}

// Fit trains on x and binary labels y. The imbalance weight is recomputed from y
// on every call.
func (c *Classifier) Fit(ctx context.Context, x *mat.Dense, y []int) error {
	if c.engine == nil {
		return fmt.Errorf("classifier has no training engine")
	}
	rows, cols := x.Dims()
	if rows != len(y) {
		return fmt.Errorf("feature rows (%d) and labels (%d) differ", rows, len(y))
	}
	for i, l := range y {
		if l != 0 && l != 1 {
			return fmt.Errorf("label %d at row %d is not binary", l, i)
		}
	}

	weight := ScalePosWeight(y)
	log.Info().
		Int("rows", rows).
		Int("features", cols).
		Str("engine", c.engine.Name()).
		Float64("scale_pos_weight", weight).
		Msg("Fitting classifier")

	start := time.Now()
	ensemble, err := c.engine.Fit(ctx, x, y, weight)
	if err != nil {
		return fmt.Errorf("%s engine fit: %w", c.engine.Name(), err)
	}
	c.ensemble = ensemble

	if c.metrics != nil {
		c.metrics.MLFitDurationObserve(time.Since(start).Seconds())
		c.metrics.MLTrainingRowsSet(float64(rows))
		c.metrics.MLScalePosWeightSet(weight)
	}

	log.Info().
		Int("trees", len(ensemble.Trees)).
		Dur("duration", time.Since(start)).
		Msg("Classifier fitting completed")
	return nil
}

// Fitted reports whether Fit has succeeded.
func (c *Classifier) Fitted() bool {
	return c != nil && c.ensemble != nil
}

// Ensemble returns the trained parameters, nil before Fit.
func (c *Classifier) Ensemble() *Ensemble {
	return c.ensemble
}

// Predict returns one label per row of x.
func (c *Classifier) Predict(x mat.Matrix) ([]int, error) {
	if !c.Fitted() {
		return nil, &NotFittedError{Op: "predict"}
	}

	start := time.Now()
	labels, err := c.ensemble.Predict(x)
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.MLLatencyObserve(time.Since(start).Seconds())
		c.metrics.MLPredictionsAdd(float64(len(labels)))
	}
	return labels, nil
}
