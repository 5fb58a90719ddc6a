package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Node is a binary regression tree node. Rows with x[Feature] < Threshold go Left.
type Node struct {
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      *Node   `json:"left,omitempty"`
	Right     *Node   `json:"right,omitempty"`
	Leaf      float64 `json:"leaf,omitempty"`
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

func (n *Node) eval(row []float64) float64 {
	for !n.IsLeaf() {
		if row[n.Feature] < n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Leaf
}

func (n *Node) validate(numFeatures int) error {
	switch {
	case n == nil:
		return errors.New("nil node")
	case n.IsLeaf():
		return nil
	case n.Left == nil || n.Right == nil:
		return errors.New("split node has a single child")
	}
	if err := checkFeature(n.Feature, numFeatures); err != nil {
		return err
	}
	if err := n.Left.validate(numFeatures); err != nil {
		return err
	}
	return n.Right.validate(numFeatures)
}

func checkFeature(feature, numFeatures int) error {
	if feature < 0 || feature >= numFeatures {
		return fmt.Errorf("feature %d out of range [0, %d)", feature, numFeatures)
	}
	return nil
}

func (n *Node) depth() int {
	if n == nil || n.IsLeaf() {
		return 0
	}
	return 1 + max(n.Left.depth(), n.Right.depth())
}

// Ensemble is the trained state of a boosted binary classifier: a base score and
// an additive list of trees whose leaves are already scaled by the learning rate.
type Ensemble struct {
	BaseScore   float64 `json:"base_score"`
	NumFeatures int     `json:"num_features"`
	Trees       []*Node `json:"trees"`
}

// Validate checks that every tree only splits on columns below NumFeatures and
// that every split node has both children.
func (e *Ensemble) Validate() error {
	if e.NumFeatures <= 0 {
		return fmt.Errorf("ensemble has %d features", e.NumFeatures)
	}
	for i, t := range e.Trees {
		if err := t.validate(e.NumFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// Margin returns the raw log-odds for a single feature row.
func (e *Ensemble) Margin(row []float64) float64 {
	m := logit(e.BaseScore)
	for _, t := range e.Trees {
		m += t.eval(row)
	}
	return m
}

// PredictProba returns P(label=1) for every row of x.
func (e *Ensemble) PredictProba(x mat.Matrix) ([]float64, error) {
	rows, cols := x.Dims()
	if cols != e.NumFeatures {
		return nil, fmt.Errorf("ensemble expects %d features, got %d", e.NumFeatures, cols)
	}

	probs := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, x)
		probs[i] = sigmoid(e.Margin(row))
	}
	return probs, nil
}

// Predict labels every row 1 when its probability exceeds 0.5.
func (e *Ensemble) Predict(x mat.Matrix) ([]int, error) {
	probs, err := e.PredictProba(x)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(probs))
	for i, p := range probs {
		if p > 0.5 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// MaxDepth returns the depth of the deepest tree.
func (e *Ensemble) MaxDepth() int {
	d := 0
	for _, t := range e.Trees {
		d = max(d, t.depth())
	}
	return d
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func logit(p float64) float64 {
	switch {
	case p <= 0:
		return math.Inf(-1)
	case p >= 1:
		return math.Inf(1)
	}
	return math.Log(p / (1 - p))
}
