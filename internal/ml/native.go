package ml

import (
	"context"
	"fmt"
	"sort"

	"flight-delay/internal/common"

	"gonum.org/v1/gonum/mat"
)

// BoosterParams mirrors the xgboost parameters the delay model is trained with.
type BoosterParams struct {
	NEstimators    int     `json:"n_estimators" yaml:"nEstimators"`
	MaxDepth       int     `json:"max_depth" yaml:"maxDepth"`
	LearningRate   float64 `json:"learning_rate" yaml:"learningRate"`
	Lambda         float64 `json:"reg_lambda" yaml:"regLambda"`
	MinChildWeight float64 `json:"min_child_weight" yaml:"minChildWeight"`
	Gamma          float64 `json:"gamma" yaml:"gamma"`
	BaseScore      float64 `json:"base_score" yaml:"baseScore"`
	Seed           int64   `json:"seed" yaml:"seed"`
}

// DefaultBoosterParams returns the xgboost defaults.
func DefaultBoosterParams() BoosterParams {
	return BoosterParams{
		NEstimators:    common.DefaultNEstimators,
		MaxDepth:       common.DefaultMaxDepth,
		LearningRate:   common.DefaultLearningRate,
		Lambda:         common.DefaultRegLambda,
		MinChildWeight: common.DefaultMinChildWeight,
		BaseScore:      0.5,
		Seed:           common.DefaultRandomSeed,
	}
}

// minSplitGain matches xgboost's rounding epsilon for accepting a split.
const minSplitGain = 1e-6

// NativeEngine grows second-order boosted trees for logistic loss with exact
// greedy split search.
type NativeEngine struct {
	params BoosterParams
}

func NewNativeEngine(params BoosterParams) *NativeEngine {
	return &NativeEngine{params: params}
}

func (e *NativeEngine) Name() string { return common.EngineNative }

func (e *NativeEngine) Fit(ctx context.Context, x *mat.Dense, y []int, scalePosWeight float64) (*Ensemble, error) {
	rows, cols := x.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("feature rows (%d) and labels (%d) differ", rows, len(y))
	}
	if e.params.BaseScore <= 0 || e.params.BaseScore >= 1 {
		return nil, fmt.Errorf("base score must be in (0, 1), got %f", e.params.BaseScore)
	}

	b := &builder{
		params: e.params,
		rows:   make([][]float64, rows),
		grad:   make([]float64, rows),
		hess:   make([]float64, rows),
	}
	for i := range b.rows {
		b.rows[i] = x.RawRowView(i)
	}

	weights := make([]float64, rows)
	for i, l := range y {
		weights[i] = 1
		if l == 1 {
			weights[i] = scalePosWeight
		}
	}

	ensemble := &Ensemble{BaseScore: e.params.BaseScore, NumFeatures: cols}
	margin := make([]float64, rows)
	base := logit(e.params.BaseScore)
	for i := range margin {
		margin[i] = base
	}

	all := make([]int, rows)
	for i := range all {
		all[i] = i
	}

	for round := 0; round < e.params.NEstimators; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i := range margin {
			p := sigmoid(margin[i])
			b.grad[i] = weights[i] * (p - float64(y[i]))
			b.hess[i] = weights[i] * p * (1 - p)
		}

		tree := b.grow(all, 0)
		for i, row := range b.rows {
			margin[i] += tree.eval(row)
		}
		ensemble.Trees = append(ensemble.Trees, tree)
	}

	return ensemble, nil
}

type builder struct {
	params BoosterParams
	rows   [][]float64
	grad   []float64
	hess   []float64
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

type gradPair struct {
	g, h float64
}

func (b *builder) sums(idx []int) (g, h float64) {
	for _, i := range idx {
		g += b.grad[i]
		h += b.hess[i]
	}
	return g, h
}

func (b *builder) score(g, h float64) float64 {
	return g * g / (h + b.params.Lambda)
}

func (b *builder) grow(idx []int, depth int) *Node {
	g, h := b.sums(idx)
	leaf := &Node{Leaf: -g / (h + b.params.Lambda) * b.params.LearningRate}
	if depth >= b.params.MaxDepth || len(idx) < 2 {
		return leaf
	}

	best, ok := b.bestSplit(idx, g, h)
	if !ok {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		if b.rows[i][best.feature] < best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &Node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      b.grow(left, depth+1),
		Right:     b.grow(right, depth+1),
	}
}

func (b *builder) bestSplit(idx []int, g, h float64) (split, bool) {
	var best split
	found := false
	parent := b.score(g, h)
	cols := len(b.rows[idx[0]])

	for f := 0; f < cols; f++ {
		byValue := make(map[float64]*gradPair)
		for _, i := range idx {
			v := b.rows[i][f]
			p, ok := byValue[v]
			if !ok {
				p = &gradPair{}
				byValue[v] = p
			}
			p.g += b.grad[i]
			p.h += b.hess[i]
		}
		if len(byValue) < 2 {
			continue
		}

		values := make([]float64, 0, len(byValue))
		for v := range byValue {
			values = append(values, v)
		}
		sort.Float64s(values)

		var gl, hl float64
		for k := 0; k < len(values)-1; k++ {
			gl += byValue[values[k]].g
			hl += byValue[values[k]].h
			gr, hr := g-gl, h-hl
			if hl < b.params.MinChildWeight || hr < b.params.MinChildWeight {
				continue
			}

			gain := 0.5*(b.score(gl, hl)+b.score(gr, hr)-parent) - b.params.Gamma
			if gain > minSplitGain && (!found || gain > best.gain) {
				best = split{feature: f, threshold: (values[k] + values[k+1]) / 2, gain: gain}
				found = true
			}
		}
	}
	return best, found
}
