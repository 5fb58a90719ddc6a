package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func stump(feature int) *Node {
	return &Node{Feature: feature, Threshold: 0.5, Left: &Node{Leaf: -1}, Right: &Node{Leaf: 1}}
}

func TestEnsemble_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ens     Ensemble
		wantErr string
	}{
		{"valid", Ensemble{BaseScore: 0.5, NumFeatures: 2, Trees: []*Node{stump(0), stump(1)}}, ""},
		{"leaf only", Ensemble{BaseScore: 0.5, NumFeatures: 1, Trees: []*Node{{Leaf: 0.3}}}, ""},
		{"no features", Ensemble{BaseScore: 0.5, Trees: []*Node{{Leaf: 0.3}}}, "0 features"},
		{"feature past last column", Ensemble{BaseScore: 0.5, NumFeatures: 1, Trees: []*Node{stump(5)}}, "tree 0: feature 5 out of range"},
		{"negative feature", Ensemble{BaseScore: 0.5, NumFeatures: 2, Trees: []*Node{stump(0), stump(-1)}}, "tree 1: feature -1"},
		{"nested bad feature", Ensemble{BaseScore: 0.5, NumFeatures: 2, Trees: []*Node{
			{Feature: 0, Threshold: 0.5, Left: &Node{Leaf: 0}, Right: stump(2)},
		}}, "feature 2 out of range"},
		{"single child", Ensemble{BaseScore: 0.5, NumFeatures: 2, Trees: []*Node{
			{Feature: 0, Threshold: 0.5, Right: &Node{Leaf: 1}},
		}}, "single child"},
		{"nil tree", Ensemble{BaseScore: 0.5, NumFeatures: 2, Trees: []*Node{nil}}, "nil node"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ens.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEnsemble_PredictAndDepth(t *testing.T) {
	ens := &Ensemble{BaseScore: 0.5, NumFeatures: 2, Trees: []*Node{
		stump(0),
		{Feature: 1, Threshold: 0.5, Left: &Node{Leaf: 0}, Right: stump(0)},
	}}
	require.NoError(t, ens.Validate())
	assert.Equal(t, 2, ens.MaxDepth())

	x := mat.NewDense(3, 2, []float64{
		0, 0,
		1, 0,
		1, 1,
	})
	probs, err := ens.PredictProba(x)
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(-1), probs[0], 1e-12)
	assert.InDelta(t, sigmoid(1), probs[1], 1e-12)
	assert.InDelta(t, sigmoid(2), probs[2], 1e-12)

	labels, err := ens.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1}, labels)

	_, err = ens.PredictProba(mat.NewDense(1, 3, nil))
	assert.Error(t, err)
}
