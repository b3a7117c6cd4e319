package model

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/airwatch-service/internal/domain"
)

func leaf(v float64) *Node { return &Node{Leaf: &v} }

func stump(feature int, threshold, left, right float64) *Node {
	return &Node{Feature: feature, Threshold: threshold, Left: leaf(left), Right: leaf(right)}
}

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, sigmoid(0))
	assert.InDelta(t, 1/(1+math.Exp(-2)), sigmoid(2), 1e-15)
	assert.InDelta(t, 1-sigmoid(3), sigmoid(-3), 1e-15)
	assert.Equal(t, 0.0, sigmoid(-1000))
	assert.Equal(t, 1.0, sigmoid(1000))
}

func TestLogistic_PredictProbability(t *testing.T) {
	m := &Logistic{Intercept: -1, Coefficients: []float64{0.02, -0.5}}

	p, err := m.PredictProbability(domain.Vector{50, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.5, p)

	_, err = m.PredictProbability(domain.Vector{1})
	assert.ErrorIs(t, err, domain.ErrVectorShape)
}

func TestTreeEnsemble_PredictProbability(t *testing.T) {
	m := &TreeEnsemble{
		BaseScore: 0.25,
		Width:     2,
		Trees: []*Node{
			stump(0, 50, -1, 1),
			stump(1, 10, 0.5, -0.5),
		},
	}

	tests := []struct {
		x      domain.Vector
		margin float64
	}{
		{domain.Vector{50, 10}, 0.25 - 1 + 0.5},
		{domain.Vector{51, 10}, 0.25 + 1 + 0.5},
		{domain.Vector{20, 11}, 0.25 - 1 - 0.5},
	}
	for _, tt := range tests {
		p, err := m.PredictProbability(tt.x)
		require.NoError(t, err)
		assert.InDelta(t, sigmoid(tt.margin), p, 1e-15, "x=%v", tt.x)
	}

	_, err := m.PredictProbability(domain.Vector{1, 2, 3})
	assert.ErrorIs(t, err, domain.ErrVectorShape)
}

func TestTreeEnsemble_SplitCountImportances(t *testing.T) {
	deep := &Node{Feature: 0, Threshold: 1, Left: stump(2, 0, 0, 1), Right: leaf(0)}
	m := &TreeEnsemble{Width: 3, Trees: []*Node{deep, stump(0, 5, 0, 1)}}

	assert.Equal(t, roundAll([]float64{2.0 / 3, 0, 1.0 / 3}), roundAll(m.FeatureImportances()))

	m.Importances = []float64{0.1, 0.2, 0.7}
	assert.Equal(t, []float64{0.1, 0.2, 0.7}, m.FeatureImportances())
}

func roundAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Round(x*1e9) / 1e9
	}
	return out
}

func TestDecode(t *testing.T) {
	t.Run("logistic", func(t *testing.T) {
		clf, err := Decode(strings.NewReader(`{"type":"logistic","intercept":0.5,"coefficients":[1,2,3]}`))
		require.NoError(t, err)
		assert.Equal(t, 3, clf.NumFeatures())
		assert.Nil(t, clf.(ImportanceReporter).FeatureImportances())
	})

	t.Run("tree ensemble", func(t *testing.T) {
		clf, err := Decode(strings.NewReader(`{
			"type": "tree_ensemble",
			"base_score": 0,
			"num_features": 2,
			"trees": [{"feature": 1, "threshold": 3, "left": {"leaf": -0.2}, "right": {"leaf": 0.4}}]
		}`))
		require.NoError(t, err)
		p, err := clf.PredictProbability(domain.Vector{0, 4})
		require.NoError(t, err)
		assert.InDelta(t, sigmoid(0.4), p, 1e-15)
	})

	t.Run("zero valued leaf", func(t *testing.T) {
		clf, err := Decode(strings.NewReader(`{"type":"tree_ensemble","num_features":1,"trees":[{"leaf":0}]}`))
		require.NoError(t, err)
		p, err := clf.PredictProbability(domain.Vector{7})
		require.NoError(t, err)
		assert.Equal(t, 0.5, p)
	})

	errCases := map[string]string{
		"unknown type":       `{"type":"forest"}`,
		"no coefficients":    `{"type":"logistic"}`,
		"no width":           `{"type":"tree_ensemble","trees":[{"leaf":1}]}`,
		"no trees":           `{"type":"tree_ensemble","num_features":1}`,
		"split out of range": `{"type":"tree_ensemble","num_features":1,"trees":[{"feature":3,"left":{"leaf":0},"right":{"leaf":1}}]}`,
		"missing child":      `{"type":"tree_ensemble","num_features":1,"trees":[{"feature":0,"left":{"leaf":0}}]}`,
		"importance width":   `{"type":"logistic","coefficients":[1,2],"feature_importances":[1]}`,
		"malformed json":     `{"type":`,
	}
	for name, doc := range errCases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}
