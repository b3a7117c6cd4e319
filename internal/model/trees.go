package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/couchcryptid/airwatch-service/internal/domain"
)

// Node is one node of a binary regression tree. Leaves carry Leaf; split
// nodes send x[Feature] <= Threshold to Left and everything else to Right.
type Node struct {
	Feature   int      `json:"feature"`
	Threshold float64  `json:"threshold"`
	Left      *Node    `json:"left,omitempty"`
	Right     *Node    `json:"right,omitempty"`
	Leaf      *float64 `json:"leaf,omitempty"`
}

func (n *Node) eval(x domain.Vector) float64 {
	for n.Leaf == nil {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return *n.Leaf
}

func (n *Node) validate(width int) error {
	if n == nil {
		return errors.New("nil node")
	}
	if n.Leaf != nil {
		return nil
	}
	if n.Feature < 0 || n.Feature >= width {
		return fmt.Errorf("split feature %d out of range [0,%d)", n.Feature, width)
	}
	if err := n.Left.validate(width); err != nil {
		return err
	}
	return n.Right.validate(width)
}

func (n *Node) countSplits(counts []float64) {
	if n.Leaf != nil {
		return
	}
	counts[n.Feature]++
	n.Left.countSplits(counts)
	n.Right.countSplits(counts)
}

// TreeEnsemble is a boosted ensemble of binary trees.
type TreeEnsemble struct {
	BaseScore   float64
	Width       int
	Trees       []*Node
	Importances []float64
}

// NumFeatures returns the expected vector width.
func (m *TreeEnsemble) NumFeatures() int { return m.Width }

// PredictProbability sums the tree outputs and maps the margin through the
// sigmoid.
func (m *TreeEnsemble) PredictProbability(x domain.Vector) (float64, error) {
	if len(x) != m.Width {
		return 0, fmt.Errorf("%w: got %d values, want %d", domain.ErrVectorShape, len(x), m.Width)
	}
	margin := m.BaseScore
	for _, t := range m.Trees {
		margin += t.eval(x)
	}
	return sigmoid(margin), nil
}

// FeatureImportances returns the artifact's importances, or the normalized
// split counts per feature when the artifact carries none.
func (m *TreeEnsemble) FeatureImportances() []float64 {
	if m.Importances != nil {
		return m.Importances
	}
	counts := make([]float64, m.Width)
	for _, t := range m.Trees {
		t.countSplits(counts)
	}
	if total := floats.Sum(counts); total > 0 {
		floats.Scale(1/total, counts)
	}
	return counts
}
