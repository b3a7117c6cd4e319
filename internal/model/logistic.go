package model

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/couchcryptid/airwatch-service/internal/domain"
)

// Logistic is a fitted logistic regression.
type Logistic struct {
	Intercept    float64
	Coefficients []float64
	Importances  []float64
}

// NumFeatures returns the expected vector width.
func (m *Logistic) NumFeatures() int { return len(m.Coefficients) }

// PredictProbability returns sigmoid(intercept + coefficients·x).
func (m *Logistic) PredictProbability(x domain.Vector) (float64, error) {
	if len(x) != len(m.Coefficients) {
		return 0, fmt.Errorf("%w: got %d values, want %d", domain.ErrVectorShape, len(x), len(m.Coefficients))
	}
	return sigmoid(m.Intercept + floats.Dot(m.Coefficients, x)), nil
}

// FeatureImportances returns the artifact's importances, possibly nil.
func (m *Logistic) FeatureImportances() []float64 { return m.Importances }
