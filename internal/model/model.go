// Package model loads a trained next-day AQI classifier from a JSON artifact
// and scores feature vectors with it.
//
// Two model families are supported: "logistic" (intercept plus coefficients)
// and "tree_ensemble" (binary boosted trees whose leaf values are summed with a
// base score). Both map their margin through the logistic function, so every
// classifier returns the probability of the Unhealthy class.
package model

import (
	"errors"
	"math"

	"github.com/couchcryptid/airwatch-service/internal/domain"
)

// ErrInvalidProbability is returned when a classifier produces a value
// outside [0, 1] or a non-finite value.
var ErrInvalidProbability = errors.New("model returned an invalid probability")

// Classifier scores an assembled feature vector.
type Classifier interface {
	// NumFeatures is the vector width the classifier was trained on.
	NumFeatures() int
	// PredictProbability returns P(Unhealthy) for x.
	PredictProbability(x domain.Vector) (float64, error)
}

// ImportanceReporter is implemented by classifiers that expose per-feature
// importances, aligned with the feature schema. A nil result means the
// artifact carries none.
type ImportanceReporter interface {
	FeatureImportances() []float64
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
