package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Artifact families.
const (
	FamilyLogistic     = "logistic"
	FamilyTreeEnsemble = "tree_ensemble"
)

// Artifact is the on-disk JSON form of a trained classifier.
type Artifact struct {
	Type               string    `json:"type"`
	Intercept          float64   `json:"intercept,omitempty"`
	Coefficients       []float64 `json:"coefficients,omitempty"`
	BaseScore          float64   `json:"base_score,omitempty"`
	NumFeatures        int       `json:"num_features,omitempty"`
	Trees              []*Node   `json:"trees,omitempty"`
	FeatureImportances []float64 `json:"feature_importances,omitempty"`
}

// Decode reads an artifact from r and builds its classifier.
func Decode(r io.Reader) (Classifier, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return a.Classifier()
}

// Classifier validates the artifact and returns the classifier it describes.
func (a Artifact) Classifier() (Classifier, error) {
	switch a.Type {
	case FamilyLogistic:
		if len(a.Coefficients) == 0 {
			return nil, errors.New("logistic artifact has no coefficients")
		}
		if err := checkImportances(a.FeatureImportances, len(a.Coefficients)); err != nil {
			return nil, err
		}
		return &Logistic{
			Intercept:    a.Intercept,
			Coefficients: a.Coefficients,
			Importances:  a.FeatureImportances,
		}, nil
	case FamilyTreeEnsemble:
		if a.NumFeatures <= 0 {
			return nil, errors.New("tree_ensemble artifact needs num_features")
		}
		if len(a.Trees) == 0 {
			return nil, errors.New("tree_ensemble artifact has no trees")
		}
		for i, t := range a.Trees {
			if err := t.validate(a.NumFeatures); err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
		}
		if err := checkImportances(a.FeatureImportances, a.NumFeatures); err != nil {
			return nil, err
		}
		return &TreeEnsemble{
			BaseScore:   a.BaseScore,
			Width:       a.NumFeatures,
			Trees:       a.Trees,
			Importances: a.FeatureImportances,
		}, nil
	default:
		return nil, fmt.Errorf("unknown model type %q", a.Type)
	}
}

func checkImportances(imp []float64, width int) error {
	if imp != nil && len(imp) != width {
		return fmt.Errorf("feature_importances has %d entries, want %d", len(imp), width)
	}
	return nil
}
