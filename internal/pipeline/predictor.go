package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/airwatch-service/internal/domain"
)

// CustomLocation labels decisions made from an explicit feature set.
const CustomLocation = "Custom"

// Scorer returns P(Unhealthy) for a feature mapping.
type Scorer interface {
	Score(ctx context.Context, f domain.Features) (float64, error)
}

// Predictor turns serving inputs into decisions.
type Predictor struct {
	scorer    Scorer
	threshold float64
}

// NewPredictor creates a Predictor that labels probabilities against threshold.
func NewPredictor(scorer Scorer, threshold float64) *Predictor {
	return &Predictor{scorer: scorer, threshold: threshold}
}

// Predict classifies the day after asOf for location from the serving bundle.
func (p *Predictor) Predict(ctx context.Context, location string, asOf time.Time, b domain.Bundle) (domain.Decision, error) {
	f, target := domain.ServingFeatures(asOf, b)
	return p.decide(ctx, location, target, f)
}

// PredictFromFeatures classifies the day after asOf from an explicit feature
// set, filling in the derived fields.
func (p *Predictor) PredictFromFeatures(ctx context.Context, asOf time.Time, in domain.FeatureInput) (domain.Decision, error) {
	f := domain.Augment(in.Features())
	return p.decide(ctx, CustomLocation, asOf.AddDate(0, 0, 1), f)
}

func (p *Predictor) decide(ctx context.Context, location string, target time.Time, f domain.Features) (domain.Decision, error) {
	prob, err := p.scorer.Score(ctx, f)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("predict %s: %w", location, err)
	}
	return domain.Decide(domain.DecisionInput{
		Location:    location,
		TargetDate:  target,
		Probability: prob,
		Threshold:   p.threshold,
		Features:    f,
	}), nil
}
