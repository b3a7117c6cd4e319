package pipeline

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/airwatch-service/internal/cache"
	"github.com/couchcryptid/airwatch-service/internal/domain"
	"github.com/couchcryptid/airwatch-service/internal/observability"
)

// Request paths, used as metric labels.
const (
	PathLocation = "location"
	PathFeatures = "features"
)

// Model is the scoring adapter as seen by the service.
type Model interface {
	Scorer
	Load(ctx context.Context) error
	Loaded() bool
	CheckReadiness(ctx context.Context) error
	FeatureImportance(ctx context.Context) ([]domain.FeatureWeight, error)
}

// Service answers next-day predictions, caching location predictions per day.
type Service struct {
	model        Model
	predictor    *Predictor
	results      *cache.Results
	observations domain.ObservationSource
	forecasts    domain.ForecastSource
	geocoder     domain.Geocoder
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewService wires the prediction service. Either source may be nil, in
// which case the serving defaults are used. A nil geocoder sends ZIP codes
// outside the built-in table to the state center.
func NewService(
	model Model,
	threshold float64,
	results *cache.Results,
	observations domain.ObservationSource,
	forecasts domain.ForecastSource,
	geocoder domain.Geocoder,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		model:        model,
		predictor:    NewPredictor(model, threshold),
		results:      results,
		observations: observations,
		forecasts:    forecasts,
		geocoder:     geocoder,
		clock:        clock,
		logger:       logger,
		metrics:      metrics,
	}
}

// PredictLocation returns tomorrow's decision for a ZIP code. Decisions are
// computed at most once per location and day.
func (s *Service) PredictLocation(ctx context.Context, zip string) (domain.Decision, error) {
	now := s.clock.Now()
	d, err := s.results.GetOrCompute(ctx, cache.NewKey(zip, now), func(ctx context.Context) (domain.Decision, error) {
		b := s.gather(ctx, zip)
		return s.predictor.Predict(ctx, zip, now, b)
	})
	if err != nil {
		s.metrics.PredictionErrors.WithLabelValues(PathLocation).Inc()
		s.logger.Error("prediction failed", "location", zip, "error", err)
		return domain.Decision{}, err
	}
	s.metrics.Predictions.WithLabelValues(PathLocation, string(d.Classification)).Inc()
	return d, nil
}

// PredictFeatures classifies tomorrow from an explicit feature set. Results
// are not cached.
func (s *Service) PredictFeatures(ctx context.Context, in domain.FeatureInput) (domain.Decision, error) {
	d, err := s.predictor.PredictFromFeatures(ctx, s.clock.Now(), in)
	if err != nil {
		s.metrics.PredictionErrors.WithLabelValues(PathFeatures).Inc()
		s.logger.Error("feature prediction failed", "error", err)
		return domain.Decision{}, err
	}
	s.metrics.Predictions.WithLabelValues(PathFeatures, string(d.Classification)).Inc()
	return d, nil
}

// Preload loads the model ahead of the first request. A failure is logged
// and the load is retried lazily.
func (s *Service) Preload(ctx context.Context) {
	if err := s.model.Load(ctx); err != nil {
		s.logger.Warn("model preload failed, will retry on first request", "error", err)
	}
}

// ModelLoaded reports whether the model is ready, attempting a load first if
// an earlier one failed.
func (s *Service) ModelLoaded(ctx context.Context) bool {
	if s.model.Loaded() {
		return true
	}
	if err := s.model.Load(ctx); err != nil {
		s.logger.Warn("model load retry failed", "error", err)
		return false
	}
	return true
}

// CheckReadiness returns nil once the model has loaded.
func (s *Service) CheckReadiness(ctx context.Context) error {
	return s.model.CheckReadiness(ctx)
}

// FeatureImportance returns the model's top features, or nil if unsupported.
// It fails with domain.ErrModelUnavailable when the model cannot be loaded.
func (s *Service) FeatureImportance(ctx context.Context) ([]domain.FeatureWeight, error) {
	return s.model.FeatureImportance(ctx)
}

// gather collects the current observation and tomorrow's forecast. Source
// failures degrade to the serving defaults.
func (s *Service) gather(ctx context.Context, zip string) domain.Bundle {
	var b domain.Bundle
	var g errgroup.Group

	if s.observations != nil {
		g.Go(func() error {
			aqi, err := s.observations.CurrentAQI(ctx, zip)
			if err != nil {
				s.logger.Warn("current observation unavailable, using default", "location", zip, "error", err)
				return nil
			}
			b.CurrentAQI = aqi
			return nil
		})
	}

	if s.forecasts != nil {
		g.Go(func() error {
			coords := s.locate(ctx, zip)
			fc, err := s.forecasts.TomorrowForecast(ctx, coords.Lat, coords.Lon)
			if err != nil {
				s.logger.Warn("forecast unavailable, using defaults", "location", zip, "error", err)
				return nil
			}
			b.Forecast = &fc
			return nil
		})
	}

	_ = g.Wait()
	if b.CurrentAQI == nil {
		s.logger.Debug("no current AQI, using default", "location", zip, "default", domain.DefaultCurrentAQI)
	}
	return b
}

// locate resolves zip from the built-in table, then the geocoder, then the
// state center.
func (s *Service) locate(ctx context.Context, zip string) domain.Coordinates {
	coords, known := domain.Locate(zip)
	if known || s.geocoder == nil {
		if !known {
			s.logger.Debug("unknown zip code, using state center", "location", zip)
		}
		return coords
	}

	geo, found, err := s.geocoder.GeocodeZIP(ctx, zip)
	switch {
	case err != nil:
		s.logger.Warn("geocoding failed, using state center", "location", zip, "error", err)
		return coords
	case !found:
		s.logger.Debug("zip code not found by geocoder, using state center", "location", zip)
		return coords
	}
	return geo
}
