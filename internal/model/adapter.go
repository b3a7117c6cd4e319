package model

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/airwatch-service/internal/domain"
	"github.com/couchcryptid/airwatch-service/internal/observability"
)

// TopImportances is the number of features reported by FeatureImportance.
const TopImportances = 5

type loaded struct {
	clf    Classifier
	schema []string
}

// Adapter lazily loads a classifier on first use and scores feature mappings
// against its schema. A failed load is retried on the next call.
type Adapter struct {
	loader  Loader
	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	state atomic.Pointer[loaded]
}

// NewAdapter creates an Adapter backed by loader.
func NewAdapter(loader Loader, logger *slog.Logger, metrics *observability.Metrics) *Adapter {
	return &Adapter{loader: loader, logger: logger, metrics: metrics}
}

// Load forces the model to load. It is a no-op once a load has succeeded.
func (a *Adapter) Load(ctx context.Context) error {
	_, err := a.ensure(ctx)
	return err
}

// Loaded reports whether the model is ready without triggering a load.
func (a *Adapter) Loaded() bool {
	return a.state.Load() != nil
}

// CheckReadiness reports an error until the model has loaded.
func (a *Adapter) CheckReadiness(_ context.Context) error {
	if !a.Loaded() {
		return domain.ErrModelUnavailable
	}
	return nil
}

// Schema returns a copy of the loaded feature schema, or nil before loading.
func (a *Adapter) Schema() []string {
	s := a.state.Load()
	if s == nil {
		return nil
	}
	return slices.Clone(s.schema)
}

func (a *Adapter) ensure(ctx context.Context) (*loaded, error) {
	if s := a.state.Load(); s != nil {
		return s, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if s := a.state.Load(); s != nil {
		return s, nil
	}

	start := time.Now()
	clf, schema, err := a.loader.Load(ctx)
	a.metrics.ModelLoadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		a.logger.Error("model load failed", "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}

	s := &loaded{clf: clf, schema: schema}
	a.state.Store(s)
	a.metrics.ModelLoaded.Set(1)
	a.logger.Info("model loaded", "features", len(schema), "duration", time.Since(start))
	return s, nil
}

// Score assembles f against the schema and returns P(Unhealthy).
// Schema features absent from f are replaced by the default value and reported.
func (a *Adapter) Score(ctx context.Context, f domain.Features) (float64, error) {
	s, err := a.ensure(ctx)
	if err != nil {
		return 0, err
	}

	vec, missing := domain.Assemble(f, s.schema)
	for _, name := range missing {
		a.logger.Warn("feature missing, using default", "feature", name, "default", domain.DefaultFeatureValue)
		a.metrics.MissingFeatures.WithLabelValues(name).Inc()
	}

	p, err := s.clf.PredictProbability(vec)
	if err != nil {
		return 0, fmt.Errorf("score: %w", err)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}
	return p, nil
}

// FeatureImportance returns the TopImportances most important features in
// descending order, loading the model if needed. It returns nil without an
// error when the classifier does not report importances.
func (a *Adapter) FeatureImportance(ctx context.Context) ([]domain.FeatureWeight, error) {
	s, err := a.ensure(ctx)
	if err != nil {
		return nil, err
	}
	r, ok := s.clf.(ImportanceReporter)
	if !ok {
		return nil, nil
	}
	imp := r.FeatureImportances()
	if len(imp) != len(s.schema) {
		return nil, nil
	}

	weights := make([]domain.FeatureWeight, len(imp))
	for i, w := range imp {
		weights[i] = domain.FeatureWeight{Feature: s.schema[i], Weight: w}
	}
	slices.SortStableFunc(weights, func(x, y domain.FeatureWeight) int {
		return cmp.Compare(y.Weight, x.Weight)
	})
	if len(weights) > TopImportances {
		weights = weights[:TopImportances]
	}
	return weights, nil
}
