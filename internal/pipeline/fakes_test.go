package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/couchcryptid/airwatch-service/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeModel returns a fixed probability and records what it scored.
type fakeModel struct {
	mu       sync.Mutex
	p        float64
	err      error
	loadErr  error
	loaded   bool
	scored   []domain.Features
	loadCall int
}

func (m *fakeModel) Score(_ context.Context, f domain.Features) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scored = append(m.scored, f)
	if m.err != nil {
		return 0, m.err
	}
	return m.p, nil
}

func (m *fakeModel) Load(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCall++
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loaded = true
	return nil
}

func (m *fakeModel) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

func (m *fakeModel) CheckReadiness(context.Context) error {
	if !m.Loaded() {
		return domain.ErrModelUnavailable
	}
	return nil
}

func (m *fakeModel) FeatureImportance(ctx context.Context) ([]domain.FeatureWeight, error) {
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	return []domain.FeatureWeight{{Feature: domain.FeatAQIPrev1, Weight: 0.4}}, nil
}

func (m *fakeModel) lastScored() domain.Features {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.scored) == 0 {
		return nil
	}
	return m.scored[len(m.scored)-1]
}

func (m *fakeModel) scoreCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scored)
}

type fakeObservations struct {
	mu    sync.Mutex
	aqi   *float64
	err   error
	calls int

	// When set, entered is closed on the first call, which then blocks on gate.
	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeObservations) CurrentAQI(ctx context.Context, _ string) (*float64, error) {
	if f.gate != nil {
		close(f.entered)
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.aqi, f.err
}

type fakeForecasts struct {
	mu     sync.Mutex
	fc     domain.ForecastSnapshot
	err    error
	coords []domain.Coordinates
}

func (f *fakeForecasts) TomorrowForecast(_ context.Context, lat, lon float64) (domain.ForecastSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coords = append(f.coords, domain.Coordinates{Lat: lat, Lon: lon})
	return f.fc, f.err
}

type fakeGeocoder struct {
	mu     sync.Mutex
	coords domain.Coordinates
	found  bool
	err    error
	zips   []string
}

func (g *fakeGeocoder) GeocodeZIP(_ context.Context, zip string) (domain.Coordinates, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.zips = append(g.zips, zip)
	return g.coords, g.found, g.err
}

var errUpstream = errors.New("upstream unavailable")
