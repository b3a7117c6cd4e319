package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/airwatch-service/internal/domain"
	"github.com/couchcryptid/airwatch-service/internal/observability"
)

// LocationPredictor produces tomorrow's decision for a ZIP code.
type LocationPredictor interface {
	PredictLocation(ctx context.Context, zip string) (domain.Decision, error)
}

// DecisionSink writes decisions to the destination.
type DecisionSink interface {
	Publish(ctx context.Context, decisions []domain.Decision) error
}

const (
	initialBackoff     = 200 * time.Millisecond
	maxBackoff         = 5 * time.Second
	maxPublishAttempts = 5
)

// Publisher periodically predicts a fixed set of locations and publishes the
// decisions.
type Publisher struct {
	predictor LocationPredictor
	sink      DecisionSink
	locations []string
	interval  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// NewPublisher creates a Publisher that runs one cycle every interval.
func NewPublisher(
	predictor LocationPredictor,
	sink DecisionSink,
	locations []string,
	interval time.Duration,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Publisher {
	return &Publisher{
		predictor: predictor,
		sink:      sink,
		locations: locations,
		interval:  interval,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a batch has been published.
func (p *Publisher) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("publisher has not published any decisions yet")
	}
	return nil
}

// Run publishes immediately and then every interval until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("publisher started", "locations", len(p.locations), "interval", p.interval)
	p.metrics.PublisherRunning.Set(1)
	defer p.metrics.PublisherRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.publishCycle(ctx)

		select {
		case <-ctx.Done():
			p.logger.Info("publisher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// publishCycle predicts every location and publishes the successes.
func (p *Publisher) publishCycle(ctx context.Context) {
	start := p.clock.Now()

	decisions := make([]domain.Decision, 0, len(p.locations))
	for _, zip := range p.locations {
		d, err := p.predictor.PredictLocation(ctx, zip)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("prediction failed, skipping location", "location", zip, "error", err)
			continue
		}
		decisions = append(decisions, d)
	}
	if len(decisions) == 0 {
		return
	}

	if !p.publishWithRetry(ctx, decisions) {
		return
	}

	p.metrics.Published.Add(float64(len(decisions)))
	p.metrics.PublishBatchDuration.Observe(p.clock.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Info("decisions published", "count", len(decisions))
}

// publishWithRetry retries failed writes with exponential backoff. It returns
// false if the batch was dropped or ctx was cancelled.
func (p *Publisher) publishWithRetry(ctx context.Context, decisions []domain.Decision) bool {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := p.sink.Publish(ctx, decisions)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("publish batch failed", "error", err, "attempt", attempt, "batch_size", len(decisions))
		if attempt >= maxPublishAttempts {
			p.metrics.PublishFailures.Inc()
			return false
		}
		if !sleepWithContext(ctx, p.clock, backoff) {
			return false
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
