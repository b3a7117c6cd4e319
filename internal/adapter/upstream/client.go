// Package upstream implements the observation and forecast sources against
// the AirNow and National Weather Service HTTP APIs.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/airwatch-service/internal/observability"
)

// maxBodyBytes bounds upstream response bodies.
const maxBodyBytes = 4 << 20

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Code, e.Body)
}

// Client issues GET requests through a circuit breaker and records
// per-source request metrics.
type Client struct {
	source    string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
	userAgent string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewClient creates a client for one upstream source.
func NewClient(source string, timeout time.Duration, userAgent string, logger *slog.Logger, metrics *observability.Metrics) *Client {
	logger = logger.With("source", source)
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        source,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			// Client errors say nothing about upstream health.
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < 500 && se.Code != http.StatusTooManyRequests
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
		},
	})
	return &Client{
		source:    source,
		http:      &http.Client{Timeout: timeout},
		breaker:   cb,
		userAgent: userAgent,
		logger:    logger,
		metrics:   metrics,
	}
}

// GetJSON fetches url and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, url)
	})
	c.metrics.UpstreamDuration.WithLabelValues(c.source).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(c.source, "error").Inc()
		return fmt.Errorf("%s request: %w", c.source, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(c.source, "error").Inc()
		return fmt.Errorf("decode %s response: %w", c.source, err)
	}
	return nil
}

// Record counts the outcome of a decoded response.
func (c *Client) Record(outcome string) {
	c.metrics.UpstreamRequests.WithLabelValues(c.source, outcome).Inc()
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > 256 {
			body = body[:256]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
