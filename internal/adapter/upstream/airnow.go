package upstream

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/airwatch-service/internal/observability"
)

// SourceAirNow labels AirNow requests in logs and metrics.
const SourceAirNow = "airnow"

const (
	airNowCurrentPath = "/aq/observation/zipCode/current/"
	airNowParameter   = "PM2.5"
	airNowDistance    = "25"
)

// AirNow reads current observations from the AirNow API.
type AirNow struct {
	client  *Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewAirNow creates an AirNow observation source. Without an API key every
// lookup reports no data.
func NewAirNow(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *AirNow {
	return &AirNow{
		client:  NewClient(SourceAirNow, timeout, "", logger, metrics),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
	}
}

type airNowObservation struct {
	DateObserved  string  `json:"DateObserved"`
	ReportingArea string  `json:"ReportingArea"`
	ParameterName string  `json:"ParameterName"`
	AQI           float64 `json:"AQI"`
}

// CurrentAQI returns the current PM2.5 AQI for zip, or nil when AirNow has
// no PM2.5 observation or no API key is configured.
func (a *AirNow) CurrentAQI(ctx context.Context, zip string) (*float64, error) {
	if a.apiKey == "" {
		a.logger.Debug("no AirNow API key configured")
		return nil, nil
	}

	params := url.Values{
		"format":   {"application/json"},
		"zipCode":  {zip},
		"distance": {airNowDistance},
		"API_KEY":  {a.apiKey},
	}
	var obs []airNowObservation
	if err := a.client.GetJSON(ctx, a.baseURL+airNowCurrentPath+"?"+params.Encode(), &obs); err != nil {
		return nil, err
	}

	for _, o := range obs {
		if o.ParameterName == airNowParameter {
			a.client.Record("success")
			aqi := o.AQI
			return &aqi, nil
		}
	}
	a.client.Record("empty")
	return nil, nil
}
