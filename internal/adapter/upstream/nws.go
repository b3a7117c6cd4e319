package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/airwatch-service/internal/domain"
	"github.com/couchcryptid/airwatch-service/internal/observability"
)

// SourceNWS labels National Weather Service requests in logs and metrics.
const SourceNWS = "nws"

// DefaultWindMPH is used when a wind speed string cannot be parsed.
const DefaultWindMPH = 5.0

const (
	defaultPeriodTempF = 70.0
	tomorrowWindow     = 4
)

// ErrNoForecast is returned when the forecast has no usable period.
var ErrNoForecast = errors.New("no forecast period for tomorrow")

// NWS reads next-day forecasts from api.weather.gov.
type NWS struct {
	client  *Client
	baseURL string
}

// NewNWS creates a forecast source. userAgent is required by the API.
func NewNWS(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *NWS {
	return &NWS{
		client:  NewClient(SourceNWS, timeout, userAgent, logger, metrics),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type pointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []period `json:"periods"`
	} `json:"properties"`
}

type period struct {
	Name                       string   `json:"name"`
	Temperature                *float64 `json:"temperature"`
	WindSpeed                  string   `json:"windSpeed"`
	WindDirection              string   `json:"windDirection"`
	ShortForecast              string   `json:"shortForecast"`
	ProbabilityOfPrecipitation struct {
		Value *float64 `json:"value"`
	} `json:"probabilityOfPrecipitation"`
}

// TomorrowForecast resolves the forecast office for the coordinate and returns
// the period covering tomorrow.
func (n *NWS) TomorrowForecast(ctx context.Context, lat, lon float64) (domain.ForecastSnapshot, error) {
	var pts pointsResponse
	if err := n.client.GetJSON(ctx, fmt.Sprintf("%s/points/%.4f,%.4f", n.baseURL, lat, lon), &pts); err != nil {
		return domain.ForecastSnapshot{}, err
	}
	if pts.Properties.Forecast == "" {
		n.client.Record("empty")
		return domain.ForecastSnapshot{}, errors.New("points response has no forecast URL")
	}

	var fc forecastResponse
	if err := n.client.GetJSON(ctx, pts.Properties.Forecast, &fc); err != nil {
		return domain.ForecastSnapshot{}, err
	}

	p, ok := pickTomorrow(fc.Properties.Periods)
	if !ok {
		n.client.Record("empty")
		return domain.ForecastSnapshot{}, ErrNoForecast
	}
	n.client.Record("success")
	return p.snapshot(), nil
}

// pickTomorrow returns the first of the leading periods named for tomorrow,
// falling back to the second period.
func pickTomorrow(periods []period) (period, bool) {
	for i, p := range periods {
		if i >= tomorrowWindow {
			break
		}
		if strings.Contains(strings.ToLower(p.Name), "tomorrow") {
			return p, true
		}
	}
	if len(periods) >= 2 {
		return periods[1], true
	}
	return period{}, false
}

func (p period) snapshot() domain.ForecastSnapshot {
	temp := defaultPeriodTempF
	if p.Temperature != nil {
		temp = *p.Temperature
	}
	var precip float64
	if v := p.ProbabilityOfPrecipitation.Value; v != nil {
		precip = *v
	}
	return domain.ForecastSnapshot{
		Temperature:       temp,
		WindSpeedText:     p.WindSpeed,
		WindSpeed:         ParseWindSpeed(p.WindSpeed),
		WindDirection:     p.WindDirection,
		ShortForecast:     p.ShortForecast,
		PrecipProbability: precip,
	}
}

// ParseWindSpeed reads strings like "10 mph" or "10 to 15 mph", averaging a
// range. A missing speed is 0 and anything else yields DefaultWindMPH.
func ParseWindSpeed(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	s = strings.TrimSpace(strings.ReplaceAll(strings.ToLower(s), "mph", ""))
	parts := strings.Split(s, "to")
	switch len(parts) {
	case 1:
		if v, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err == nil {
			return v
		}
	case 2:
		lo, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		hi, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 == nil && err2 == nil {
			return (lo + hi) / 2
		}
	}
	return DefaultWindMPH
}
