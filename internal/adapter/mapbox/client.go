package mapbox

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/airwatch-service/internal/adapter/upstream"
	"github.com/couchcryptid/airwatch-service/internal/domain"
	"github.com/couchcryptid/airwatch-service/internal/observability"
)

// SourceMapbox labels Mapbox requests in logs and metrics.
const SourceMapbox = "mapbox"

const geocodePath = "/geocoding/v5/mapbox.places"

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	client  *upstream.Client
	token   string
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		client:  upstream.NewClient(SourceMapbox, timeout, "", logger, metrics),
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// GeocodeZIP looks up a US postal code.
func (c *Client) GeocodeZIP(ctx context.Context, zip string) (domain.Coordinates, bool, error) {
	u := fmt.Sprintf("%s%s/%s.json", c.baseURL, geocodePath, url.PathEscape(zip))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"postcode"},
		"country":      {"us"},
	}

	var resp response
	if err := c.client.GetJSON(ctx, u+"?"+params.Encode(), &resp); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocode %s: %w", zip, err)
	}

	if len(resp.Features) == 0 || len(resp.Features[0].Center) != 2 {
		c.client.Record("empty")
		return domain.Coordinates{}, false, nil
	}

	f := resp.Features[0]
	c.client.Record("success")
	c.logger.Debug("zip geocoded", "zip", zip, "place", f.PlaceName, "relevance", f.Relevance)
	// Mapbox uses lon,lat order.
	return domain.Coordinates{Lat: f.Center[1], Lon: f.Center[0]}, true, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Relevance float64   `json:"relevance"`
}
