package domain

import "context"

// ObservationSource provides the latest observed AQI for a ZIP code.
type ObservationSource interface {
	// CurrentAQI returns the most recent AQI, or nil when the provider has no data.
	CurrentAQI(ctx context.Context, zip string) (*float64, error)
}

// ForecastSource provides the next-day weather forecast for a coordinate.
type ForecastSource interface {
	// TomorrowForecast returns the forecast period covering tomorrow.
	TomorrowForecast(ctx context.Context, lat, lon float64) (ForecastSnapshot, error)
}

// Geocoder resolves ZIP codes missing from the built-in coordinate table.
type Geocoder interface {
	// GeocodeZIP returns the coordinates of zip. found is false when the
	// provider has no match.
	GeocodeZIP(ctx context.Context, zip string) (coords Coordinates, found bool, err error)
}
