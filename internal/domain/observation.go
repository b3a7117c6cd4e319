package domain

import (
	"fmt"
	"time"
)

// Weather holds the optional weather fields of a daily observation or forecast.
// Nil means the field was not reported.
type Weather struct {
	TempMax *float64 `json:"temp_max,omitempty"` // °F
	WindAvg *float64 `json:"wind_avg,omitempty"` // mph
	Precip  *float64 `json:"precip,omitempty"`   // inches
	RHAvg   *float64 `json:"rh_avg,omitempty"`   // percent
}

// Features returns the raw weather fields that are present, keyed by feature name.
func (w Weather) Features() Features {
	f := Features{}
	setIfPresent(f, FeatTempMax, w.TempMax)
	setIfPresent(f, FeatWindAvg, w.WindAvg)
	setIfPresent(f, FeatPrecip, w.Precip)
	setIfPresent(f, FeatRHAvg, w.RHAvg)
	return f
}

// Observation is a single calendar day's measured AQI plus optional weather.
type Observation struct {
	Date    time.Time `json:"date"`
	AQI     float64   `json:"aqi"`
	Weather Weather   `json:"weather"`
}

// Series is a chronologically ordered sequence of observations for one location.
// Gaps between days are allowed; duplicate dates are a caller error.
type Series []Observation

// Validate checks that dates are strictly increasing by calendar day.
func (s Series) Validate() error {
	for i := 1; i < len(s); i++ {
		prev, cur := civilDay(s[i-1].Date), civilDay(s[i].Date)
		if !cur.After(prev) {
			return fmt.Errorf("%w: %s follows %s at index %d",
				ErrUnorderedSeries, cur.Format(time.DateOnly), prev.Format(time.DateOnly), i)
		}
	}
	return nil
}

// Values returns the AQI values in series order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].AQI
	}
	return out
}

// ForecastSnapshot is the next-day forecast as extracted by the forecast
// collaborator. WindSpeed is already parsed from WindSpeedText.
type ForecastSnapshot struct {
	Temperature       float64 `json:"temperature"`
	WindSpeedText     string  `json:"wind_speed_text"`
	WindSpeed         float64 `json:"wind_speed"`
	WindDirection     string  `json:"wind_direction"`
	ShortForecast     string  `json:"short_forecast"`
	PrecipProbability float64 `json:"precipitation_probability"` // percent
}

// Bundle is everything the serving path knows about a location before scoring.
type Bundle struct {
	// CurrentAQI is the most recent observed AQI. Nil means no data.
	CurrentAQI *float64
	// History holds earlier daily AQI values, oldest first, excluding CurrentAQI.
	History []float64
	// Forecast is the next-day forecast. Nil means the forecast was unavailable.
	Forecast *ForecastSnapshot
	// RelativeHumidity overrides the default humidity when known.
	RelativeHumidity *float64
}

func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func setIfPresent(f Features, name string, v *float64) {
	if v != nil {
		f[name] = *v
	}
}

// Float returns a pointer to v, for building optional fields.
func Float(v float64) *float64 { return &v }
