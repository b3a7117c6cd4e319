package domain

import "time"

// Serving defaults applied when the forecast or humidity is unavailable.
const (
	DefaultForecastTempF   = 70.0
	DefaultForecastWindMPH = 8.0
	DefaultRelativeHumid   = 60.0

	// A forecast precipitation probability above this percentage is treated
	// as servingRainInches of rain.
	rainProbabilityPercent = 50.0
	servingRainInches      = 0.1
)

// ServingWeather converts a forecast snapshot into weather fields, applying
// defaults for anything unknown.
func ServingWeather(fc *ForecastSnapshot, rh *float64) Weather {
	temp, wind, precip := DefaultForecastTempF, DefaultForecastWindMPH, 0.0
	if fc != nil {
		temp = fc.Temperature
		wind = fc.WindSpeed
		if fc.PrecipProbability > rainProbabilityPercent {
			precip = servingRainInches
		}
	}
	humidity := DefaultRelativeHumid
	if rh != nil {
		humidity = *rh
	}
	return Weather{
		TempMax: Float(temp),
		WindAvg: Float(wind),
		Precip:  Float(precip),
		RHAvg:   Float(humidity),
	}
}

// ServingFeatures builds the full feature mapping for the day after asOf.
func ServingFeatures(asOf time.Time, b Bundle) (Features, time.Time) {
	target := asOf.AddDate(0, 0, 1)
	weather := ServingWeather(b.Forecast, b.RelativeHumidity)

	f := ServingTemporal(PriorDay{Current: b.CurrentAQI, History: b.History}).
		With(DeriveCalendar(target)).
		With(weather.Features()).
		With(DeriveWeather(weather))
	return f, target
}
