package domain

import (
	"math"
	"time"
)

// Weather thresholds.
const (
	stagnantWindMPH = 5.0
	rainInches      = 0.1
	humidRHPercent  = 70.0
)

// DeriveCalendar computes calendar, season, holiday and cyclical features for date.
func DeriveCalendar(date time.Time) Features {
	month := int(date.Month())
	dow := weekdayIndex(date)

	f := Features{
		FeatMonth:     float64(month),
		FeatDayOfWeek: float64(dow),
		FeatIsWeekend: boolFloat(dow >= 5),
		FeatDayOfYear: float64(date.YearDay()),
		FeatIsHoliday: boolFloat(isHoliday(date)),
	}
	return f.With(monthCyclical(float64(month))).With(dowCyclical(float64(dow)))
}

// DeriveWeather computes binned, flag and interaction features from the
// weather fields that are present. Fields that are nil produce nothing.
func DeriveWeather(w Weather) Features {
	f := Features{}
	if w.TempMax != nil {
		f[FeatTempBin] = temperatureBin(*w.TempMax)
	}
	if w.WindAvg != nil {
		f[FeatWindCat] = windCategory(*w.WindAvg)
		f[FeatIsStagnant] = boolFloat(*w.WindAvg < stagnantWindMPH)
	}
	if w.Precip != nil {
		f[FeatHasRain] = boolFloat(*w.Precip > rainInches)
	}
	if w.TempMax != nil && w.WindAvg != nil {
		f[FeatTempWind] = *w.TempMax / (*w.WindAvg + 1)
	}
	if w.RHAvg != nil {
		f[FeatHumidHigh] = boolFloat(*w.RHAvg > humidRHPercent)
	}
	return f
}

// Augment adds the fields derivable from an explicit feature mapping: weather
// bins and flags from temp_max, wind_avg, precip and rh_avg, season and cyclical
// month from month, cyclical weekday from day_of_week. It returns a copy.
func Augment(in Features) Features {
	w := Weather{}
	if v, ok := in[FeatTempMax]; ok {
		w.TempMax = Float(v)
	}
	if v, ok := in[FeatWindAvg]; ok {
		w.WindAvg = Float(v)
	}
	if v, ok := in[FeatPrecip]; ok {
		w.Precip = Float(v)
	}
	if v, ok := in[FeatRHAvg]; ok {
		w.RHAvg = Float(v)
	}
	out := in.With(DeriveWeather(w))

	if month, ok := in[FeatMonth]; ok {
		out = out.With(monthCyclical(month))
		out[FeatSeason] = Season(int(month))
	}
	if dow, ok := in[FeatDayOfWeek]; ok {
		out = out.With(dowCyclical(dow))
	}
	return out
}

// Season maps a 1-12 month to 0 winter, 1 spring, 2 summer, 3 fall.
// December wraps to 0 through month % 12.
func Season(month int) float64 {
	return float64(month % 12 / 3)
}

func monthCyclical(month float64) Features {
	return Features{
		FeatMonthSin: math.Sin(2 * math.Pi * month / 12),
		FeatMonthCos: math.Cos(2 * math.Pi * month / 12),
		FeatSeason:   Season(int(month)),
	}
}

func dowCyclical(dow float64) Features {
	return Features{
		FeatDowSin: math.Sin(2 * math.Pi * dow / 7),
		FeatDowCos: math.Cos(2 * math.Pi * dow / 7),
	}
}

// weekdayIndex numbers days Monday=0 through Sunday=6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func isHoliday(t time.Time) bool {
	switch m, d := t.Month(), t.Day(); {
	case m == time.January && d == 1:
		return true
	case m == time.July && d == 4:
		return true
	case m == time.December && d == 25:
		return true
	}
	return false
}

func temperatureBin(tempF float64) float64 {
	switch {
	case tempF <= 32:
		return 0
	case tempF <= 50:
		return 1
	case tempF <= 70:
		return 2
	case tempF <= 90:
		return 3
	default:
		return 4
	}
}

func windCategory(mph float64) float64 {
	switch {
	case mph <= 5:
		return 0
	case mph <= 10:
		return 1
	case mph <= 15:
		return 2
	default:
		return 3
	}
}
