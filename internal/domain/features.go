package domain

import "maps"

// Feature names shared by training and serving.
const (
	FeatTempMax = "temp_max"
	FeatWindAvg = "wind_avg"
	FeatPrecip  = "precip"
	FeatRHAvg   = "rh_avg"

	FeatAQIPrev1    = "AQI_prev1"
	FeatAQIPrev2    = "AQI_prev2"
	FeatAQIPrev7    = "AQI_prev7"
	FeatAQI3DayAvg  = "AQI_3day_avg"
	FeatAQI7DayAvg  = "AQI_7day_avg"
	FeatAQI3DayMax  = "AQI_3day_max"
	FeatAQI7DayStd  = "AQI_7day_std"
	FeatAQITrend    = "AQI_trend"
	FeatMonth       = "month"
	FeatDayOfWeek   = "day_of_week"
	FeatIsWeekend   = "is_weekend"
	FeatDayOfYear   = "day_of_year"
	FeatSeason      = "season"
	FeatIsHoliday   = "is_holiday"
	FeatMonthSin    = "month_sin"
	FeatMonthCos    = "month_cos"
	FeatDowSin      = "dow_sin"
	FeatDowCos      = "dow_cos"
	FeatTempBin     = "temp_bin"
	FeatWindCat     = "wind_category"
	FeatIsStagnant  = "is_stagnant"
	FeatHasRain     = "has_rain"
	FeatTempWind    = "temp_wind_ratio"
	FeatHumidHigh   = "humidity_high"
	LabelUnhealthy  = "label_unhealthy"
	UnhealthyAQIMin = 101.0
)

// CanonicalFeatureOrder is the column order produced by the training
// featurizer. Serving never relies on it: the order used for scoring always
// comes from the persisted feature list of the loaded model.
var CanonicalFeatureOrder = []string{
	FeatTempMax, FeatWindAvg, FeatPrecip, FeatRHAvg,
	FeatAQIPrev1, FeatAQIPrev2, FeatAQIPrev7,
	FeatAQI3DayAvg, FeatAQI7DayAvg, FeatAQI3DayMax, FeatAQI7DayStd, FeatAQITrend,
	FeatMonth, FeatDayOfWeek, FeatIsWeekend, FeatDayOfYear, FeatSeason, FeatIsHoliday,
	FeatMonthSin, FeatMonthCos, FeatDowSin, FeatDowCos,
	FeatTempBin, FeatWindCat, FeatIsStagnant, FeatHasRain, FeatTempWind, FeatHumidHigh,
}

// Features maps feature names to values. An absent key means undefined.
type Features map[string]float64

// Clone returns a copy of f.
func (f Features) Clone() Features {
	out := make(Features, len(f))
	maps.Copy(out, f)
	return out
}

// With returns a copy of f overlaid with other. Neither input is modified.
func (f Features) With(other Features) Features {
	out := make(Features, len(f)+len(other))
	maps.Copy(out, f)
	maps.Copy(out, other)
	return out
}

// Has reports whether name is defined.
func (f Features) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// FeatureWeight is a named per-feature importance reported by a model.
type FeatureWeight struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// FeatureInput is the explicit feature set accepted by the advanced prediction
// path. Pointer fields distinguish "not provided" from zero.
type FeatureInput struct {
	AQIPrev1  *float64 `json:"aqi_prev1" validate:"required,gte=0"`
	AQIPrev2  *float64 `json:"aqi_prev2,omitempty" validate:"omitempty,gte=0"`
	AQI3DAvg  *float64 `json:"aqi_3day_avg,omitempty" validate:"omitempty,gte=0"`
	TempMax   *float64 `json:"temp_max" validate:"required"`
	WindAvg   *float64 `json:"wind_avg" validate:"required,gte=0"`
	RHAvg     *float64 `json:"rh_avg,omitempty" validate:"omitempty,gte=0,lte=100"`
	Precip    *float64 `json:"precip,omitempty" validate:"omitempty,gte=0"`
	Month     *int     `json:"month" validate:"required,gte=1,lte=12"`
	DayOfWeek *int     `json:"day_of_week" validate:"required,gte=0,lte=6"`
	IsWeekend *bool    `json:"is_weekend" validate:"required"`
}

// Features converts the input to a mapping keyed by canonical feature names.
// Precipitation defaults to 0 when omitted.
func (in FeatureInput) Features() Features {
	f := Features{}
	setIfPresent(f, FeatAQIPrev1, in.AQIPrev1)
	setIfPresent(f, FeatAQIPrev2, in.AQIPrev2)
	setIfPresent(f, FeatAQI3DayAvg, in.AQI3DAvg)
	setIfPresent(f, FeatTempMax, in.TempMax)
	setIfPresent(f, FeatWindAvg, in.WindAvg)
	setIfPresent(f, FeatRHAvg, in.RHAvg)
	f[FeatPrecip] = 0
	setIfPresent(f, FeatPrecip, in.Precip)
	if in.Month != nil {
		f[FeatMonth] = float64(*in.Month)
	}
	if in.DayOfWeek != nil {
		f[FeatDayOfWeek] = float64(*in.DayOfWeek)
	}
	if in.IsWeekend != nil {
		f[FeatIsWeekend] = boolFloat(*in.IsWeekend)
	}
	return f
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
