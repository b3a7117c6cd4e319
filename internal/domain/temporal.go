package domain

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultCurrentAQI stands in for the current observation when none is available.
const DefaultCurrentAQI = 50.0

// Serving estimates used when only the current observation is known.
const (
	servingPrev2Factor  = 0.95
	servingMax3Factor   = 1.1
	servingStd7Estimate = 5.0
)

var lags = []struct {
	name string
	n    int
}{
	{FeatAQIPrev1, 1},
	{FeatAQIPrev2, 2},
	{FeatAQIPrev7, 7},
}

// DeriveTemporal computes lag, rolling and trend features for every row of a
// series. Row i only sees values before i. Features that cannot be computed
// from the available history are left undefined.
func DeriveTemporal(series Series) []Features {
	values := series.Values()
	rows := make([]Features, len(values))
	for i := range values {
		rows[i] = temporalAfter(values[:i])
	}
	return rows
}

// PriorDay is the serving-mode input to the temporal deriver.
type PriorDay struct {
	// Current is the latest observed AQI. Nil uses DefaultCurrentAQI.
	Current *float64
	// History holds earlier daily values, oldest first.
	History []float64
}

// ServingTemporal derives temporal features for the day after the current
// observation. Without history it falls back to fixed estimates around the
// current value; with history it computes the same windows as DeriveTemporal.
func ServingTemporal(p PriorDay) Features {
	current := DefaultCurrentAQI
	if p.Current != nil {
		current = *p.Current
	}

	if len(p.History) == 0 {
		return Features{
			FeatAQIPrev1:   current,
			FeatAQIPrev2:   current * servingPrev2Factor,
			FeatAQI3DayAvg: current,
			FeatAQI7DayAvg: current,
			FeatAQI3DayMax: current * servingMax3Factor,
			FeatAQI7DayStd: servingStd7Estimate,
			FeatAQITrend:   0,
		}
	}

	prior := make([]float64, 0, len(p.History)+1)
	prior = append(prior, p.History...)
	prior = append(prior, current)
	return temporalAfter(prior)
}

// temporalAfter derives the temporal features of the row that immediately
// follows prior.
func temporalAfter(prior []float64) Features {
	f := Features{}
	n := len(prior)
	for _, lag := range lags {
		if n-lag.n >= 0 {
			f[lag.name] = prior[n-lag.n]
		}
	}
	if n == 0 {
		return f
	}

	w3 := trailing(prior, 3)
	w7 := trailing(prior, 7)
	f[FeatAQI3DayAvg] = stat.Mean(w3, nil)
	f[FeatAQI7DayAvg] = stat.Mean(w7, nil)
	f[FeatAQI3DayMax] = floats.Max(w3)
	if len(w7) >= 2 {
		f[FeatAQI7DayStd] = stat.StdDev(w7, nil)
	}
	f[FeatAQITrend] = f[FeatAQIPrev1] - f[FeatAQI7DayAvg]
	return f
}

func trailing(values []float64, size int) []float64 {
	return values[max(0, len(values)-size):]
}
