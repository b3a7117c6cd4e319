package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAssemble(t *testing.T) {
	t.Run("order comes from schema", func(t *testing.T) {
		vec, missing := Assemble(Features{"a": 1, "b": 2}, []string{"b", "a"})
		assert.Equal(t, Vector{2, 1}, vec)
		assert.Empty(t, missing)
	})

	t.Run("missing features default to zero", func(t *testing.T) {
		vec, missing := Assemble(Features{"a": 5}, []string{"a", "c"})
		assert.Equal(t, Vector{5, 0.0}, vec)
		assert.Equal(t, []string{"c"}, missing)
	})

	t.Run("extra features are ignored", func(t *testing.T) {
		vec, _ := Assemble(Features{"a": 1, "z": 9}, []string{"a"})
		assert.Equal(t, Vector{1}, vec)
	})
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Unhealthy, Classify(0.40, 0.40), "equal to threshold is unhealthy")
	assert.Equal(t, Unhealthy, Classify(0.41, 0.40))
	assert.Equal(t, Safe, Classify(0.39999, 0.40))
	assert.Equal(t, Unhealthy, Classify(1, 1))
	assert.Equal(t, Safe, Classify(0, 0.5))
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		p    float64
		want Confidence
	}{
		{0.65, ConfidenceHigh},
		{0.52, ConfidenceMedium},
		{0.43, ConfidenceLow},
		{0.40, ConfidenceLow},
		{0.50, ConfidenceLow},
		{0.05, ConfidenceHigh},
		// 0.40 - 0.30 is 0.10000000000000003 in float64, just past the boundary.
		{0.30, ConfidenceMedium},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfidenceFor(tt.p, 0.40), "p=%v", tt.p)
	}
}

func TestConfidenceFor_ExactTiesFallLow(t *testing.T) {
	assert.Equal(t, ConfidenceMedium, ConfidenceFor(0.2, 0), "distance exactly 0.2")
	assert.Equal(t, ConfidenceMedium, ConfidenceFor(0, 0.2), "distance exactly 0.2")
	assert.Equal(t, ConfidenceLow, ConfidenceFor(0.1, 0), "distance exactly 0.1")
	assert.Equal(t, ConfidenceLow, ConfidenceFor(0, 0.1), "distance exactly 0.1")
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, CategoryUnhealthy, CategoryFor(Unhealthy))
	assert.Equal(t, CategorySafe, CategoryFor(Safe))
}

func TestFactors(t *testing.T) {
	tests := []struct {
		name     string
		features Features
		want     []string
	}{
		{
			name:     "nothing triggers",
			features: Features{FeatAQIPrev1: 50, FeatWindAvg: 8},
			want:     []string{FallbackFactor},
		},
		{
			name:     "empty mapping",
			features: Features{},
			want:     []string{FallbackFactor},
		},
		{
			name: "moderate day without rain",
			features: Features{
				FeatAQIPrev1: 45, FeatWindAvg: 8.5, FeatPrecip: 0, FeatHasRain: 0,
				FeatTempMax: 75, FeatAQI3DayAvg: 42, FeatIsWeekend: 0,
			},
			want: []string{"No recent rain - particles not washed out"},
		},
		{
			name: "checklist order and truncation",
			features: Features{
				FeatAQIPrev1: 85, FeatWindAvg: 3, FeatPrecip: 0.5, FeatHasRain: 1,
				FeatTempMax: 95, FeatAQI3DayAvg: 70, FeatIsWeekend: 1,
			},
			want: []string{
				"High previous day AQI (85)",
				"Low wind speed (3.0 mph) - poor dispersion",
				"Recent precipitation - cleaner air",
			},
		},
		{
			name: "low aqi and good wind",
			features: Features{
				FeatAQIPrev1: 20, FeatWindAvg: 14.3,
			},
			want: []string{
				"Low previous day AQI (20)",
				"Good wind conditions (14.3 mph)",
			},
		},
		{
			name: "rain rule needs both fields",
			features: Features{
				FeatHasRain: 1, FeatTempMax: 88, FeatAQI3DayAvg: 61.4, FeatIsWeekend: 1,
			},
			want: []string{
				"High temperature (88°F) - increased emissions",
				"Elevated 3-day average AQI (61)",
				"Weekend - typically lower emissions",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Factors(tt.features))
		})
	}
}

func TestDecide(t *testing.T) {
	target := date(2024, time.July, 2)
	d := Decide(DecisionInput{
		Location:    "08901",
		TargetDate:  target,
		Probability: 0.72,
		Threshold:   DefaultThreshold,
		Features:    Features{FeatAQIPrev1: 95},
	})

	assert.Equal(t, "08901", d.Location)
	assert.Equal(t, target, d.TargetDate)
	assert.Equal(t, 0.72, d.Probability)
	assert.Equal(t, Unhealthy, d.Classification)
	assert.Equal(t, DefaultThreshold, d.Threshold)
	assert.Equal(t, ConfidenceHigh, d.Confidence)
	assert.Equal(t, CategoryUnhealthy, d.Category)
	assert.Equal(t, []string{"High previous day AQI (95)"}, d.Factors)
}
