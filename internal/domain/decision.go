package domain

import (
	"fmt"
	"math"
	"time"
)

// DefaultThreshold is the probability at or above which a day is Unhealthy.
const DefaultThreshold = 0.40

// MaxFactors caps the explanatory factors attached to a decision.
const MaxFactors = 3

// Classification is the binary next-day label.
type Classification string

const (
	Safe      Classification = "Safe"
	Unhealthy Classification = "Unhealthy"
)

// Confidence grades the distance between probability and threshold.
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// Category texts, keyed only by classification.
const (
	CategoryUnhealthy = "Unhealthy for Sensitive Groups or worse (AQI ≥ 101)"
	CategorySafe      = "Good to Moderate (AQI ≤ 100)"
)

// FallbackFactor is emitted when no checklist rule triggers.
const FallbackFactor = "Multiple moderate factors"

// Decision is the labeled result of one prediction.
type Decision struct {
	TargetDate     time.Time      `json:"target_date"`
	Location       string         `json:"location"`
	Probability    float64        `json:"probability"`
	Classification Classification `json:"classification"`
	Threshold      float64        `json:"threshold"`
	Confidence     Confidence     `json:"confidence"`
	Category       string         `json:"category"`
	Factors        []string       `json:"factors"`
}

// DecisionInput carries everything the decision engine needs.
type DecisionInput struct {
	Location    string
	TargetDate  time.Time
	Probability float64
	Threshold   float64
	// Features are the raw, pre-vectorized values used to explain the decision.
	Features Features
}

// Decide labels a probability against a threshold and explains it.
func Decide(in DecisionInput) Decision {
	class := Classify(in.Probability, in.Threshold)
	return Decision{
		TargetDate:     in.TargetDate,
		Location:       in.Location,
		Probability:    in.Probability,
		Classification: class,
		Threshold:      in.Threshold,
		Confidence:     ConfidenceFor(in.Probability, in.Threshold),
		Category:       CategoryFor(class),
		Factors:        Factors(in.Features),
	}
}

// Classify returns Unhealthy iff p >= t.
func Classify(p, t float64) Classification {
	if p >= t {
		return Unhealthy
	}
	return Safe
}

// ConfidenceFor grades |p - t|: High above 0.2, Medium above 0.1, else Low.
// Boundaries are exclusive and use plain float64 arithmetic.
func ConfidenceFor(p, t float64) Confidence {
	d := math.Abs(p - t)
	switch {
	case d > 0.2:
		return ConfidenceHigh
	case d > 0.1:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// CategoryFor returns the fixed category text for a classification.
func CategoryFor(c Classification) string {
	if c == Unhealthy {
		return CategoryUnhealthy
	}
	return CategorySafe
}

// factorRule inspects raw features and returns a sentence when it triggers.
type factorRule func(f Features) (string, bool)

// factorChecklist is evaluated in order; priority is fixed, not probability-ranked.
var factorChecklist = []factorRule{
	previousDayAQIFactor,
	windFactor,
	rainFactor,
	temperatureFactor,
	threeDayAverageFactor,
	weekendFactor,
}

// Factors returns up to MaxFactors explanations in checklist order, or the
// fallback sentence when nothing triggers.
func Factors(f Features) []string {
	var out []string
	for _, rule := range factorChecklist {
		if len(out) == MaxFactors {
			break
		}
		if s, ok := rule(f); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{FallbackFactor}
	}
	return out
}

func previousDayAQIFactor(f Features) (string, bool) {
	v, ok := f[FeatAQIPrev1]
	switch {
	case !ok:
		return "", false
	case v > 80:
		return fmt.Sprintf("High previous day AQI (%.0f)", v), true
	case v < 30:
		return fmt.Sprintf("Low previous day AQI (%.0f)", v), true
	}
	return "", false
}

func windFactor(f Features) (string, bool) {
	v, ok := f[FeatWindAvg]
	switch {
	case !ok:
		return "", false
	case v < 5:
		return fmt.Sprintf("Low wind speed (%.1f mph) - poor dispersion", v), true
	case v > 12:
		return fmt.Sprintf("Good wind conditions (%.1f mph)", v), true
	}
	return "", false
}

func rainFactor(f Features) (string, bool) {
	if !f.Has(FeatPrecip) || !f.Has(FeatHasRain) {
		return "", false
	}
	if f[FeatHasRain] > 0 {
		return "Recent precipitation - cleaner air", true
	}
	return "No recent rain - particles not washed out", true
}

func temperatureFactor(f Features) (string, bool) {
	if v, ok := f[FeatTempMax]; ok && v > 85 {
		return fmt.Sprintf("High temperature (%.0f°F) - increased emissions", v), true
	}
	return "", false
}

func threeDayAverageFactor(f Features) (string, bool) {
	if v, ok := f[FeatAQI3DayAvg]; ok && v > 60 {
		return fmt.Sprintf("Elevated 3-day average AQI (%.0f)", v), true
	}
	return "", false
}

func weekendFactor(f Features) (string, bool) {
	if f[FeatIsWeekend] == 1 {
		return "Weekend - typically lower emissions", true
	}
	return "", false
}
