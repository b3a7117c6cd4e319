package domain

import (
	"fmt"
	"slices"
	"time"
)

// TrainingRow is one featurized day of a training series.
type TrainingRow struct {
	Date     time.Time
	AQI      float64
	Label    int
	Features Features
}

// BuildTrainingRows derives the full feature mapping and label for every day
// of series. The series must have strictly increasing dates.
func BuildTrainingRows(series Series) ([]TrainingRow, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	temporal := DeriveTemporal(series)
	rows := make([]TrainingRow, len(series))
	for i, obs := range series {
		label := 0
		if obs.AQI >= UnhealthyAQIMin {
			label = 1
		}
		rows[i] = TrainingRow{
			Date:  obs.Date,
			AQI:   obs.AQI,
			Label: label,
			Features: obs.Weather.Features().
				With(temporal[i]).
				With(DeriveCalendar(obs.Date)).
				With(DeriveWeather(obs.Weather)),
		}
	}
	return rows, nil
}

// RequireHistory reports ErrInsufficientHistory when f lacks the previous-day value.
func RequireHistory(f Features) error {
	if !f.Has(FeatAQIPrev1) {
		return fmt.Errorf("%w: %s undefined", ErrInsufficientHistory, FeatAQIPrev1)
	}
	return nil
}

// TrainingSchema returns the canonical-order names defined in at least one row.
func TrainingSchema(rows []TrainingRow) []string {
	var schema []string
	for _, name := range CanonicalFeatureOrder {
		for _, r := range rows {
			if r.Features.Has(name) {
				schema = append(schema, name)
				break
			}
		}
	}
	return schema
}

// TrainingSet is the model-ready matrix produced by PrepareTraining.
type TrainingSet struct {
	Schema  []string
	Dates   []time.Time
	X       []Vector
	Y       []int
	Dropped int
}

// PrepareTraining drops rows without a previous-day value and fills remaining
// gaps with the column median of the kept rows (0 when a column is empty).
func PrepareTraining(rows []TrainingRow, schema []string) TrainingSet {
	set := TrainingSet{Schema: schema}
	kept := make([]TrainingRow, 0, len(rows))
	for _, r := range rows {
		if RequireHistory(r.Features) != nil {
			set.Dropped++
			continue
		}
		kept = append(kept, r)
	}

	medians := make(Features, len(schema))
	for _, name := range schema {
		var col []float64
		for _, r := range kept {
			if v, ok := r.Features[name]; ok {
				col = append(col, v)
			}
		}
		medians[name] = median(col)
	}

	for _, r := range kept {
		vec, _ := Assemble(medians.With(r.Features), schema)
		set.Dates = append(set.Dates, r.Date)
		set.X = append(set.X, vec)
		set.Y = append(set.Y, r.Label)
	}
	return set
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return DefaultFeatureValue
	}
	s := slices.Clone(values)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
