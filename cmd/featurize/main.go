// Command featurize turns a daily AQI history CSV into the model-ready
// training matrix and the feature list consumed by the service.
//
// The input has a header row with Date and AQI columns plus any of the
// optional weather columns temp_max, wind_avg, precip, and rh_avg. Blank
// weather cells are treated as missing.
//
// Usage:
//
//	go run ./cmd/featurize \
//	  -in data/nj_daily_aqi.csv \
//	  -out data/training.csv \
//	  -features models/feature_list.json
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/airwatch-service/internal/domain"
	"github.com/couchcryptid/airwatch-service/internal/model"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "daily AQI history CSV")
	out := flag.String("out", "", "output path for the training CSV")
	features := flag.String("features", "", "output path for the feature list JSON")
	flag.Parse()

	if *in == "" || *out == "" || *features == "" {
		flag.Usage()
		return errors.New("missing required flags: -in, -out, -features")
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	series, err := readSeries(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *in, err)
	}
	log.Printf("read %d days (%s to %s)", len(series),
		series[0].Date.Format(time.DateOnly), series[len(series)-1].Date.Format(time.DateOnly))

	rows, err := domain.BuildTrainingRows(series)
	if err != nil {
		return err
	}
	set := domain.PrepareTraining(rows, domain.TrainingSchema(rows))
	log.Printf("featurized %d rows, dropped %d without history, %d features",
		len(set.X), set.Dropped, len(set.Schema))

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	of, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if err := writeTrainingCSV(of, set); err != nil {
		of.Close()
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	if err := of.Close(); err != nil {
		return err
	}
	log.Printf("wrote training matrix: %s", *out)

	if err := os.MkdirAll(filepath.Dir(*features), 0o755); err != nil {
		return err
	}
	if err := model.WriteFeatureList(*features, set.Schema); err != nil {
		return err
	}
	log.Printf("wrote feature list: %s", *features)

	printStats(set)
	return nil
}

// readSeries parses the history CSV. Dates must be strictly increasing.
func readSeries(r io.Reader) (domain.Series, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, errors.New("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(h)] = i
	}
	for _, col := range []string{"Date", "AQI"} {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing %s column", col)
		}
	}

	series := make(domain.Series, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		date, err := time.Parse(time.DateOnly, get(row, colIdx, "Date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		aqi, err := strconv.ParseFloat(get(row, colIdx, "AQI"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: AQI: %w", line, err)
		}

		obs := domain.Observation{Date: date, AQI: aqi}
		for col, dst := range map[string]**float64{
			domain.FeatTempMax: &obs.Weather.TempMax,
			domain.FeatWindAvg: &obs.Weather.WindAvg,
			domain.FeatPrecip:  &obs.Weather.Precip,
			domain.FeatRHAvg:   &obs.Weather.RHAvg,
		} {
			s := get(row, colIdx, col)
			if s == "" {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, col, err)
			}
			*dst = domain.Float(v)
		}
		series = append(series, obs)
	}

	if err := series.Validate(); err != nil {
		return nil, err
	}
	return series, nil
}

// writeTrainingCSV writes Date, the schema columns, and the label.
func writeTrainingCSV(w io.Writer, set domain.TrainingSet) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(set.Schema)+2)
	header = append(header, "Date")
	header = append(header, set.Schema...)
	header = append(header, domain.LabelUnhealthy)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i, x := range set.X {
		record[0] = set.Dates[i].Format(time.DateOnly)
		for j, v := range x {
			record[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		record[len(record)-1] = strconv.Itoa(set.Y[i])
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func printStats(set domain.TrainingSet) {
	var unhealthy int
	for _, y := range set.Y {
		unhealthy += y
	}
	if len(set.Y) == 0 {
		return
	}
	fmt.Printf("\n=== Label Balance ===\n")
	fmt.Printf("  %-10s %5d (%.1f%%)\n", "Unhealthy", unhealthy, 100*float64(unhealthy)/float64(len(set.Y)))
	fmt.Printf("  %-10s %5d\n", "Safe", len(set.Y)-unhealthy)
}
