// Command evaluate scores a featurized training CSV with a model artifact and
// reports how the decision threshold performs. It checks that the CSV columns
// match the feature list, that every score is a valid probability, and that
// recall on the Unhealthy class meets a floor.
//
// Usage:
//
//	go run ./cmd/evaluate \
//	  -model models/model.json \
//	  -features models/feature_list.json \
//	  -data data/training.csv \
//	  -threshold 0.4 -min-recall 0.8
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/airwatch-service/internal/domain"
	"github.com/couchcryptid/airwatch-service/internal/model"
)

// phase tracks pass/fail for an evaluation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	modelPath := flag.String("model", "", "path to the model artifact")
	featuresPath := flag.String("features", "", "path to the feature list JSON")
	dataPath := flag.String("data", "", "featurized CSV produced by cmd/featurize")
	threshold := flag.Float64("threshold", 0.4, "decision threshold")
	minRecall := flag.Float64("min-recall", 0, "minimum recall on the Unhealthy class")
	flag.Parse()

	if *modelPath == "" || *featuresPath == "" || *dataPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*modelPath, *featuresPath, *dataPath, *threshold, *minRecall))
}

func run(modelPath, featuresPath, dataPath string, threshold, minRecall float64) int {
	fmt.Println("=== AirWatch Model Evaluation ===")
	fmt.Println()

	clf, schema, err := model.FileLoader{ModelPath: modelPath, FeatureListPath: featuresPath}.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load model: %v\n", err)
		return 1
	}

	f, err := os.Open(dataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open data: %v\n", err)
		return 1
	}
	defer f.Close()

	data, err := loadDataset(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load data: %v\n", err)
		return 1
	}

	schemaPhase := validateSchema(data.columns, schema)
	var scorePhase *phase
	var c confusion
	if schemaPhase.passed() {
		scorePhase, c = score(clf, data, threshold)
	} else {
		scorePhase = &phase{name: "Score validity"}
		scorePhase.errorf("skipped: schema mismatch")
	}
	recallPhase := validateRecall(c, minRecall)

	phases := []*phase{schemaPhase, scorePhase, recallPhase}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d, features: %d, threshold: %.2f\n", len(data.rows), len(schema), threshold)
	c.print()

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll checks passed.")
		return 0
	}
	fmt.Println("\nEvaluation FAILED.")
	return 1
}

// ── Data loading ──

type labeledRow struct {
	line  int
	date  string
	x     domain.Vector
	label int
}

type dataset struct {
	columns []string
	rows    []labeledRow
}

// loadDataset reads a CSV whose first column is Date and last column is the
// Unhealthy label.
func loadDataset(r io.Reader) (dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return dataset{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return dataset{}, errors.New("no data rows")
	}

	header := records[0]
	if len(header) < 3 || header[0] != "Date" || header[len(header)-1] != domain.LabelUnhealthy {
		return dataset{}, fmt.Errorf("header must be Date, features..., %s", domain.LabelUnhealthy)
	}

	ds := dataset{columns: header[1 : len(header)-1]}
	for n, rec := range records[1:] {
		line := n + 2
		row := labeledRow{line: line, date: rec[0], x: make(domain.Vector, len(ds.columns))}
		for j := range ds.columns {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[j+1]), 64)
			if err != nil {
				return dataset{}, fmt.Errorf("line %d: %s: %w", line, ds.columns[j], err)
			}
			row.x[j] = v
		}
		label, err := strconv.Atoi(strings.TrimSpace(rec[len(rec)-1]))
		if err != nil || (label != 0 && label != 1) {
			return dataset{}, fmt.Errorf("line %d: label must be 0 or 1, got %q", line, rec[len(rec)-1])
		}
		row.label = label
		ds.rows = append(ds.rows, row)
	}
	return ds, nil
}

// ── Phases ──

func validateSchema(columns, schema []string) *phase {
	p := &phase{name: "Feature list alignment"}
	if slices.Equal(columns, schema) {
		return p
	}
	if len(columns) != len(schema) {
		p.errorf("data has %d feature columns, feature list has %d", len(columns), len(schema))
	}
	for i := range min(len(columns), len(schema)) {
		if columns[i] != schema[i] {
			p.errorf("column %d: data %q, feature list %q", i+1, columns[i], schema[i])
		}
	}
	return p
}

// confusion counts decisions against labels, treating Unhealthy as positive.
type confusion struct {
	tp, fp, tn, fn int
}

func (c *confusion) add(predicted domain.Classification, label int) {
	switch {
	case predicted == domain.Unhealthy && label == 1:
		c.tp++
	case predicted == domain.Unhealthy:
		c.fp++
	case label == 1:
		c.fn++
	default:
		c.tn++
	}
}

func (c confusion) total() int { return c.tp + c.fp + c.tn + c.fn }

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func (c confusion) accuracy() float64  { return ratio(c.tp+c.tn, c.total()) }
func (c confusion) precision() float64 { return ratio(c.tp, c.tp+c.fp) }
func (c confusion) recall() float64    { return ratio(c.tp, c.tp+c.fn) }

func (c confusion) f1() float64 {
	p, r := c.precision(), c.recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func (c confusion) print() {
	fmt.Printf("\n=== Confusion Matrix ===\n")
	fmt.Printf("  %-22s %6s %6s\n", "", "Pred U", "Pred S")
	fmt.Printf("  %-22s %6d %6d\n", "Actual Unhealthy", c.tp, c.fn)
	fmt.Printf("  %-22s %6d %6d\n", "Actual Safe", c.fp, c.tn)
	fmt.Printf("\n  %-10s %.3f\n  %-10s %.3f\n  %-10s %.3f\n  %-10s %.3f\n",
		"accuracy", c.accuracy(), "precision", c.precision(), "recall", c.recall(), "f1", c.f1())
}

func score(clf model.Classifier, ds dataset, threshold float64) (*phase, confusion) {
	p := &phase{name: "Score validity"}
	var c confusion
	for _, row := range ds.rows {
		prob, err := clf.PredictProbability(row.x)
		if err != nil {
			p.errorf("line %d (%s): %v", row.line, row.date, err)
			continue
		}
		c.add(domain.Classify(prob, threshold), row.label)
	}
	return p, c
}

func validateRecall(c confusion, floor float64) *phase {
	p := &phase{name: "Unhealthy recall"}
	if c.tp+c.fn == 0 {
		if floor > 0 {
			p.errorf("no Unhealthy rows to measure recall")
		}
		return p
	}
	if r := c.recall(); r < floor {
		p.errorf("recall %.3f below floor %.3f", r, floor)
	}
	return p
}
