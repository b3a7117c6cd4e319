package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/couchcryptid/airwatch-service/internal/domain"
)

// Loader produces a classifier together with its ordered feature schema.
type Loader interface {
	Load(ctx context.Context) (Classifier, []string, error)
}

// FileLoader reads the model artifact and the feature list from disk.
type FileLoader struct {
	ModelPath       string
	FeatureListPath string
}

func (l FileLoader) Load(_ context.Context) (Classifier, []string, error) {
	f, err := os.Open(l.ModelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	clf, err := Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", l.ModelPath, err)
	}

	schema, err := ReadFeatureList(l.FeatureListPath)
	if err != nil {
		return nil, nil, err
	}

	if clf.NumFeatures() != len(schema) {
		return nil, nil, fmt.Errorf("%w: model expects %d features, feature list has %d",
			domain.ErrVectorShape, clf.NumFeatures(), len(schema))
	}
	return clf, schema, nil
}

// ReadFeatureList reads a JSON array of feature names.
func ReadFeatureList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature list: %w", err)
	}
	var schema []string
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("decode feature list %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(schema))
	for _, name := range schema {
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("feature list %s: duplicate feature %q", path, name)
		}
		seen[name] = struct{}{}
	}
	return schema, nil
}

// WriteFeatureList writes schema as an indented JSON array.
func WriteFeatureList(path string, schema []string) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feature list: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
