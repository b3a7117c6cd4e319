package domain

// DefaultFeatureValue is substituted for schema features absent from a mapping.
const DefaultFeatureValue = 0.0

// Vector is an ordered feature vector matching a model's feature schema.
type Vector []float64

// Assemble builds the vector for schema from f. Position i holds f[schema[i]],
// or DefaultFeatureValue when the feature is undefined. The names that were
// substituted are returned in schema order so callers can report them.
func Assemble(f Features, schema []string) (Vector, []string) {
	vec := make(Vector, len(schema))
	var missing []string
	for i, name := range schema {
		v, ok := f[name]
		if !ok {
			v = DefaultFeatureValue
			missing = append(missing, name)
		}
		vec[i] = v
	}
	return vec, missing
}
