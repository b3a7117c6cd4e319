package domain

import "errors"

var (
	// ErrInsufficientHistory marks features that could not be derived from the
	// available history. It is recovered locally by leaving the feature undefined.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrUnorderedSeries is returned when a series has duplicate or decreasing dates.
	ErrUnorderedSeries = errors.New("observation dates must be strictly increasing")

	// ErrModelUnavailable is returned when scoring is attempted before the model
	// artifact and its feature list have been loaded.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrVectorShape is returned when a feature vector does not match the model width.
	ErrVectorShape = errors.New("feature vector shape mismatch")
)
