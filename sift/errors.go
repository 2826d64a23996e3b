package sift

import "errors"

// Error taxonomy shared by all pipeline components. Errors are raised at the
// point of detection and propagate to the caller unchanged; components never
// retry and never return partial results alongside an error.
var (
	// ErrInvalidArgument signals malformed bounds, empty inputs, or
	// non-positive counts.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSchemaMismatch signals missing or extra columns between a model and
	// a dataset, or between the optimizer and its objective columns.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrInsufficientData signals a search budget or dataset too small to
	// produce a usable result.
	ErrInsufficientData = errors.New("insufficient data")
)
