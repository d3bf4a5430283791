package pipeline

import "errors"

var (
	// ErrSchemaMissing means no recognizable timestamp column was found
	// after alias resolution. Terminal for the run.
	ErrSchemaMissing = errors.New("no recognizable timestamp column")

	// ErrEmptyResult means filtering or resampling produced zero rows.
	// Callers must report "no data for this selection", not crash.
	ErrEmptyResult = errors.New("no rows match the selection")
)
