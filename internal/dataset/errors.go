package dataset

import "errors"

var (
	ErrDatasetNotFound = errors.New("dataset file not found")
	ErrMissingColumn   = errors.New("missing required column")
)
