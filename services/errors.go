package services

import "errors"

// Error taxonomy of the engine. Storage-level conflicts are never surfaced
// as errors; they collapse into boolean no-op results at the call site.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
