package ghrelease

import "errors"

// Error categories returned by this package. Failures are wrapped with goerr,
// so callers match them with errors.Is.
var (
	// ErrInvalidInput is returned for a missing user or repo, or an output
	// path that is not a directory.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when no release or asset matches the filters.
	ErrNotFound = errors.New("release not found")

	// ErrNetwork is returned when listing releases or downloading an asset fails.
	ErrNetwork = errors.New("network error")

	// ErrExtraction is returned when a zip asset cannot be expanded.
	ErrExtraction = errors.New("extraction failed")
)
