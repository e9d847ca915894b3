package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrNotEligible           = errors.New("not eligible")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrStaleState marks a resolution round that found the world changed
	// between its load and its decision. The round aborts without
	// mutation and the next tick retries.
	ErrStaleState = errors.New("stale state")
)
