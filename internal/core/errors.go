package core

import "errors"

var (
	// ErrJobNotFound is returned when a migration job does not exist.
	ErrJobNotFound = errors.New("migration job not found")
	// ErrScopeConflict is returned when another running or paused job
	// already covers the same logical scope.
	ErrScopeConflict = errors.New("another active migration exists for this scope")
	// ErrQueueJobNotFound is returned when a queue job does not exist.
	ErrQueueJobNotFound = errors.New("queue job not found")
)
