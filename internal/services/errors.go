package services

import "errors"

var (
	// ErrNotFound signals a lookup for a record that does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyCompleted signals a completion request for a task that was
	// already completed. Callers treat it as an idempotent no-op.
	ErrAlreadyCompleted = errors.New("task already completed")

	// ErrBackdatedCompletion signals a completion dated before the last
	// recorded completion. Out-of-order completions are rejected rather than
	// silently resetting or extending the streak.
	ErrBackdatedCompletion = errors.New("completion date precedes last recorded completion")
)
