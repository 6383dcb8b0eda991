package queue

import "errors"

// Queue operation errors.
var (
	// ErrNotRetryable indicates a retry was requested for a candidate that is
	// not in the failed state.
	ErrNotRetryable = errors.New("candidate is not in a failed state")

	// ErrNotPending indicates a priority change was requested for a candidate
	// that is no longer waiting to be scheduled.
	ErrNotPending = errors.New("candidate is not pending")
)
