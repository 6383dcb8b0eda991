package domain

import "errors"

// Common validation errors for domain entities.
var (
	ErrEmptyCandidateID         = errors.New("candidate ID cannot be empty")
	ErrEmptyCandidateJobID      = errors.New("candidate job ID cannot be empty")
	ErrInvalidCandidateStatus   = errors.New("invalid candidate status")
	ErrInvalidCandidatePriority = errors.New("invalid candidate priority")
	ErrNegativeRetryCount       = errors.New("retry count cannot be negative")

	ErrEmptyJobID    = errors.New("job ID cannot be empty")
	ErrEmptyJobTitle = errors.New("job title cannot be empty")
)
