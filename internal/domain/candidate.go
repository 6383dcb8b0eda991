package domain

import (
	"time"

	"github.com/google/uuid"
)

// CandidateStatus represents the processing state of a candidate
type CandidateStatus string

// Possible candidate status values
const (
	CandidateStatusPending    CandidateStatus = "pending"
	CandidateStatusProcessing CandidateStatus = "processing"
	CandidateStatusCompleted  CandidateStatus = "completed"
	CandidateStatusFailed     CandidateStatus = "failed"
)

// CandidatePriority represents the scheduling priority of a candidate
type CandidatePriority string

// Possible candidate priority values
const (
	CandidatePriorityNormal CandidatePriority = "normal"
	CandidatePriorityHigh   CandidatePriority = "high"
)

// Analysis holds the structured evaluation produced by the scoring service.
type Analysis struct {
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths"`
	Warnings  []string `json:"warnings"`
}

// Candidate is the unit of queued work: one candidate profile to be scored
// against one job. The heavy profile payload lives in the payload store,
// keyed by the candidate ID; this row carries only metadata and results.
//
// Model, TuningHash and TuningName are captured at enqueue time so a later
// configuration change does not retroactively change history.
type Candidate struct {
	ID         uuid.UUID         `json:"id"`
	JobID      uuid.UUID         `json:"job_id"`
	SourceURL  string            `json:"source_url"`
	SourceType string            `json:"source_type"`
	Model      string            `json:"model"`
	TuningHash string            `json:"tuning_hash"`
	TuningName string            `json:"tuning_name"`
	Status     CandidateStatus   `json:"status"`
	Priority   CandidatePriority `json:"priority"`
	RetryCount int               `json:"retry_count"`

	// Result fields, populated only on completed.
	CandidateName  string    `json:"candidate_name"`
	CandidateTitle string    `json:"candidate_title"`
	Score          *int      `json:"score"`
	Verdict        string    `json:"verdict"`
	Analysis       *Analysis `json:"analysis"`

	// ErrorMsg is set on terminal failure; LastError on a retryable failure.
	ErrorMsg  string `json:"error_msg"`
	LastError string `json:"last_error"`

	TimestampAdded      time.Time  `json:"timestamp_added"`
	TimestampProcessing *time.Time `json:"timestamp_processing"`
	TimestampProcessed  *time.Time `json:"timestamp_processed"`
}

// NewCandidate creates a pending Candidate for the given job with a fresh ID.
// Returns an error if validation fails.
func NewCandidate(
	jobID uuid.UUID,
	sourceURL, sourceType, model, tuningHash, tuningName string,
) (*Candidate, error) {
	candidate := &Candidate{
		ID:             uuid.New(),
		JobID:          jobID,
		SourceURL:      sourceURL,
		SourceType:     sourceType,
		Model:          model,
		TuningHash:     tuningHash,
		TuningName:     tuningName,
		Status:         CandidateStatusPending,
		Priority:       CandidatePriorityNormal,
		RetryCount:     0,
		TimestampAdded: time.Now().UTC(),
	}

	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	return candidate, nil
}

// Validate checks if the Candidate has valid data.
// Returns an error if any field fails validation.
func (c *Candidate) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCandidateID
	}

	if c.JobID == uuid.Nil {
		return ErrEmptyCandidateJobID
	}

	if !isValidCandidateStatus(c.Status) {
		return ErrInvalidCandidateStatus
	}

	if !isValidCandidatePriority(c.Priority) {
		return ErrInvalidCandidatePriority
	}

	if c.RetryCount < 0 {
		return ErrNegativeRetryCount
	}

	return nil
}

// Terminal reports whether the candidate has reached a final state.
func (c *Candidate) Terminal() bool {
	return c.Status == CandidateStatusCompleted || c.Status == CandidateStatusFailed
}

// isValidCandidateStatus checks if the given status is a valid CandidateStatus.
func isValidCandidateStatus(status CandidateStatus) bool {
	switch status {
	case CandidateStatusPending, CandidateStatusProcessing,
		CandidateStatusCompleted, CandidateStatusFailed:
		return true
	default:
		return false
	}
}

// isValidCandidatePriority checks if the given priority is a valid CandidatePriority.
func isValidCandidatePriority(priority CandidatePriority) bool {
	switch priority {
	case CandidatePriorityNormal, CandidatePriorityHigh:
		return true
	default:
		return false
	}
}
