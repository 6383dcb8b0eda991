package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobCriteria splits a job's requirements into blocking and bonus criteria.
type JobCriteria struct {
	MustHave   []string `json:"must_have"`
	NiceToHave []string `json:"nice_to_have"`
}

// Job is the scoring context a candidate is evaluated against.
// At most one job is active at a time; the invariant is enforced by the
// activation operation, not by storage.
type Job struct {
	ID        uuid.UUID   `json:"id"`
	Title     string      `json:"title"`
	RawBrief  string      `json:"raw_brief"`
	Criteria  JobCriteria `json:"criteria"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewJob creates a new Job with the given title, brief and criteria.
// Returns an error if validation fails.
func NewJob(title, rawBrief string, criteria JobCriteria) (*Job, error) {
	job := &Job{
		ID:        uuid.New(),
		Title:     title,
		RawBrief:  rawBrief,
		Criteria:  criteria,
		Active:    false,
		CreatedAt: time.Now().UTC(),
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the Job has valid data.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.Title == "" {
		return ErrEmptyJobTitle
	}

	return nil
}
