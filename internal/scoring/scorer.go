// Package scoring defines the boundary between the queue core and the
// external AI scoring service, following the same hexagonal split the
// generation layer uses elsewhere: the core depends on the Scorer interface,
// and the platform layer provides the Gemini-backed implementation.
package scoring

import (
	"context"

	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/store"
)

// Result is the structured evaluation returned by the scoring service.
// A content-safety rejection is expressed as a low-score Result, not an error.
type Result struct {
	CandidateName  string          `json:"candidate_name"`
	CandidateTitle string          `json:"candidate_title"`
	Score          int             `json:"score"`
	Verdict        string          `json:"verdict"`
	Analysis       domain.Analysis `json:"analysis"`
}

// Scorer evaluates one candidate payload against a job context using the
// active scoring weights. Calls may take on the order of a minute; callers
// bound them with a context deadline. Failures are classified *Error values.
type Scorer interface {
	Score(
		ctx context.Context,
		payload *store.Payload,
		job *domain.Job,
		weights *domain.Weights,
		model string,
	) (*Result, error)
}

// JobBrief is the structured form of a raw job description.
type JobBrief struct {
	JobTitle string             `json:"job_title"`
	Summary  string             `json:"summary"`
	Criteria domain.JobCriteria `json:"criteria"`
}

// JobParser turns a free-text job description into structured criteria.
type JobParser interface {
	ParseJobBrief(ctx context.Context, rawBrief string) (*JobBrief, error)
}
