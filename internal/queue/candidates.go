package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/store"
)

// EnqueueParams carries everything needed to enqueue one candidate.
type EnqueueParams struct {
	JobID       uuid.UUID
	SourceURL   string
	SourceType  string
	Model       string
	TuningHash  string
	TuningName  string
	Priority    domain.CandidatePriority
	PayloadType store.PayloadType
	Payload     []byte
}

// AddCandidate persists the payload and appends a pending candidate to the
// collection. The payload is written first so an admitted candidate always
// finds its source data; if the metadata write fails the payload is rolled
// back. The caller is responsible for triggering a scheduling pass (the API
// layer does this through the candidate-added event).
func (q *Queue) AddCandidate(ctx context.Context, params EnqueueParams) (*domain.Candidate, error) {
	cand, err := domain.NewCandidate(
		params.JobID,
		params.SourceURL,
		params.SourceType,
		params.Model,
		params.TuningHash,
		params.TuningName,
	)
	if err != nil {
		return nil, err
	}
	if params.Priority == domain.CandidatePriorityHigh {
		cand.Priority = domain.CandidatePriorityHigh
	}

	if err := q.payloads.Save(ctx, cand.ID, params.PayloadType, params.Payload); err != nil {
		return nil, fmt.Errorf("failed to store candidate payload: %w", err)
	}

	q.mu.Lock()
	err = q.appendCandidate(ctx, cand)
	q.mu.Unlock()
	if err != nil {
		if derr := q.payloads.Delete(ctx, cand.ID); derr != nil {
			q.logger.Warn("failed to roll back payload", "candidate_id", cand.ID, "error", derr)
		}
		return nil, err
	}

	q.logger.Info("candidate enqueued",
		"candidate_id", cand.ID,
		"job_id", cand.JobID,
		"priority", cand.Priority)
	return cand, nil
}

func (q *Queue) appendCandidate(ctx context.Context, cand *domain.Candidate) error {
	jobs, err := store.LoadJobs(ctx, q.metadata)
	if err != nil {
		return err
	}
	known := false
	for i := range jobs {
		if jobs[i].ID == cand.JobID {
			known = true
			break
		}
	}
	if !known {
		return store.ErrJobNotFound
	}

	candidates, err := store.LoadCandidates(ctx, q.metadata)
	if err != nil {
		return err
	}
	candidates = append(candidates, *cand)
	return store.SaveCandidates(ctx, q.metadata, candidates)
}

// RemoveCandidate deletes a candidate and its payload. Removing an unknown
// candidate is a no-op; removing one whose analysis is in flight causes the
// pipeline to discard its result when it tries to write back.
func (q *Queue) RemoveCandidate(ctx context.Context, id uuid.UUID) error {
	q.mu.Lock()
	candidates, err := store.LoadCandidates(ctx, q.metadata)
	if err != nil {
		q.mu.Unlock()
		return err
	}

	found := false
	kept := candidates[:0]
	for i := range candidates {
		if candidates[i].ID == id {
			found = true
			continue
		}
		kept = append(kept, candidates[i])
	}
	if found {
		err = store.SaveCandidates(ctx, q.metadata, kept)
	}
	q.mu.Unlock()
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	if derr := q.payloads.Delete(ctx, id); derr != nil {
		q.logger.Warn("failed to delete payload", "candidate_id", id, "error", derr)
	}
	q.logger.Info("candidate removed", "candidate_id", id)
	return nil
}

// RemoveJobCandidates deletes every candidate of a job, payloads included.
// Used when the job itself is deleted.
func (q *Queue) RemoveJobCandidates(ctx context.Context, jobID uuid.UUID) error {
	q.mu.Lock()
	candidates, err := store.LoadCandidates(ctx, q.metadata)
	if err != nil {
		q.mu.Unlock()
		return err
	}

	var removed []uuid.UUID
	kept := candidates[:0]
	for i := range candidates {
		if candidates[i].JobID == jobID {
			removed = append(removed, candidates[i].ID)
			continue
		}
		kept = append(kept, candidates[i])
	}
	if len(removed) > 0 {
		err = store.SaveCandidates(ctx, q.metadata, kept)
	}
	q.mu.Unlock()
	if err != nil {
		return err
	}

	for _, id := range removed {
		if derr := q.payloads.Delete(ctx, id); derr != nil {
			q.logger.Warn("failed to delete payload", "candidate_id", id, "error", derr)
		}
	}
	if len(removed) > 0 {
		q.logger.Info("job candidates removed", "job_id", jobID, "count", len(removed))
	}
	return nil
}

// ClearCandidates removes every candidate and every stored payload.
func (q *Queue) ClearCandidates(ctx context.Context) error {
	q.mu.Lock()
	err := store.SaveCandidates(ctx, q.metadata, []domain.Candidate{})
	q.mu.Unlock()
	if err != nil {
		return err
	}

	if err := q.payloads.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear payloads: %w", err)
	}
	q.logger.Info("candidate queue cleared")
	return nil
}

// RetryCandidate requeues a failed candidate with a fresh retry budget.
// Only failed candidates can be retried.
func (q *Queue) RetryCandidate(ctx context.Context, id uuid.UUID) error {
	var wrongStatus bool
	updated, err := q.updateCandidate(ctx, id, func(c *domain.Candidate) {
		if c.Status != domain.CandidateStatusFailed {
			wrongStatus = true
			return
		}
		c.Status = domain.CandidateStatusPending
		c.RetryCount = 0
		c.ErrorMsg = ""
		c.LastError = ""
		c.TimestampProcessing = nil
		c.TimestampProcessed = nil
	})
	if err != nil {
		return err
	}
	if !updated {
		return store.ErrCandidateNotFound
	}
	if wrongStatus {
		return ErrNotRetryable
	}

	q.logger.Info("candidate requeued", "candidate_id", id)
	go func() {
		if err := q.RunSchedulingPass(q.ctx); err != nil {
			q.logger.Error("scheduling pass failed", "error", err)
		}
	}()
	return nil
}

// PrioritizeCandidate bumps a pending candidate to high priority so the next
// scheduling pass admits it ahead of normal-priority work.
func (q *Queue) PrioritizeCandidate(ctx context.Context, id uuid.UUID) error {
	var wrongStatus bool
	updated, err := q.updateCandidate(ctx, id, func(c *domain.Candidate) {
		if c.Status != domain.CandidateStatusPending {
			wrongStatus = true
			return
		}
		c.Priority = domain.CandidatePriorityHigh
	})
	if err != nil {
		return err
	}
	if !updated {
		return store.ErrCandidateNotFound
	}
	if wrongStatus {
		return ErrNotPending
	}

	q.logger.Info("candidate prioritized", "candidate_id", id)
	return nil
}

// ListCandidates returns a snapshot of the candidate collection, optionally
// filtered by job.
func (q *Queue) ListCandidates(ctx context.Context, jobID *uuid.UUID) ([]domain.Candidate, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	candidates, err := store.LoadCandidates(ctx, q.metadata)
	if err != nil {
		return nil, err
	}
	if jobID == nil {
		return candidates, nil
	}

	filtered := make([]domain.Candidate, 0, len(candidates))
	for i := range candidates {
		if candidates[i].JobID == *jobID {
			filtered = append(filtered, candidates[i])
		}
	}
	return filtered, nil
}

// GetCandidate returns one candidate by ID.
func (q *Queue) GetCandidate(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	candidates, err := store.LoadCandidates(ctx, q.metadata)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if candidates[i].ID == id {
			cand := candidates[i]
			return &cand, nil
		}
	}
	return nil, store.ErrCandidateNotFound
}
