package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/platform/logger"
	"github.com/pawzhq/pawz-api/internal/scoring"
	"github.com/pawzhq/pawz-api/internal/store"
)

// runPipeline executes one analysis attempt for an already-admitted
// candidate: fetch payload, resolve job context, load the active weights,
// score, then flush results. Failures route through the retry policy; a
// candidate deleted mid-flight has its result discarded.
func (q *Queue) runPipeline(ctx context.Context, cand domain.Candidate, jobs []domain.Job) {
	defer q.wg.Done()

	log := q.logger.With("candidate_id", cand.ID, "job_id", cand.JobID)
	ctx = logger.WithLogger(ctx, log)

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panicked", "panic", r)
			q.failCandidate(ctx, cand.ID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	payload, err := q.payloads.Get(ctx, cand.ID)
	if err != nil {
		if errors.Is(err, store.ErrPayloadNotFound) {
			log.Error("payload missing for admitted candidate")
			q.failCandidate(ctx, cand.ID, "source data lost")
			return
		}
		q.handleFailure(ctx, cand,
			scoring.NewError(scoring.KindNetwork, "payload store unavailable", true, err))
		return
	}

	var job *domain.Job
	for i := range jobs {
		if jobs[i].ID == cand.JobID {
			job = &jobs[i]
			break
		}
	}
	if job == nil {
		log.Error("job context missing")
		q.failCandidate(ctx, cand.ID, "job context missing")
		return
	}

	// Weights are read fresh each attempt so a retry picks up tuning changes
	// made since the candidate was enqueued.
	weights, err := store.LoadWeights(ctx, q.metadata)
	if err != nil {
		q.handleFailure(ctx, cand,
			scoring.NewError(scoring.KindNetwork, "failed to load scoring weights", true, err))
		return
	}

	result, err := q.score(ctx, payload, job, weights, cand.Model)
	if err != nil {
		q.handleFailure(ctx, cand, err)
		return
	}

	q.flushResult(ctx, cand.ID, result)
}

// score runs one scoring call under the attempt deadline, logging a
// heartbeat at a fixed interval while the call is in flight.
func (q *Queue) score(
	ctx context.Context,
	payload *store.Payload,
	job *domain.Job,
	weights *domain.Weights,
	model string,
) (*scoring.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, q.cfg.ScoreTimeout)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(q.cfg.HeartbeatInterval)
		defer ticker.Stop()
		started := time.Now()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				logger.FromContext(ctx).Info("analysis in progress",
					"elapsed", time.Since(started).Round(time.Second).String())
			}
		}
	}()

	return q.scorer.Score(ctx, payload, job, weights, model)
}

// flushResult writes a successful analysis back to the candidate and deletes
// the payload. If the candidate was removed while the call was in flight the
// result is dropped and only the orphaned payload is cleaned up.
func (q *Queue) flushResult(ctx context.Context, id uuid.UUID, result *scoring.Result) {
	log := logger.FromContext(ctx)

	now := time.Now().UTC()
	score := result.Score
	analysis := result.Analysis
	updated, err := q.updateCandidate(ctx, id, func(c *domain.Candidate) {
		c.Status = domain.CandidateStatusCompleted
		c.CandidateName = result.CandidateName
		c.CandidateTitle = result.CandidateTitle
		c.Score = &score
		c.Verdict = result.Verdict
		c.Analysis = &analysis
		c.ErrorMsg = ""
		c.LastError = ""
		c.TimestampProcessing = nil
		c.TimestampProcessed = &now
	})
	if err != nil {
		log.Error("failed to persist analysis result", "error", err)
		return
	}
	if !updated {
		log.Info("candidate removed during analysis, discarding result")
		if err := q.payloads.Delete(ctx, id); err != nil {
			log.Warn("failed to delete orphaned payload", "error", err)
		}
		return
	}

	if err := q.payloads.Delete(ctx, id); err != nil {
		log.Warn("failed to delete payload after analysis", "error", err)
	}
	log.Info("candidate analyzed", "score", result.Score, "verdict", result.Verdict)
}
