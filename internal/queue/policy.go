package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/scoring"
)

// handleFailure applies the retry policy to a failed attempt. Transient
// failures within the retry budget go back to pending with a delayed wake-up;
// everything else is terminal. The retry counter read at admission time is
// authoritative for the decision.
func (q *Queue) handleFailure(ctx context.Context, cand domain.Candidate, err error) {
	log := q.logger.With("candidate_id", cand.ID)
	message := scoring.Message(err)

	if scoring.Retryable(err) && cand.RetryCount < q.cfg.MaxRetry {
		attempt := cand.RetryCount + 1
		log.Info("scheduling retry",
			"attempt", attempt,
			"max_retry", q.cfg.MaxRetry,
			"error", message)

		updated, uerr := q.updateCandidate(ctx, cand.ID, func(c *domain.Candidate) {
			c.Status = domain.CandidateStatusPending
			c.RetryCount++
			c.LastError = message
			c.TimestampProcessing = nil
		})
		if uerr != nil {
			log.Error("failed to persist retry state", "error", uerr)
			return
		}
		if !updated {
			log.Info("candidate removed during analysis, dropping retry")
			if derr := q.payloads.Delete(ctx, cand.ID); derr != nil {
				log.Warn("failed to delete orphaned payload", "error", derr)
			}
			return
		}

		// A lost wake-up only delays the retry: the recurring watchdog pass
		// reschedules pending candidates on its own.
		label := retryAlarmPrefix + cand.ID.String()
		if aerr := q.alarms.ScheduleOnce(ctx, label, q.cfg.RetryDelay); aerr != nil {
			log.Warn("failed to arm retry alarm", "error", aerr)
		}
		return
	}

	log.Warn("candidate failed",
		"retryable", scoring.Retryable(err),
		"retry_count", cand.RetryCount,
		"error", message)
	q.failCandidate(ctx, cand.ID, message)
}

// failCandidate marks the candidate terminally failed and flushes its payload.
func (q *Queue) failCandidate(ctx context.Context, id uuid.UUID, message string) {
	now := time.Now().UTC()
	updated, err := q.updateCandidate(ctx, id, func(c *domain.Candidate) {
		c.Status = domain.CandidateStatusFailed
		c.ErrorMsg = message
		c.TimestampProcessing = nil
		c.TimestampProcessed = &now
	})
	if err != nil {
		q.logger.Error("failed to persist failure state", "candidate_id", id, "error", err)
		return
	}
	if !updated {
		q.logger.Info("candidate removed before failure could be recorded", "candidate_id", id)
	}

	if err := q.payloads.Delete(ctx, id); err != nil {
		q.logger.Warn("failed to delete payload of failed candidate", "candidate_id", id, "error", err)
	}
}
