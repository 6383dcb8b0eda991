package queue

import (
	"context"
	"time"

	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/store"
)

// reclaimStuck resets candidates that have sat in processing past the stuck
// threshold back to pending. Their pipelines are presumed dead (process
// killed mid-flight or a write that never landed), so no in-memory state is
// consulted. Each reclamation consumes one retry so a candidate that keeps
// taking its pipeline down cannot loop forever.
func (q *Queue) reclaimStuck(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	candidates, err := store.LoadCandidates(ctx, q.metadata)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	reclaimed := 0
	for i := range candidates {
		c := &candidates[i]
		if c.Status != domain.CandidateStatusProcessing {
			continue
		}

		started := c.TimestampAdded
		if c.TimestampProcessing != nil {
			started = *c.TimestampProcessing
		}
		age := now.Sub(started)
		if age <= q.cfg.StuckThreshold {
			continue
		}

		q.logger.Warn("reclaiming stuck candidate",
			"candidate_id", c.ID,
			"processing_for", age.Round(time.Second).String(),
			"retry_count", c.RetryCount+1)
		c.Status = domain.CandidateStatusPending
		c.RetryCount++
		c.LastError = "analysis stalled"
		c.TimestampProcessing = nil
		reclaimed++
	}

	if reclaimed == 0 {
		return nil
	}
	return store.SaveCandidates(ctx, q.metadata, candidates)
}
