package queue

import (
	"context"
	"sort"
	"time"

	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/store"
)

// RunSchedulingPass admits pending candidates up to the concurrency budget
// and dispatches a worker pipeline for each admitted one. The pass is
// idempotent: admitted candidates are marked processing before dispatch, so a
// second pass over the same state admits nothing extra. Overlapping
// invocations collapse into one; the loser returns immediately and relies on
// the watchdog wake-up to cover anything the running pass missed.
func (q *Queue) RunSchedulingPass(ctx context.Context) error {
	if !q.passRunning.CompareAndSwap(false, true) {
		q.logger.Debug("scheduling pass already running, skipping")
		return nil
	}
	defer q.passRunning.Store(false)

	admitted, jobs, err := q.admitCandidates(ctx)
	if err != nil {
		// Nothing was marked, so nothing is lost: the candidates stay
		// pending and the next wake-up retries the whole pass.
		q.logger.Error("scheduling pass aborted", "error", err)
		return err
	}

	for _, cand := range admitted {
		q.wg.Add(1)
		go q.runPipeline(q.ctx, cand, jobs)
	}
	return nil
}

// admitCandidates performs the read-modify-write half of a scheduling pass:
// under the collection lock it computes the free budget from persisted state,
// picks the next candidates in priority order and persists their transition
// to processing in a single write. It returns the admitted candidates (with
// updated state) plus a job snapshot for the pipelines.
func (q *Queue) admitCandidates(ctx context.Context) ([]domain.Candidate, []domain.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	candidates, err := store.LoadCandidates(ctx, q.metadata)
	if err != nil {
		return nil, nil, err
	}

	inFlight := 0
	var waiting []int
	for i := range candidates {
		switch candidates[i].Status {
		case domain.CandidateStatusProcessing:
			inFlight++
		case domain.CandidateStatusPending:
			waiting = append(waiting, i)
		}
	}

	budget := q.cfg.MaxConcurrent - inFlight
	if budget <= 0 || len(waiting) == 0 {
		return nil, nil, nil
	}
	if budget > len(waiting) {
		budget = len(waiting)
	}

	// High priority first, then enqueue order. The sort is stable so equal
	// candidates keep their relative positions across passes.
	sort.SliceStable(waiting, func(a, b int) bool {
		ci, cj := &candidates[waiting[a]], &candidates[waiting[b]]
		hi := ci.Priority == domain.CandidatePriorityHigh
		hj := cj.Priority == domain.CandidatePriorityHigh
		if hi != hj {
			return hi
		}
		return ci.TimestampAdded.Before(cj.TimestampAdded)
	})

	jobs, err := store.LoadJobs(ctx, q.metadata)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	admitted := make([]domain.Candidate, 0, budget)
	for _, idx := range waiting[:budget] {
		candidates[idx].Status = domain.CandidateStatusProcessing
		candidates[idx].TimestampProcessing = &now
		admitted = append(admitted, candidates[idx])
	}

	if err := store.SaveCandidates(ctx, q.metadata, candidates); err != nil {
		return nil, nil, err
	}

	q.logger.Info("admitted candidates",
		"admitted", len(admitted),
		"in_flight", inFlight,
		"pending", len(waiting)-len(admitted))
	return admitted, jobs, nil
}
