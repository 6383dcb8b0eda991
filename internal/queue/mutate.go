package queue

import (
	"context"

	"github.com/google/uuid"
	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/store"
)

// updateCandidate applies fn to the candidate with the given ID and persists
// the whole collection, all under the collection lock. Returns false when the
// candidate no longer exists; callers use that to detect a mid-flight delete.
func (q *Queue) updateCandidate(ctx context.Context, id uuid.UUID, fn func(*domain.Candidate)) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	candidates, err := store.LoadCandidates(ctx, q.metadata)
	if err != nil {
		return false, err
	}

	for i := range candidates {
		if candidates[i].ID != id {
			continue
		}
		fn(&candidates[i])
		if err := store.SaveCandidates(ctx, q.metadata, candidates); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

// candidateExists reports whether the candidate is still in the collection.
func (q *Queue) candidateExists(ctx context.Context, id uuid.UUID) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	candidates, err := store.LoadCandidates(ctx, q.metadata)
	if err != nil {
		return false, err
	}
	for i := range candidates {
		if candidates[i].ID == id {
			return true, nil
		}
	}
	return false, nil
}
