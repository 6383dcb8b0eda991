package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pawzhq/pawz-api/internal/domain"
)

// LoadCandidates reads the full candidate collection from the metadata store.
// A missing collection is an empty one.
func LoadCandidates(ctx context.Context, ms MetadataStore) ([]domain.Candidate, error) {
	var candidates []domain.Candidate
	if err := loadCollection(ctx, ms, KeyCandidates, &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// SaveCandidates replaces the full candidate collection in the metadata store.
func SaveCandidates(ctx context.Context, ms MetadataStore, candidates []domain.Candidate) error {
	return saveCollection(ctx, ms, KeyCandidates, candidates)
}

// LoadJobs reads the full job collection from the metadata store.
func LoadJobs(ctx context.Context, ms MetadataStore) ([]domain.Job, error) {
	var jobs []domain.Job
	if err := loadCollection(ctx, ms, KeyJobs, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// SaveJobs replaces the full job collection in the metadata store.
func SaveJobs(ctx context.Context, ms MetadataStore, jobs []domain.Job) error {
	return saveCollection(ctx, ms, KeyJobs, jobs)
}

// LoadWeights reads the active scoring weights. Returns nil when no weights
// have been configured; the scorer treats that as "no tuning".
func LoadWeights(ctx context.Context, ms MetadataStore) (*domain.Weights, error) {
	docs, err := ms.Get(ctx, KeyWeights)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", KeyWeights, err)
	}

	raw, ok := docs[KeyWeights]
	if !ok {
		return nil, nil
	}

	var weights domain.Weights
	if err := json.Unmarshal(raw, &weights); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", KeyWeights, err)
	}
	return &weights, nil
}

// SaveWeights replaces the active scoring weights.
func SaveWeights(ctx context.Context, ms MetadataStore, weights *domain.Weights) error {
	return saveCollection(ctx, ms, KeyWeights, weights)
}

// LoadSettings reads the service settings, falling back to defaults when the
// store has never been seeded.
func LoadSettings(ctx context.Context, ms MetadataStore) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	docs, err := ms.Get(ctx, KeySettings)
	if err != nil {
		return settings, fmt.Errorf("failed to read %s: %w", KeySettings, err)
	}

	raw, ok := docs[KeySettings]
	if !ok {
		return settings, nil
	}

	if err := json.Unmarshal(raw, &settings); err != nil {
		return settings, fmt.Errorf("failed to decode %s: %w", KeySettings, err)
	}
	return settings, nil
}

// SaveSettings replaces the service settings.
func SaveSettings(ctx context.Context, ms MetadataStore, settings domain.Settings) error {
	return saveCollection(ctx, ms, KeySettings, settings)
}

func loadCollection(ctx context.Context, ms MetadataStore, key string, out interface{}) error {
	docs, err := ms.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	raw, ok := docs[key]
	if !ok {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func saveCollection(ctx context.Context, ms MetadataStore, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if err := ms.Set(ctx, map[string]json.RawMessage{key: raw}); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
