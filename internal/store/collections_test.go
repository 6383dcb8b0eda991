package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawzhq/pawz-api/internal/domain"
)

func TestCandidateCollection_RoundTrip(t *testing.T) {
	ms := NewMemMetadataStore()
	ctx := context.Background()

	empty, err := LoadCandidates(ctx, ms)
	require.NoError(t, err)
	assert.Empty(t, empty, "missing collection must read as empty")

	cand, err := domain.NewCandidate(uuid.New(), "", "text", "gemini-2.5-flash", "", "")
	require.NoError(t, err)
	require.NoError(t, SaveCandidates(ctx, ms, []domain.Candidate{*cand}))

	loaded, err := LoadCandidates(ctx, ms)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, cand.ID, loaded[0].ID)
	assert.Equal(t, cand.Status, loaded[0].Status)
}

func TestWeights_MissingIsNil(t *testing.T) {
	ms := NewMemMetadataStore()
	ctx := context.Background()

	weights, err := LoadWeights(ctx, ms)
	require.NoError(t, err)
	assert.Nil(t, weights)

	require.NoError(t, SaveWeights(ctx, ms, &domain.Weights{
		Name:   "senior",
		Hash:   "abc123",
		Values: map[string]float64{"experience": 0.7},
	}))

	weights, err = LoadWeights(ctx, ms)
	require.NoError(t, err)
	require.NotNil(t, weights)
	assert.Equal(t, "senior", weights.Name)
	assert.InDelta(t, 0.7, weights.Values["experience"], 1e-9)
}

func TestSettings_FallsBackToDefaults(t *testing.T) {
	ms := NewMemMetadataStore()
	ctx := context.Background()

	settings, err := LoadSettings(ctx, ms)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)

	settings.ModelID = "gemini-2.5-pro"
	require.NoError(t, SaveSettings(ctx, ms, settings))

	reloaded, err := LoadSettings(ctx, ms)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", reloaded.ModelID)
}

func TestLoadCollection_CorruptDocument(t *testing.T) {
	ms := NewMemMetadataStore()
	ctx := context.Background()

	require.NoError(t, ms.Set(ctx, map[string]json.RawMessage{
		KeyCandidates: json.RawMessage(`{"not": "an array"}`),
	}))

	_, err := LoadCandidates(ctx, ms)
	assert.Error(t, err)
}

func TestMemMetadataStore_WatchersSeeOldAndNew(t *testing.T) {
	ms := NewMemMetadataStore()
	ctx := context.Background()

	type seen struct {
		key      string
		old, new string
	}
	var changes []seen
	ms.OnChange(func(key string, oldValue, newValue json.RawMessage) {
		changes = append(changes, seen{key, string(oldValue), string(newValue)})
	})

	require.NoError(t, ms.Set(ctx, map[string]json.RawMessage{KeyJobs: json.RawMessage(`[1]`)}))
	require.NoError(t, ms.Set(ctx, map[string]json.RawMessage{KeyJobs: json.RawMessage(`[1,2]`)}))

	require.Len(t, changes, 2)
	assert.Equal(t, "", changes[0].old)
	assert.Equal(t, "[1]", changes[0].new)
	assert.Equal(t, "[1]", changes[1].old)
	assert.Equal(t, "[1,2]", changes[1].new)
}
