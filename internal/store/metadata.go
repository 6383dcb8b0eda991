package store

import (
	"context"
	"encoding/json"
)

// Collection keys in the metadata store.
const (
	KeyCandidates = "pawz_candidates"
	KeyJobs       = "pawz_jobs"
	KeyWeights    = "pawz_active_weights"
	KeySettings   = "pawz_settings"
	KeyAlarms     = "pawz_alarms"
)

// ChangeFunc is invoked after a successful Set with the old and new value of
// each written key. Old is nil when the key did not exist before.
type ChangeFunc func(key string, old, new json.RawMessage)

// MetadataStore is key-value persistence for the lightweight collections
// (jobs, candidates) and scalar configuration. Reads and writes are
// whole-collection: Get returns the full stored document per key, Set
// replaces it. There are no transactions and no compare-and-set.
type MetadataStore interface {
	// Get returns the stored documents for the requested keys.
	// Keys with no stored document are absent from the result map.
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)

	// Set replaces the stored documents for all given keys.
	Set(ctx context.Context, values map[string]json.RawMessage) error

	// OnChange registers a callback fired after any successful Set.
	OnChange(fn ChangeFunc)
}
