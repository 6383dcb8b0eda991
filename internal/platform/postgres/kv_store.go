package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pawzhq/pawz-api/internal/platform/logger"
	"github.com/pawzhq/pawz-api/internal/store"
)

// KVStore implements store.MetadataStore on PostgreSQL. Each collection key
// maps to a single JSONB document row, preserving the whole-collection
// read/write contract: there is no partial update and no compare-and-set.
type KVStore struct {
	db *sql.DB

	mu       sync.Mutex
	watchers []store.ChangeFunc
}

// NewKVStore creates a new KVStore backed by the given database handle.
func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db}
}

// Get returns the stored documents for the requested keys.
func (s *KVStore) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	log := logger.FromContext(ctx)

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, doc FROM metadata WHERE key = ANY($1)`, keys)
	if err != nil {
		log.Error("failed to read metadata", "keys", keys, "error", err)
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]json.RawMessage, len(keys))
	for rows.Next() {
		var key string
		var doc []byte
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		result[key] = json.RawMessage(doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate metadata rows: %w", err)
	}

	return result, nil
}

// Set replaces the stored documents for all given keys and notifies watchers
// with the old and new values once the write has committed.
func (s *KVStore) Set(ctx context.Context, values map[string]json.RawMessage) error {
	log := logger.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin metadata write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	type change struct {
		key      string
		old, new json.RawMessage
	}
	changes := make([]change, 0, len(values))

	now := time.Now().UTC()
	for key, value := range values {
		var old []byte
		err := tx.QueryRowContext(ctx,
			`SELECT doc FROM metadata WHERE key = $1 FOR UPDATE`, key).Scan(&old)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to read previous value of %s: %w", key, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO metadata (key, doc, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at
		`, key, []byte(value), now)
		if err != nil {
			log.Error("failed to write metadata", "key", key, "error", err)
			return fmt.Errorf("failed to write metadata key %s: %w", key, err)
		}

		changes = append(changes, change{key: key, old: old, new: value})
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metadata write: %w", err)
	}

	s.mu.Lock()
	watchers := append([]store.ChangeFunc(nil), s.watchers...)
	s.mu.Unlock()

	for _, w := range watchers {
		for _, c := range changes {
			w(c.key, c.old, c.new)
		}
	}

	return nil
}

// OnChange registers a callback fired after any successful Set.
func (s *KVStore) OnChange(fn store.ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// Compile-time interface check.
var _ store.MetadataStore = (*KVStore)(nil)
