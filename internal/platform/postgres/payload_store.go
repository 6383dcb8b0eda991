package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pawzhq/pawz-api/internal/platform/logger"
	"github.com/pawzhq/pawz-api/internal/store"
)

// PayloadStore implements store.PayloadStore on PostgreSQL, one bytea row per
// candidate. Payloads live in their own table so candidate state changes
// never rewrite multi-megabyte blobs.
type PayloadStore struct {
	db *sql.DB
}

// NewPayloadStore creates a new PayloadStore backed by the given database handle.
func NewPayloadStore(db *sql.DB) *PayloadStore {
	return &PayloadStore{db: db}
}

// Save stores the payload for the given candidate ID, replacing any existing one.
func (s *PayloadStore) Save(ctx context.Context, id uuid.UUID, payloadType store.PayloadType, content []byte) error {
	log := logger.FromContext(ctx)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payloads (id, type, content, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET type = EXCLUDED.type, content = EXCLUDED.content
	`, id, payloadType, content, time.Now().UTC())
	if err != nil {
		log.Error("failed to save payload", "candidate_id", id, "error", err)
		return fmt.Errorf("failed to save payload: %w", err)
	}

	return nil
}

// Get returns the payload for the given candidate ID.
func (s *PayloadStore) Get(ctx context.Context, id uuid.UUID) (*store.Payload, error) {
	payload := store.Payload{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT type, content, created_at FROM payloads WHERE id = $1`, id).
		Scan(&payload.Type, &payload.Content, &payload.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrPayloadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	return &payload, nil
}

// Delete removes the payload for the given candidate ID. Missing rows are a no-op.
func (s *PayloadStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM payloads WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete payload: %w", err)
	}
	return nil
}

// Clear removes all stored payloads.
func (s *PayloadStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM payloads`); err != nil {
		return fmt.Errorf("failed to clear payloads: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ store.PayloadStore = (*PayloadStore)(nil)
