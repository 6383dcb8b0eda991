package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PayloadType distinguishes raw text payloads from binary (PDF) payloads.
type PayloadType string

// Possible payload types
const (
	PayloadTypeText   PayloadType = "text"
	PayloadTypeBinary PayloadType = "binary"
)

// Payload is a candidate's heavy source content, stored separately from the
// candidate metadata so lightweight state changes do not move large blobs.
// A payload exists iff its candidate is pending or processing; it is flushed
// once a terminal state is reached.
type Payload struct {
	ID        uuid.UUID
	Type      PayloadType
	Content   []byte
	CreatedAt time.Time
}

// PayloadStore is content-addressed persistence for candidate payloads,
// keyed by candidate ID.
type PayloadStore interface {
	// Save stores the payload for the given candidate ID, replacing any
	// existing payload for that ID.
	Save(ctx context.Context, id uuid.UUID, payloadType PayloadType, content []byte) error

	// Get returns the payload for the given candidate ID.
	// Returns ErrPayloadNotFound if no payload is stored.
	Get(ctx context.Context, id uuid.UUID) (*Payload, error)

	// Delete removes the payload for the given candidate ID.
	// Deleting a missing payload is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	// Clear removes all stored payloads.
	Clear(ctx context.Context) error
}
