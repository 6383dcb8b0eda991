package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemMetadataStore is an in-memory MetadataStore used in tests and as a
// reference implementation of the whole-collection contract.
//
// Optional error hooks let tests inject storage failures per operation.
type MemMetadataStore struct {
	mu       sync.Mutex
	docs     map[string]json.RawMessage
	watchers []ChangeFunc

	GetErr func(keys []string) error
	SetErr func(values map[string]json.RawMessage) error
}

// NewMemMetadataStore creates an empty in-memory metadata store.
func NewMemMetadataStore() *MemMetadataStore {
	return &MemMetadataStore{
		docs: make(map[string]json.RawMessage),
	}
}

// Get returns the stored documents for the requested keys.
func (s *MemMetadataStore) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.GetErr != nil {
		if err := s.GetErr(keys); err != nil {
			return nil, err
		}
	}

	result := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if doc, ok := s.docs[key]; ok {
			result[key] = append(json.RawMessage(nil), doc...)
		}
	}
	return result, nil
}

// Set replaces the stored documents for all given keys and notifies watchers.
func (s *MemMetadataStore) Set(ctx context.Context, values map[string]json.RawMessage) error {
	s.mu.Lock()

	if s.SetErr != nil {
		if err := s.SetErr(values); err != nil {
			s.mu.Unlock()
			return err
		}
	}

	type change struct {
		key      string
		old, new json.RawMessage
	}
	changes := make([]change, 0, len(values))
	for key, value := range values {
		old := s.docs[key]
		s.docs[key] = append(json.RawMessage(nil), value...)
		changes = append(changes, change{key: key, old: old, new: s.docs[key]})
	}
	watchers := append([]ChangeFunc(nil), s.watchers...)
	s.mu.Unlock()

	// Watchers run outside the lock so they can re-enter the store.
	for _, w := range watchers {
		for _, c := range changes {
			w(c.key, c.old, c.new)
		}
	}
	return nil
}

// OnChange registers a change callback.
func (s *MemMetadataStore) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// MemPayloadStore is an in-memory PayloadStore used in tests.
type MemPayloadStore struct {
	mu       sync.Mutex
	payloads map[uuid.UUID]Payload

	SaveErr   func(id uuid.UUID) error
	GetErr    func(id uuid.UUID) error
	DeleteErr func(id uuid.UUID) error
}

// NewMemPayloadStore creates an empty in-memory payload store.
func NewMemPayloadStore() *MemPayloadStore {
	return &MemPayloadStore{
		payloads: make(map[uuid.UUID]Payload),
	}
}

// Save stores the payload for the given candidate ID.
func (s *MemPayloadStore) Save(ctx context.Context, id uuid.UUID, payloadType PayloadType, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		if err := s.SaveErr(id); err != nil {
			return err
		}
	}

	s.payloads[id] = Payload{
		ID:        id,
		Type:      payloadType,
		Content:   append([]byte(nil), content...),
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// Get returns the payload for the given candidate ID.
func (s *MemPayloadStore) Get(ctx context.Context, id uuid.UUID) (*Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.GetErr != nil {
		if err := s.GetErr(id); err != nil {
			return nil, err
		}
	}

	payload, ok := s.payloads[id]
	if !ok {
		return nil, ErrPayloadNotFound
	}
	return &payload, nil
}

// Delete removes the payload for the given candidate ID.
func (s *MemPayloadStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.DeleteErr != nil {
		if err := s.DeleteErr(id); err != nil {
			return err
		}
	}

	delete(s.payloads, id)
	return nil
}

// Clear removes all stored payloads.
func (s *MemPayloadStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = make(map[uuid.UUID]Payload)
	return nil
}

// Len reports the number of stored payloads. Test helper.
func (s *MemPayloadStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

// Has reports whether a payload exists for the given ID. Test helper.
func (s *MemPayloadStore) Has(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.payloads[id]
	return ok
}

// Compile-time interface checks.
var (
	_ MetadataStore = (*MemMetadataStore)(nil)
	_ PayloadStore  = (*MemPayloadStore)(nil)
)
