package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureHandler struct {
	events []*Event
	err    error
}

func (h *captureHandler) HandleEvent(_ context.Context, event *Event) error {
	h.events = append(h.events, event)
	return h.err
}

func newEmitter() *InMemoryEventEmitter {
	return NewInMemoryEventEmitter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEmitEvent_DispatchesToAllHandlers(t *testing.T) {
	emitter := newEmitter()
	first := &captureHandler{}
	second := &captureHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event, err := NewEvent(TypeCandidateAdded, CandidateAddedPayload{
		CandidateID: uuid.New(),
		JobID:       uuid.New(),
	})
	require.NoError(t, err)

	require.NoError(t, emitter.EmitEvent(context.Background(), event))
	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
}

func TestEmitEvent_HandlerErrorDoesNotStopOthers(t *testing.T) {
	emitter := newEmitter()
	failing := &captureHandler{err: errors.New("handler broke")}
	healthy := &captureHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(healthy)

	event, err := NewEvent(TypeCandidateAdded, CandidateAddedPayload{})
	require.NoError(t, err)

	err = emitter.EmitEvent(context.Background(), event)
	assert.Error(t, err)
	assert.Len(t, healthy.events, 1)
}

func TestEvent_UnmarshalPayload(t *testing.T) {
	payload := CandidateAddedPayload{CandidateID: uuid.New(), JobID: uuid.New()}
	event, err := NewEvent(TypeCandidateAdded, payload)
	require.NoError(t, err)

	var decoded CandidateAddedPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}
