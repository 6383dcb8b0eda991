package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/events"
	"github.com/pawzhq/pawz-api/internal/queue"
	"github.com/pawzhq/pawz-api/internal/store"
)

// mockCandidateService is a configurable CandidateService for handler tests.
type mockCandidateService struct {
	addFn        func(ctx context.Context, params queue.EnqueueParams) (*domain.Candidate, error)
	removeFn     func(ctx context.Context, id uuid.UUID) error
	retryFn      func(ctx context.Context, id uuid.UUID) error
	prioritizeFn func(ctx context.Context, id uuid.UUID) error
	listFn       func(ctx context.Context, jobID *uuid.UUID) ([]domain.Candidate, error)
	getFn        func(ctx context.Context, id uuid.UUID) (*domain.Candidate, error)

	addedParams []queue.EnqueueParams
	removedJobs []uuid.UUID
}

func (m *mockCandidateService) AddCandidate(ctx context.Context, params queue.EnqueueParams) (*domain.Candidate, error) {
	m.addedParams = append(m.addedParams, params)
	if m.addFn != nil {
		return m.addFn(ctx, params)
	}
	cand, err := domain.NewCandidate(params.JobID, params.SourceURL, params.SourceType,
		params.Model, params.TuningHash, params.TuningName)
	if err != nil {
		return nil, err
	}
	return cand, nil
}

func (m *mockCandidateService) RemoveCandidate(ctx context.Context, id uuid.UUID) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, id)
	}
	return nil
}

func (m *mockCandidateService) RemoveJobCandidates(_ context.Context, jobID uuid.UUID) error {
	m.removedJobs = append(m.removedJobs, jobID)
	return nil
}

func (m *mockCandidateService) RetryCandidate(ctx context.Context, id uuid.UUID) error {
	if m.retryFn != nil {
		return m.retryFn(ctx, id)
	}
	return nil
}

func (m *mockCandidateService) PrioritizeCandidate(ctx context.Context, id uuid.UUID) error {
	if m.prioritizeFn != nil {
		return m.prioritizeFn(ctx, id)
	}
	return nil
}

func (m *mockCandidateService) ClearCandidates(context.Context) error { return nil }

func (m *mockCandidateService) ListCandidates(ctx context.Context, jobID *uuid.UUID) ([]domain.Candidate, error) {
	if m.listFn != nil {
		return m.listFn(ctx, jobID)
	}
	return nil, nil
}

func (m *mockCandidateService) GetCandidate(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, store.ErrCandidateNotFound
}

// recordingHandler counts the events it receives.
type recordingHandler struct {
	received []*events.Event
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *events.Event) error {
	h.received = append(h.received, event)
	return nil
}

func newCandidateTestServer(t *testing.T, service *mockCandidateService) (*httptest.Server, *store.MemMetadataStore, *recordingHandler) {
	t.Helper()

	metadata := store.NewMemMetadataStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	emitter := events.NewInMemoryEventEmitter(logger)
	recorder := &recordingHandler{}
	emitter.RegisterHandler(recorder)

	router := NewRouter(RouterDeps{
		Candidates: NewCandidateHandler(service, metadata, emitter),
		Jobs:       NewJobHandler(metadata, service, nil),
		Settings:   NewSettingsHandler(metadata),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, metadata, recorder
}

func jsonBody(t *testing.T, body interface{}) io.Reader {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func TestEnqueueCandidate_TextPayload(t *testing.T) {
	service := &mockCandidateService{}
	server, metadata, recorder := newCandidateTestServer(t, service)

	require.NoError(t, store.SaveWeights(context.Background(), metadata, &domain.Weights{
		Name: "senior-backend", Hash: "abc123", Values: map[string]float64{"experience": 0.5},
	}))

	resp := postJSON(t, server.URL+"/api/candidates", map[string]interface{}{
		"job_id":       uuid.New().String(),
		"source_type":  "text",
		"payload_text": "10 years of Go experience",
	})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, service.addedParams, 1)

	params := service.addedParams[0]
	assert.Equal(t, store.PayloadTypeText, params.PayloadType)
	assert.Equal(t, []byte("10 years of Go experience"), params.Payload)
	assert.Equal(t, "abc123", params.TuningHash)
	assert.Equal(t, "senior-backend", params.TuningName)
	assert.Equal(t, "gemini-2.5-flash", params.Model, "model should default from settings")

	require.Len(t, recorder.received, 1)
	assert.Equal(t, events.TypeCandidateAdded, recorder.received[0].Type)
}

func TestEnqueueCandidate_PDFPayload(t *testing.T) {
	service := &mockCandidateService{}
	server, _, _ := newCandidateTestServer(t, service)

	pdf := []byte("%PDF-1.4 fake")
	resp := postJSON(t, server.URL+"/api/candidates", map[string]interface{}{
		"job_id":         uuid.New().String(),
		"source_type":    "pdf",
		"payload_base64": base64.StdEncoding.EncodeToString(pdf),
	})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, service.addedParams, 1)
	assert.Equal(t, store.PayloadTypeBinary, service.addedParams[0].PayloadType)
	assert.Equal(t, pdf, service.addedParams[0].Payload)
}

func TestEnqueueCandidate_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{
			name: "missing job_id",
			body: map[string]interface{}{
				"source_type":  "text",
				"payload_text": "profile",
			},
		},
		{
			name: "bad source_type",
			body: map[string]interface{}{
				"job_id":       uuid.New().String(),
				"source_type":  "docx",
				"payload_text": "profile",
			},
		},
		{
			name: "missing payload",
			body: map[string]interface{}{
				"job_id":      uuid.New().String(),
				"source_type": "text",
			},
		},
		{
			name: "pdf with text payload",
			body: map[string]interface{}{
				"job_id":       uuid.New().String(),
				"source_type":  "pdf",
				"payload_text": "not a pdf",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			service := &mockCandidateService{}
			server, _, recorder := newCandidateTestServer(t, service)

			resp := postJSON(t, server.URL+"/api/candidates", tc.body)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Empty(t, service.addedParams)
			assert.Empty(t, recorder.received)
		})
	}
}

func TestEnqueueCandidate_UnknownJob(t *testing.T) {
	service := &mockCandidateService{
		addFn: func(context.Context, queue.EnqueueParams) (*domain.Candidate, error) {
			return nil, store.ErrJobNotFound
		},
	}
	server, _, recorder := newCandidateTestServer(t, service)

	resp := postJSON(t, server.URL+"/api/candidates", map[string]interface{}{
		"job_id":       uuid.New().String(),
		"source_type":  "text",
		"payload_text": "profile",
	})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, recorder.received)
}

func TestRetryCandidate_Conflict(t *testing.T) {
	service := &mockCandidateService{
		retryFn: func(context.Context, uuid.UUID) error {
			return queue.ErrNotRetryable
		},
	}
	server, _, _ := newCandidateTestServer(t, service)

	resp := postJSON(t, server.URL+"/api/candidates/"+uuid.New().String()+"/retry", nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestListCandidates_EmptyIsArray(t *testing.T) {
	server, _, _ := newCandidateTestServer(t, &mockCandidateService{})

	resp, err := http.Get(server.URL + "/api/candidates")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body))
}

func TestGetCandidate_BadID(t *testing.T) {
	server, _, _ := newCandidateTestServer(t, &mockCandidateService{})

	resp, err := http.Get(server.URL + "/api/candidates/not-a-uuid")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQueueStats(t *testing.T) {
	service := &mockCandidateService{
		listFn: func(context.Context, *uuid.UUID) ([]domain.Candidate, error) {
			return []domain.Candidate{
				{Status: domain.CandidateStatusPending},
				{Status: domain.CandidateStatusPending},
				{Status: domain.CandidateStatusProcessing},
				{Status: domain.CandidateStatusCompleted},
				{Status: domain.CandidateStatusFailed},
			}, nil
		},
	}
	server, _, _ := newCandidateTestServer(t, service)

	resp, err := http.Get(server.URL + "/api/candidates/stats")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var stats QueueStatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.Processing)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
}
