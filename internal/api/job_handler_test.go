package api

import (
	"context"
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
	"github.com/pawzhq/pawz-api/internal/scoring"
	"github.com/pawzhq/pawz-api/internal/store"
)

func seedJobs(t *testing.T, metadata *store.MemMetadataStore, jobs ...domain.Job) {
	t.Helper()
	require.NoError(t, store.SaveJobs(context.Background(), metadata, jobs))
}

func mustJob(t *testing.T, title string) domain.Job {
	t.Helper()
	job, err := domain.NewJob(title, "", domain.JobCriteria{})
	require.NoError(t, err)
	return *job
}

func TestCreateJob(t *testing.T) {
	service := &mockCandidateService{}
	server, metadata, _ := newCandidateTestServer(t, service)

	resp := postJSON(t, server.URL+"/api/jobs", map[string]interface{}{
		"title":     "Backend Engineer",
		"raw_brief": "We build queues",
		"criteria": map[string]interface{}{
			"must_have": []string{"Go"},
		},
	})
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created domain.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "Backend Engineer", created.Title)
	assert.False(t, created.Active)

	jobs, err := store.LoadJobs(context.Background(), metadata)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, created.ID, jobs[0].ID)
}

func TestCreateJob_MissingTitle(t *testing.T) {
	server, _, _ := newCandidateTestServer(t, &mockCandidateService{})

	resp := postJSON(t, server.URL+"/api/jobs", map[string]interface{}{"raw_brief": "no title"})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestActivateJob_SingleActive(t *testing.T) {
	server, metadata, _ := newCandidateTestServer(t, &mockCandidateService{})

	first := mustJob(t, "First")
	first.Active = true
	second := mustJob(t, "Second")
	seedJobs(t, metadata, first, second)

	resp := postJSON(t, server.URL+"/api/jobs/"+second.ID.String()+"/activate", nil)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	jobs, err := store.LoadJobs(context.Background(), metadata)
	require.NoError(t, err)
	byID := map[uuid.UUID]bool{}
	for _, j := range jobs {
		byID[j.ID] = j.Active
	}
	assert.False(t, byID[first.ID])
	assert.True(t, byID[second.ID])
}

func TestActivateJob_Unknown(t *testing.T) {
	server, _, _ := newCandidateTestServer(t, &mockCandidateService{})

	resp := postJSON(t, server.URL+"/api/jobs/"+uuid.New().String()+"/activate", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteJob_CascadesToCandidates(t *testing.T) {
	service := &mockCandidateService{}
	server, metadata, _ := newCandidateTestServer(t, service)

	job := mustJob(t, "Doomed")
	seedJobs(t, metadata, job)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/jobs/"+job.ID.String(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	jobs, err := store.LoadJobs(context.Background(), metadata)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.Equal(t, []uuid.UUID{job.ID}, service.removedJobs)
}

func TestUpdateJob_PreservesActivation(t *testing.T) {
	server, metadata, _ := newCandidateTestServer(t, &mockCandidateService{})

	job := mustJob(t, "Old Title")
	job.Active = true
	seedJobs(t, metadata, job)

	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/jobs/"+job.ID.String(),
		jsonBody(t, map[string]interface{}{"title": "New Title"}))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	jobs, err := store.LoadJobs(context.Background(), metadata)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "New Title", jobs[0].Title)
	assert.True(t, jobs[0].Active, "update must not clear activation")
}

func TestParseJob_NotConfigured(t *testing.T) {
	server, _, _ := newCandidateTestServer(t, &mockCandidateService{})

	resp := postJSON(t, server.URL+"/api/jobs/parse", map[string]interface{}{
		"raw_brief": "Looking for a Go engineer",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// newTestServerWithJobs mounts a specific JobHandler alongside stub handlers.
func newTestServerWithJobs(t *testing.T, jobs *JobHandler) *httptest.Server {
	t.Helper()

	metadata := store.NewMemMetadataStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	emitter := events.NewInMemoryEventEmitter(logger)

	router := NewRouter(RouterDeps{
		Candidates: NewCandidateHandler(&mockCandidateService{}, metadata, emitter),
		Jobs:       jobs,
		Settings:   NewSettingsHandler(metadata),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

type stubParser struct {
	brief *scoring.JobBrief
	err   error
}

func (p *stubParser) ParseJobBrief(context.Context, string) (*scoring.JobBrief, error) {
	return p.brief, p.err
}

func TestParseJob(t *testing.T) {
	metadata := store.NewMemMetadataStore()
	parser := &stubParser{brief: &scoring.JobBrief{
		JobTitle: "Go Engineer",
		Summary:  "Backend work",
		Criteria: domain.JobCriteria{MustHave: []string{"Go"}},
	}}
	handler := NewJobHandler(metadata, &mockCandidateService{}, parser)

	server := newTestServerWithJobs(t, handler)
	resp := postJSON(t, server.URL+"/api/jobs/parse", map[string]interface{}{
		"raw_brief": "Looking for a Go engineer to do backend work",
	})
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var brief scoring.JobBrief
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&brief))
	assert.Equal(t, "Go Engineer", brief.JobTitle)
	assert.Equal(t, []string{"Go"}, brief.Criteria.MustHave)
}

func TestParseJob_UpstreamFailure(t *testing.T) {
	metadata := store.NewMemMetadataStore()
	parser := &stubParser{err: scoring.NewError(scoring.KindServer, "model unavailable", true, nil)}
	handler := NewJobHandler(metadata, &mockCandidateService{}, parser)

	server := newTestServerWithJobs(t, handler)
	resp := postJSON(t, server.URL+"/api/jobs/parse", map[string]interface{}{
		"raw_brief": "Looking for a Go engineer",
	})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
