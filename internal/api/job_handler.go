package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pawzhq/pawz-api/internal/api/shared"
	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/platform/logger"
	"github.com/pawzhq/pawz-api/internal/scoring"
	"github.com/pawzhq/pawz-api/internal/store"
)

// JobHandler serves job management endpoints. Job-collection writes are
// read-modify-write against the metadata store, so they are serialized by a
// handler-level mutex.
type JobHandler struct {
	metadata store.MetadataStore
	service  CandidateService
	parser   scoring.JobParser
	validate *validator.Validate

	mu sync.Mutex
}

// NewJobHandler creates a JobHandler. The parser may be nil when job brief
// parsing is not configured; the parse endpoint then returns 503.
func NewJobHandler(
	metadata store.MetadataStore,
	service CandidateService,
	parser scoring.JobParser,
) *JobHandler {
	return &JobHandler{
		metadata: metadata,
		service:  service,
		parser:   parser,
		validate: validator.New(),
	}
}

// Create handles POST /api/jobs.
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	job, err := domain.NewJob(req.Title, req.RawBrief, req.Criteria)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.mu.Lock()
	jobs, err := store.LoadJobs(r.Context(), h.metadata)
	if err == nil {
		jobs = append(jobs, *job)
		err = store.SaveJobs(r.Context(), h.metadata, jobs)
	}
	h.mu.Unlock()
	if err != nil {
		HandleAPIError(w, r, err, "failed to create job")
		return
	}

	logger.FromContext(r.Context()).Info("job created", "job_id", job.ID, "title", job.Title)
	shared.RespondWithJSON(w, r, http.StatusCreated, job)
}

// List handles GET /api/jobs.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := store.LoadJobs(r.Context(), h.metadata)
	if err != nil {
		HandleAPIError(w, r, err, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, jobs)
}

// Get handles GET /api/jobs/{id}.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	jobs, err := store.LoadJobs(r.Context(), h.metadata)
	if err != nil {
		HandleAPIError(w, r, err, "failed to read job")
		return
	}
	for i := range jobs {
		if jobs[i].ID == id {
			shared.RespondWithJSON(w, r, http.StatusOK, jobs[i])
			return
		}
	}
	HandleAPIError(w, r, store.ErrJobNotFound, "")
}

// Update handles PUT /api/jobs/{id}. Activation state and creation time are
// not editable here.
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.mu.Lock()
	jobs, err := store.LoadJobs(r.Context(), h.metadata)
	var updated *domain.Job
	if err == nil {
		for i := range jobs {
			if jobs[i].ID != id {
				continue
			}
			jobs[i].Title = req.Title
			jobs[i].RawBrief = req.RawBrief
			jobs[i].Criteria = req.Criteria
			updated = &jobs[i]
			break
		}
		if updated != nil {
			err = store.SaveJobs(r.Context(), h.metadata, jobs)
		}
	}
	h.mu.Unlock()
	if err != nil {
		HandleAPIError(w, r, err, "failed to update job")
		return
	}
	if updated == nil {
		HandleAPIError(w, r, store.ErrJobNotFound, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, updated)
}

// Delete handles DELETE /api/jobs/{id}. Deleting a job cascades to its
// candidates and their payloads.
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	h.mu.Lock()
	jobs, err := store.LoadJobs(r.Context(), h.metadata)
	found := false
	if err == nil {
		kept := jobs[:0]
		for i := range jobs {
			if jobs[i].ID == id {
				found = true
				continue
			}
			kept = append(kept, jobs[i])
		}
		if found {
			err = store.SaveJobs(r.Context(), h.metadata, kept)
		}
	}
	h.mu.Unlock()
	if err != nil {
		HandleAPIError(w, r, err, "failed to delete job")
		return
	}
	if !found {
		HandleAPIError(w, r, store.ErrJobNotFound, "")
		return
	}

	if err := h.service.RemoveJobCandidates(r.Context(), id); err != nil {
		logger.FromContext(r.Context()).Error("failed to cascade job deletion", "job_id", id, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Activate handles POST /api/jobs/{id}/activate. At most one job is active;
// activating one deactivates the rest.
func (h *JobHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	h.mu.Lock()
	jobs, err := store.LoadJobs(r.Context(), h.metadata)
	var activated *domain.Job
	if err == nil {
		for i := range jobs {
			jobs[i].Active = jobs[i].ID == id
			if jobs[i].Active {
				activated = &jobs[i]
			}
		}
		if activated != nil {
			err = store.SaveJobs(r.Context(), h.metadata, jobs)
		}
	}
	h.mu.Unlock()
	if err != nil {
		HandleAPIError(w, r, err, "failed to activate job")
		return
	}
	if activated == nil {
		HandleAPIError(w, r, store.ErrJobNotFound, "")
		return
	}

	logger.FromContext(r.Context()).Info("job activated", "job_id", id)
	shared.RespondWithJSON(w, r, http.StatusOK, activated)
}

// Parse handles POST /api/jobs/parse: structure a raw job description into
// title, summary and criteria without creating a job.
func (h *JobHandler) Parse(w http.ResponseWriter, r *http.Request) {
	if h.parser == nil {
		shared.RespondWithError(w, r, http.StatusServiceUnavailable, "job parsing is not configured")
		return
	}

	var req ParseJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	brief, err := h.parser.ParseJobBrief(r.Context(), req.RawBrief)
	if err != nil {
		logger.FromContext(r.Context()).Error("job brief parsing failed", "error", err)
		shared.RespondWithError(w, r, http.StatusBadGateway, scoring.Message(err))
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, brief)
}
