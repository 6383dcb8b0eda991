package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pawzhq/pawz-api/internal/api/shared"
	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/events"
	"github.com/pawzhq/pawz-api/internal/platform/logger"
	"github.com/pawzhq/pawz-api/internal/queue"
	"github.com/pawzhq/pawz-api/internal/store"
)

// CandidateService is the slice of the queue the candidate handlers use.
type CandidateService interface {
	AddCandidate(ctx context.Context, params queue.EnqueueParams) (*domain.Candidate, error)
	RemoveCandidate(ctx context.Context, id uuid.UUID) error
	RemoveJobCandidates(ctx context.Context, jobID uuid.UUID) error
	RetryCandidate(ctx context.Context, id uuid.UUID) error
	PrioritizeCandidate(ctx context.Context, id uuid.UUID) error
	ClearCandidates(ctx context.Context) error
	ListCandidates(ctx context.Context, jobID *uuid.UUID) ([]domain.Candidate, error)
	GetCandidate(ctx context.Context, id uuid.UUID) (*domain.Candidate, error)
}

// CandidateHandler serves the candidate queue endpoints.
type CandidateHandler struct {
	service  CandidateService
	metadata store.MetadataStore
	emitter  events.EventEmitter
	validate *validator.Validate
}

// NewCandidateHandler creates a CandidateHandler.
func NewCandidateHandler(
	service CandidateService,
	metadata store.MetadataStore,
	emitter events.EventEmitter,
) *CandidateHandler {
	return &CandidateHandler{
		service:  service,
		metadata: metadata,
		emitter:  emitter,
		validate: validator.New(),
	}
}

// Enqueue handles POST /api/candidates.
func (h *CandidateHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req EnqueueCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid job_id")
		return
	}

	payloadType, content, err := decodePayload(&req)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	model := req.Model
	if model == "" {
		settings, serr := store.LoadSettings(r.Context(), h.metadata)
		if serr != nil {
			log.Error("failed to load settings", "error", serr)
			shared.RespondWithError(w, r, http.StatusInternalServerError, "failed to load settings")
			return
		}
		model = settings.ModelID
	}

	// Snapshot the active tuning so results remain attributable after the
	// weights change.
	var tuningHash, tuningName string
	if weights, werr := store.LoadWeights(r.Context(), h.metadata); werr == nil && weights != nil {
		tuningHash = weights.Hash
		tuningName = weights.Name
	}

	priority := domain.CandidatePriorityNormal
	if req.Priority == string(domain.CandidatePriorityHigh) {
		priority = domain.CandidatePriorityHigh
	}

	cand, err := h.service.AddCandidate(r.Context(), queue.EnqueueParams{
		JobID:       jobID,
		SourceURL:   req.SourceURL,
		SourceType:  req.SourceType,
		Model:       model,
		TuningHash:  tuningHash,
		TuningName:  tuningName,
		Priority:    priority,
		PayloadType: payloadType,
		Payload:     content,
	})
	if err != nil {
		HandleAPIError(w, r, err, "failed to enqueue candidate")
		return
	}

	h.emitCandidateAdded(r, cand)
	shared.RespondWithJSON(w, r, http.StatusCreated, cand)
}

// List handles GET /api/candidates, optionally filtered by ?job_id=.
func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	var jobFilter *uuid.UUID
	if raw := r.URL.Query().Get("job_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "invalid job_id")
			return
		}
		jobFilter = &id
	}

	candidates, err := h.service.ListCandidates(r.Context(), jobFilter)
	if err != nil {
		HandleAPIError(w, r, err, "failed to list candidates")
		return
	}
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, candidates)
}

// Get handles GET /api/candidates/{id}.
func (h *CandidateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	cand, err := h.service.GetCandidate(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "failed to read candidate")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cand)
}

// Remove handles DELETE /api/candidates/{id}.
func (h *CandidateHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.RemoveCandidate(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "failed to remove candidate")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/candidates.
func (h *CandidateHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCandidates(r.Context()); err != nil {
		HandleAPIError(w, r, err, "failed to clear queue")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Retry handles POST /api/candidates/{id}/retry.
func (h *CandidateHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.RetryCandidate(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "failed to retry candidate")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Prioritize handles POST /api/candidates/{id}/prioritize.
func (h *CandidateHandler) Prioritize(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.PrioritizeCandidate(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "failed to prioritize candidate")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/candidates/stats.
func (h *CandidateHandler) Stats(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.ListCandidates(r.Context(), nil)
	if err != nil {
		HandleAPIError(w, r, err, "failed to read queue")
		return
	}

	stats := QueueStatsResponse{AsOf: timeNow()}
	for i := range candidates {
		switch candidates[i].Status {
		case domain.CandidateStatusPending:
			stats.Pending++
		case domain.CandidateStatusProcessing:
			stats.Processing++
		case domain.CandidateStatusCompleted:
			stats.Completed++
		case domain.CandidateStatusFailed:
			stats.Failed++
		}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

func (h *CandidateHandler) emitCandidateAdded(r *http.Request, cand *domain.Candidate) {
	log := logger.FromContext(r.Context())

	event, err := events.NewEvent(events.TypeCandidateAdded, events.CandidateAddedPayload{
		CandidateID: cand.ID,
		JobID:       cand.JobID,
	})
	if err != nil {
		log.Error("failed to build candidate-added event", "error", err)
		return
	}
	if err := h.emitter.EmitEvent(r.Context(), event); err != nil {
		// The watchdog's recurring pass schedules the candidate regardless.
		log.Warn("failed to emit candidate-added event", "error", err)
	}
}

func decodePayload(req *EnqueueCandidateRequest) (store.PayloadType, []byte, error) {
	switch req.SourceType {
	case "pdf":
		if req.PayloadBase64 == "" {
			return "", nil, errPDFNeedsBase64
		}
		content, err := base64.StdEncoding.DecodeString(req.PayloadBase64)
		if err != nil {
			return "", nil, errBadBase64
		}
		return store.PayloadTypeBinary, content, nil
	default:
		if req.PayloadText == "" {
			return "", nil, errTextNeedsText
		}
		return store.PayloadTypeText, []byte(req.PayloadText), nil
	}
}
