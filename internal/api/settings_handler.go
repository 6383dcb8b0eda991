package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pawzhq/pawz-api/internal/api/shared"
	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/platform/logger"
	"github.com/pawzhq/pawz-api/internal/store"
)

// SettingsHandler serves service settings and scoring-weight endpoints.
type SettingsHandler struct {
	metadata store.MetadataStore
	validate *validator.Validate

	mu sync.Mutex
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(metadata store.MetadataStore) *SettingsHandler {
	return &SettingsHandler{
		metadata: metadata,
		validate: validator.New(),
	}
}

// GetSettings handles GET /api/settings. The stored API key is never echoed.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := store.LoadSettings(r.Context(), h.metadata)
	if err != nil {
		HandleAPIError(w, r, err, "failed to read settings")
		return
	}

	resp := SettingsResponse{
		ModelID:   settings.ModelID,
		APIKeySet: settings.APIKey != "",
	}
	if weights, werr := store.LoadWeights(r.Context(), h.metadata); werr == nil && weights != nil {
		resp.ActiveTuning = weights.Name
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// UpdateSettings handles PUT /api/settings. An empty api_key in the request
// keeps the stored one.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.mu.Lock()
	settings, err := store.LoadSettings(r.Context(), h.metadata)
	if err == nil {
		settings.ModelID = req.ModelID
		if req.APIKey != "" {
			settings.APIKey = req.APIKey
		}
		err = store.SaveSettings(r.Context(), h.metadata, settings)
	}
	h.mu.Unlock()
	if err != nil {
		HandleAPIError(w, r, err, "failed to update settings")
		return
	}

	logger.FromContext(r.Context()).Info("settings updated", "model_id", req.ModelID)
	shared.RespondWithJSON(w, r, http.StatusOK, SettingsResponse{
		ModelID:   settings.ModelID,
		APIKeySet: settings.APIKey != "",
	})
}

// GetWeights handles GET /api/weights.
func (h *SettingsHandler) GetWeights(w http.ResponseWriter, r *http.Request) {
	weights, err := store.LoadWeights(r.Context(), h.metadata)
	if err != nil {
		HandleAPIError(w, r, err, "failed to read weights")
		return
	}
	if weights == nil {
		HandleAPIError(w, r, store.ErrNotFound, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, weights)
}

// UpdateWeights handles PUT /api/weights. The tuning hash is derived from the
// values server-side so candidates enqueued under different tunings are
// distinguishable.
func (h *SettingsHandler) UpdateWeights(w http.ResponseWriter, r *http.Request) {
	var req UpdateWeightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	weights := &domain.Weights{
		Name:   req.Name,
		Hash:   weightsHash(req.Values),
		Values: req.Values,
	}
	if err := store.SaveWeights(r.Context(), h.metadata, weights); err != nil {
		HandleAPIError(w, r, err, "failed to update weights")
		return
	}

	logger.FromContext(r.Context()).Info("scoring weights updated",
		"tuning_name", weights.Name,
		"tuning_hash", weights.Hash)
	shared.RespondWithJSON(w, r, http.StatusOK, weights)
}

// weightsHash computes a stable short hash over the weight values, keyed in
// sorted order so map iteration cannot change it.
func weightsHash(values map[string]float64) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	hasher := sha256.New()
	for _, k := range keys {
		hasher.Write([]byte(k))
		hasher.Write([]byte("="))
		hasher.Write([]byte(strconv.FormatFloat(values[k], 'g', -1, 64)))
		hasher.Write([]byte(";"))
	}
	return hex.EncodeToString(hasher.Sum(nil))[:12]
}
