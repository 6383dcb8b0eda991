package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pawzhq/pawz-api/internal/api/shared"
)

// Payload decoding errors surfaced as 400s.
var (
	errPDFNeedsBase64 = errors.New("pdf sources require payload_base64")
	errTextNeedsText  = errors.New("text sources require payload_text")
	errBadBase64      = errors.New("payload_base64 is not valid base64")
)

// timeNow is indirected for tests.
var timeNow = func() time.Time { return time.Now().UTC() }

// pathUUID extracts and parses a UUID path parameter, writing a 400 response
// on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, paramName+" is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, paramName+" has invalid format")
		return uuid.Nil, false
	}
	return id, true
}
