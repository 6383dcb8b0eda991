package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pawzhq/pawz-api/internal/api/shared"
	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/queue"
	"github.com/pawzhq/pawz-api/internal/store"
)

// HandleAPIError translates errors from the queue and store layers into HTTP
// responses. Unrecognized errors become opaque 500s; the detailed error is
// logged by RespondWithError, never sent to the client.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		shared.RespondWithError(w, r, http.StatusBadRequest, validationMessage(validationErrs))
	case store.IsNotFoundError(err):
		shared.RespondWithError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, queue.ErrNotRetryable),
		errors.Is(err, queue.ErrNotPending):
		shared.RespondWithError(w, r, http.StatusConflict, err.Error())
	case isDomainValidationError(err):
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
	default:
		if fallback == "" {
			fallback = "internal server error"
		}
		shared.RespondWithError(w, r, http.StatusInternalServerError, fallback)
	}
}

func isDomainValidationError(err error) bool {
	for _, target := range []error{
		domain.ErrEmptyCandidateID,
		domain.ErrEmptyCandidateJobID,
		domain.ErrInvalidCandidateStatus,
		domain.ErrInvalidCandidatePriority,
		domain.ErrNegativeRetryCount,
		domain.ErrEmptyJobID,
		domain.ErrEmptyJobTitle,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func validationMessage(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "invalid request"
	}
	first := errs[0]
	return "invalid field " + first.Field() + ": failed on " + first.Tag()
}
