package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/pawzhq/pawz-api/internal/scoring"
	"google.golang.org/genai"
)

// classifyError maps a Gemini API call failure to a classified scoring error.
// Rate-limit and 5xx failures are transient; malformed requests and bad
// credentials will not succeed on retry.
func classifyError(err error) *scoring.Error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, apiErr.Message, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return scoring.NewError(scoring.KindTimeout, "scoring call timed out", true, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return scoring.NewError(scoring.KindNetwork, "network error reaching scoring service", true, err)
	}

	return scoring.NewError(scoring.KindUnknown, err.Error(), false, err)
}

// classifyStatus classifies an HTTP status code from the scoring API.
func classifyStatus(code int, message string, err error) *scoring.Error {
	switch {
	case code == http.StatusTooManyRequests:
		return scoring.NewError(scoring.KindRateLimit, "API quota exceeded", true, err)
	case code >= 500:
		return scoring.NewError(scoring.KindServer, fmt.Sprintf("server error: %s", message), true, err)
	case code == http.StatusBadRequest:
		return scoring.NewError(scoring.KindBadRequest, fmt.Sprintf("invalid request: %s", message), false, err)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return scoring.NewError(scoring.KindAuth, "API key invalid or expired", false, err)
	default:
		return scoring.NewError(scoring.KindUnknown, fmt.Sprintf("error %d: %s", code, message), false, err)
	}
}
