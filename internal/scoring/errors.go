package scoring

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a scoring failure.
type Kind string

// Failure kinds. Rate-limit, server-side, network, timeout and parse
// failures are transient; auth, malformed-request, empty-response and
// missing-input failures will not succeed on retry.
const (
	KindAuth          Kind = "auth_error"
	KindRateLimit     Kind = "rate_limit"
	KindServer        Kind = "server_error"
	KindBadRequest    Kind = "bad_request"
	KindEmptyResponse Kind = "empty_response"
	KindParse         Kind = "parse_error"
	KindNetwork       Kind = "network_error"
	KindTimeout       Kind = "timeout"
	KindNotFound      Kind = "not_found"
	KindUnknown       Kind = "unknown"
)

// Error is a classified scoring failure. Retryable mirrors the decision the
// retry policy needs: whether another attempt could plausibly succeed.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified scoring error.
func NewError(kind Kind, message string, retryable bool, err error) *Error {
	return &Error{Kind: kind, Message: message, Retryable: retryable, Err: err}
}

// Retryable reports whether the error is a scoring error marked retryable.
// Unclassified errors are not retryable.
func Retryable(err error) bool {
	var scoreErr *Error
	if errors.As(err, &scoreErr) {
		return scoreErr.Retryable
	}
	return false
}

// Message returns the human-readable message for a scoring error, or the
// plain error text for unclassified errors.
func Message(err error) string {
	var scoreErr *Error
	if errors.As(err, &scoreErr) {
		return scoreErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return "unknown error"
}
