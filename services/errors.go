package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is returned when a request carries no verifiable identity
var ErrUnauthorized = errors.New("unauthorized")

// UpstreamError wraps a failed call to the completion service
type UpstreamError struct {
	UseCase UseCase
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: completion failed: %v", e.UseCase, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ExtractionError means the completion text could not be turned into the
// expected structure. Raw is kept for logs and never sent to the caller.
type ExtractionError struct {
	UseCase UseCase
	Raw     string
	Cause   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: failed to extract response: %v", e.UseCase, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// ValidationError indicates a malformed or incomplete request body
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		upstream   *UpstreamError
		extraction *ExtractionError
		validation *ValidationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &upstream), errors.As(err, &extraction):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
