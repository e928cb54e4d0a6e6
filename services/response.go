package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// errorBody builds {error, details?}. Details carry the cause for every failure
// except missing identity and extraction failures, which keep the raw
// completion text server side.
func errorBody(err error, message string) errorResponse {
	resp := errorResponse{Error: message}

	var (
		upstream   *UpstreamError
		validation *ValidationError
		extraction *ExtractionError
	)
	switch {
	case err == nil, errors.Is(err, ErrUnauthorized), errors.As(err, &extraction):
	case errors.As(err, &validation):
		resp.Details = validation.Message
	case errors.As(err, &upstream):
		resp.Details = upstream.Err.Error()
	default:
		resp.Details = err.Error()
	}
	return resp
}

func respondError(w http.ResponseWriter, err error, message string) {
	respondJSON(w, HTTPStatus(err), errorBody(err, message))
}
