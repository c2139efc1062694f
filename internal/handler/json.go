package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/devrayanco/task-manager-api/internal/domain"
)

// maxBodyBytes caps every request body the API reads.
const maxBodyBytes = 1 << 20

// Error codes returned in the "code" field of error bodies.
const (
	codeInvalidInput = "invalid_input"
	codeEmailTaken   = "email_taken"
	codeUnauthorized = "unauthorized"
	codeNotFound     = "not_found"
	codeRateLimited  = "rate_limited"
	codeInternal     = "internal"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Message: message, Code: code})
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeError(w, http.StatusUnauthorized, codeUnauthorized, "Authentication required.")
}

// writeServiceError classifies an error returned by the service layer. Only
// domain.ErrNotFound becomes 404; anything unrecognized is logged and
// reported as 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, codeEmailTaken, "An account with that email already exists.")
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeUnauthorized(w)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Not found.")
	default:
		slog.Error(op, "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, codeInternal, "An unexpected error occurred. Please try again.")
	}
}

// readJSON decodes the request body into the given destination.
func readJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}

// readRawString reads a body that carries a single string value. A body
// starting with a quote must be a complete JSON string literal ("done");
// anything else is taken as plain text.
func readRawString(r *http.Request) (string, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(b))
	if !strings.HasPrefix(text, `"`) {
		return text, nil
	}
	var s string
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return "", fmt.Errorf("malformed JSON string: %w", err)
	}
	return s, nil
}
