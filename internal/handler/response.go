package handler

// Response helpers shared by all handlers: one JSON writer, one place where
// domain errors become HTTP status codes. The service layer never sees HTTP;
// this is the translation boundary.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tahsin/medistock/internal/apperror"
)

// ErrorResponse is the standard error shape returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable error type, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response with the given status code. Headers must
// be set before the first body write, hence the fixed order here.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone at this point; logging is all we can do.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error chain to an HTTP status and sends it.
// Unknown errors become an opaque 500 — internal details never reach the
// client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrProviderAuth):
			status = http.StatusUnauthorized
			errorType = "provider_auth_failed"
		case errors.Is(err, apperror.ErrMissingClaim):
			status = http.StatusUnauthorized
			errorType = "missing_claim"
		case errors.Is(err, apperror.ErrSessionExpired), errors.Is(err, apperror.ErrSessionInvalid):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
