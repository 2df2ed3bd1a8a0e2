package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")

	// Authentication taxonomy. ErrProviderAuth and ErrMissingClaim are the
	// only auth errors ever shown to a user (both land on the login page);
	// the session errors make the caller anonymous.
	ErrProviderAuth   = errors.New("provider authentication failed")
	ErrMissingClaim   = errors.New("missing required claim")
	ErrSessionExpired = errors.New("session expired")
	ErrSessionInvalid = errors.New("session invalid")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// ProviderAuthFailed returns an AppError for a provider that declined the
// login or returned no usable principal (timeouts included).
func ProviderAuthFailed(message string) *AppError {
	return &AppError{
		Err:     ErrProviderAuth,
		Message: message,
	}
}

// MissingClaim returns an AppError for a provider response lacking a claim
// that reconciliation requires (email or subject ID).
func MissingClaim(claim string) *AppError {
	return &AppError{
		Err:     ErrMissingClaim,
		Message: fmt.Sprintf("provider response is missing the %s claim", claim),
		Field:   claim,
	}
}

// SessionExpired returns an AppError for a session token past its absolute
// expiry. Distinct from SessionInvalid so callers can tell "log in again"
// apart from "this token was never yours".
func SessionExpired() *AppError {
	return &AppError{
		Err:     ErrSessionExpired,
		Message: "session has expired",
	}
}

// SessionInvalid returns an AppError for a malformed, tampered, or
// terminated session token.
func SessionInvalid(message string) *AppError {
	return &AppError{
		Err:     ErrSessionInvalid,
		Message: message,
	}
}
