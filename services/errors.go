package services

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind is the stable machine-readable error classification exposed to
// API clients.
type ErrorKind string

const (
	ErrValidation             ErrorKind = "validation"
	ErrConflict               ErrorKind = "conflict"
	ErrInvalidStateTransition ErrorKind = "invalid_state_transition"
	ErrNotFound               ErrorKind = "not_found"
	ErrUnauthorized           ErrorKind = "unauthorized"
	ErrExternalRetryable      ErrorKind = "external_service_retryable"
	ErrExternalFatal          ErrorKind = "external_service_fatal"
	ErrInternal               ErrorKind = "internal"
)

// AppError carries a kind and a human message. Wrapped causes stay internal
// and are never serialized to clients.
type AppError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`

	// Conflict details, set for exclusion clashes.
	ConflictingSubmissionID string     `json:"conflicting_submission_id,omitempty"`
	ConflictExpiresAt       *time.Time `json:"conflict_expires_at,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// NewValidationError reports an invalid or missing input field.
func NewValidationError(format string, args ...interface{}) *AppError {
	return &AppError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError reports a duplicate resource or exclusion clash.
func NewConflictError(message string) *AppError {
	return &AppError{Kind: ErrConflict, Message: message}
}

// NewExclusionConflictError reports an area claim blocked by another
// submission.
func NewExclusionConflictError(blockingID string, expiresAt time.Time) *AppError {
	return &AppError{
		Kind:                    ErrConflict,
		Message:                 fmt.Sprintf("area already claimed by submission %s", blockingID),
		ConflictingSubmissionID: blockingID,
		ConflictExpiresAt:       &expiresAt,
	}
}

// NewInvalidTransitionError reports an illegal status change attempt.
func NewInvalidTransitionError(from, to string) *AppError {
	return &AppError{
		Kind:    ErrInvalidStateTransition,
		Message: fmt.Sprintf("cannot transition submission from %s to %s", from, to),
	}
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: ErrNotFound, Message: resource + " not found"}
}

// NewUnauthorizedError reports an actor/ownership mismatch.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: ErrUnauthorized, Message: message}
}

// NewRetryableExternalError wraps a transient external failure the caller
// may retry.
func NewRetryableExternalError(service string, err error) *AppError {
	return &AppError{
		Kind:    ErrExternalRetryable,
		Message: service + " temporarily unavailable, retry later",
		Err:     err,
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *AppError {
	return &AppError{Kind: ErrInternal, Message: "internal server error", Err: err}
}

// KindOf extracts the kind from any error chain, defaulting to internal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrInternal
}

// AsAppError normalizes any error into an AppError for the HTTP surface.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}

// HTTPStatus maps an error kind to a response code.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrConflict:
		return http.StatusConflict
	case ErrInvalidStateTransition:
		return http.StatusConflict
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusForbidden
	case ErrExternalRetryable:
		return http.StatusServiceUnavailable
	case ErrExternalFatal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
