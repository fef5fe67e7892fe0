// Package errors defines structured error types for the Rampart risk
// mitigation service. Every rejection surfaced to a caller maps to a stable
// error code and an HTTP status; raw input text never travels inside an error.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ================================================================================
// Error Codes
// ================================================================================

const (
	// CodeAuthenticationFailed covers bad credentials, unknown sessions and
	// expired sessions. Rejected, not retryable.
	CodeAuthenticationFailed = "authentication_failed"

	// CodeQuotaExceeded indicates the tenant is over a usage window limit.
	// Retryable by the caller after window rollover.
	CodeQuotaExceeded = "quota_exceeded"

	// CodeDecryptionFailed indicates tamper or a malformed sealed payload.
	// Fatal to the request; the session remains usable.
	CodeDecryptionFailed = "decryption_failed"

	// CodeConfigurationError indicates malformed configuration or tenant
	// settings. Rejected at load time, never coerced.
	CodeConfigurationError = "configuration_error"

	// CodeDetectorFailed marks a single detector failure inside a verdict.
	// It never aborts a request on its own.
	CodeDetectorFailed = "detector_failed"

	// CodeInvalidRequest indicates a malformed or incomplete request.
	CodeInvalidRequest = "invalid_request"

	// CodeNotFound indicates an unknown tenant or resource.
	CodeNotFound = "not_found"

	// CodeConflict indicates a uniqueness violation (duplicate tenant name or key).
	CodeConflict = "conflict"

	// CodeInternal indicates an invariant violation inside the service.
	CodeInternal = "internal_error"

	// CodeUnavailable indicates a dependency (redis, postgres, kafka) is down.
	CodeUnavailable = "service_unavailable"
)

// ================================================================================
// AppError
// ================================================================================

// AppError represents a structured application error.
type AppError struct {
	Code        string
	Message     string
	Description string
	HTTPStatus  int
	Details     map[string]string
	Err         error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches errors by code so sentinel comparisons survive WithError copies.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if stderrors.As(target, &appErr) {
		return e.Code == appErr.Code
	}
	return false
}

// WithError returns a copy of the error carrying a cause.
func (e *AppError) WithError(err error) *AppError {
	clone := e.clone()
	clone.Err = err
	return clone
}

// WithDetail returns a copy of the error with an added detail entry.
func (e *AppError) WithDetail(key, value string) *AppError {
	clone := e.clone()
	if clone.Details == nil {
		clone.Details = make(map[string]string, 1)
	}
	clone.Details[key] = value
	return clone
}

// WithDescription returns a copy of the error with a formatted description.
func (e *AppError) WithDescription(format string, args ...interface{}) *AppError {
	clone := e.clone()
	clone.Description = fmt.Sprintf(format, args...)
	return clone
}

func (e *AppError) clone() *AppError {
	details := make(map[string]string, len(e.Details))
	for k, v := range e.Details {
		details[k] = v
	}
	if len(details) == 0 {
		details = nil
	}
	return &AppError{
		Code:        e.Code,
		Message:     e.Message,
		Description: e.Description,
		HTTPStatus:  e.HTTPStatus,
		Details:     details,
		Err:         e.Err,
	}
}

// New creates a structured application error.
func New(code string, httpStatus int, message, description string) *AppError {
	return &AppError{
		Code:        code,
		Message:     message,
		Description: description,
		HTTPStatus:  httpStatus,
	}
}

// ================================================================================
// Sentinel Errors
// ================================================================================

var (
	// ErrAuthenticationFailed rejects bad credentials or unusable sessions.
	ErrAuthenticationFailed = New(CodeAuthenticationFailed, http.StatusUnauthorized,
		"authentication failed", "The credentials or session presented are invalid or expired")

	// ErrQuotaExceeded rejects tenants over a usage window limit.
	ErrQuotaExceeded = New(CodeQuotaExceeded, http.StatusTooManyRequests,
		"quota exceeded", "The tenant has exhausted its request quota for the current window")

	// ErrDecryptionFailed rejects tampered or malformed sealed payloads.
	ErrDecryptionFailed = New(CodeDecryptionFailed, http.StatusBadRequest,
		"decryption failed", "The sealed payload could not be authenticated or decoded")

	// ErrConfiguration rejects malformed configuration at load time.
	ErrConfiguration = New(CodeConfigurationError, http.StatusInternalServerError,
		"configuration error", "The service or tenant configuration is invalid")

	// ErrInvalidRequest rejects malformed requests.
	ErrInvalidRequest = New(CodeInvalidRequest, http.StatusBadRequest,
		"invalid request", "The request is malformed or missing required fields")

	// ErrNotFound rejects lookups of unknown resources.
	ErrNotFound = New(CodeNotFound, http.StatusNotFound,
		"not found", "The requested resource was not found")

	// ErrConflict rejects duplicate resource creation.
	ErrConflict = New(CodeConflict, http.StatusConflict,
		"conflict", "The resource already exists")

	// ErrInternal flags invariant violations.
	ErrInternal = New(CodeInternal, http.StatusInternalServerError,
		"internal error", "An internal error occurred")

	// ErrUnavailable flags unreachable dependencies.
	ErrUnavailable = New(CodeUnavailable, http.StatusServiceUnavailable,
		"service unavailable", "A required dependency is unavailable")

	// ErrCache flags cache layer failures. Callers treat it as non-fatal where
	// a fallback read path exists.
	ErrCache = New(CodeUnavailable, http.StatusServiceUnavailable,
		"cache failure", "The cache layer returned an error")
)

// ================================================================================
// Helpers
// ================================================================================

// AsAppError extracts an AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the error code of err, or CodeInternal for foreign errors.
func CodeOf(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// HTTPStatusOf returns the HTTP status for err, or 500 for foreign errors.
func HTTPStatusOf(err error) int {
	if appErr, ok := AsAppError(err); ok && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
