package errors

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeNetwork         ErrorType = "network"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeQuota           ErrorType = "quota"
	ErrorTypePayloadTooLarge ErrorType = "payload_too_large"
	ErrorTypeServer          ErrorType = "server"
	ErrorTypeJobFailed       ErrorType = "job_failed"
	ErrorTypeLostConnection  ErrorType = "lost_connection"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeInternal        ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Cause:      cause,
	}
}

// NewQuotaError creates a new quota/rate-limit error
func NewQuotaError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeQuota,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
		Cause:      cause,
	}
}

// NewPayloadTooLargeError creates a new payload-too-large error
func NewPayloadTooLargeError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypePayloadTooLarge,
		Message:    message,
		StatusCode: http.StatusRequestEntityTooLarge,
		Cause:      cause,
	}
}

// NewServerError creates a new remote-server error
func NewServerError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeServer,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewJobFailedError creates a new job-failed error
func NewJobFailedError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeJobFailed,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewLostConnectionError creates a new lost-connection error
func NewLostConnectionError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeLostConnection,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// FromHTTPStatus maps a remote API status code to the matching error kind.
// Auth, quota and payload problems all arrive as standard status codes, so
// classification happens in one place.
func FromHTTPStatus(statusCode int, body string) *AppError {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return NewUnauthorizedError(
			"API key was rejected; run the login command to store a valid key",
			fmt.Errorf("status %d: %s", statusCode, body))
	case statusCode == http.StatusTooManyRequests:
		return NewQuotaError(
			"rate limit or quota exceeded; wait a moment or check your plan limits",
			fmt.Errorf("status %d: %s", statusCode, body))
	case statusCode == http.StatusRequestEntityTooLarge:
		return NewPayloadTooLargeError(
			"the service rejected the upload as too large",
			fmt.Errorf("status %d: %s", statusCode, body))
	case statusCode >= 500:
		return NewServerError(
			"the analysis service reported an internal problem; try again later",
			fmt.Errorf("status %d: %s", statusCode, body))
	default:
		return NewNetworkError(
			fmt.Sprintf("unexpected response from the analysis service (status %d)", statusCode),
			fmt.Errorf("status %d: %s", statusCode, body))
	}
}

// IsConnectivityError reports whether err looks like a transport-level
// failure (connection refused, unresolvable host, timed out) rather than a
// response the server actually produced.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
