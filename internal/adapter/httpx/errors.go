// Package httpx provides the shared HTTP plumbing for the GitHub and model
// clients: typed errors, retry with backoff, and exchange logging.
package httpx

import "fmt"

// ErrorType represents the category of error that occurred.
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeRateLimit
	ErrTypeNotFound
	ErrTypeValidation
	ErrTypeInvalidRequest
	ErrTypeServiceUnavailable
	ErrTypeTimeout
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeNotFound:
		return "not found"
	case ErrTypeValidation:
		return "validation rejected"
	case ErrTypeInvalidRequest:
		return "invalid request"
	case ErrTypeServiceUnavailable:
		return "service unavailable"
	case ErrTypeTimeout:
		return "timeout"
	default:
		return "unknown error"
	}
}

// Error is an HTTP client error with enough context to decide on a retry.
// Service names the remote side ("github", "openai", ...).
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	Service    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Service, e.Type.String(), e.Message, e.StatusCode)
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable returns true if the error is retryable.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// MapStatusError converts an HTTP response status into a typed error.
// 429 and 5xx are retryable; auth failures, missing resources, and payload
// validation failures (422, the status the review API answers with when a
// comment position does not exist in the diff) are not.
func MapStatusError(service string, statusCode int, message string) *Error {
	e := &Error{
		Message:    message,
		StatusCode: statusCode,
		Service:    service,
	}
	switch {
	case statusCode == 401 || statusCode == 403:
		e.Type = ErrTypeAuthentication
	case statusCode == 404:
		e.Type = ErrTypeNotFound
	case statusCode == 422:
		e.Type = ErrTypeValidation
	case statusCode == 429:
		e.Type = ErrTypeRateLimit
		e.Retryable = true
	case statusCode >= 500:
		e.Type = ErrTypeServiceUnavailable
		e.Retryable = true
	case statusCode >= 400:
		e.Type = ErrTypeInvalidRequest
	default:
		e.Type = ErrTypeUnknown
	}
	return e
}

// NewTimeoutError creates a timeout error. Timeouts are retryable.
func NewTimeoutError(service, message string) *Error {
	return &Error{
		Type:      ErrTypeTimeout,
		Message:   message,
		Retryable: true,
		Service:   service,
	}
}
