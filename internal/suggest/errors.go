package suggest

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a structured error response from the inference
// sidecar. Callers should prefer the predicate functions (IsUnavailable,
// IsUnprocessable, etc.) to inspect errors rather than asserting on this
// type directly.
type APIError struct {
	operation  string
	statusCode int
	message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.operation, e.statusCode, e.message)
}

func newAPIError(operation string, statusCode int, message string) *APIError {
	return &APIError{
		operation:  operation,
		statusCode: statusCode,
		message:    message,
	}
}

// StatusCode returns the HTTP status code from the response.
func (e *APIError) StatusCode() int { return e.statusCode }

// Message returns the human-readable error message.
func (e *APIError) Message() string { return e.message }

// Operation returns a short description of the API call that failed.
func (e *APIError) Operation() string { return e.operation }

// IsUnavailable reports whether err is an API error with HTTP 503 status,
// which the sidecar returns while the model is still loading.
func IsUnavailable(err error) bool { return HasStatusCode(err, http.StatusServiceUnavailable) }

// IsUnprocessable reports whether err is an API error with HTTP 422 status,
// which the sidecar returns for images it cannot decode.
func IsUnprocessable(err error) bool { return HasStatusCode(err, http.StatusUnprocessableEntity) }

// IsNotFound reports whether err is an API error with HTTP 404 status.
func IsNotFound(err error) bool { return HasStatusCode(err, http.StatusNotFound) }

// HasStatusCode reports whether err is an API error whose HTTP status code matches.
func HasStatusCode(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.statusCode == code
}
