// Package aps provides an HTTP client for the Autodesk Platform Services
// authentication and Data Management APIs with error classification.
// Requests are single-shot: retry policy belongs to the caller, and every
// retry in this system is user-initiated.
package aps

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, aps.ErrUnauthorized) to check.
var (
	ErrBadRequest   = errors.New("aps: bad request")
	ErrUnauthorized = errors.New("aps: unauthorized")
	ErrForbidden    = errors.New("aps: forbidden")
	ErrNotFound     = errors.New("aps: not found")
	ErrThrottled    = errors.New("aps: throttled")
	ErrServerError  = errors.New("aps: server error")
)

// APIError wraps a sentinel error with the HTTP status code, request ID,
// and the API error message body for debugging.
type APIError struct {
	StatusCode int
	RequestID  string
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("aps: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}

	return fmt.Sprintf("aps: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}
