package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned when the server rejects the session token.
	// The client has already expired the session when this is returned.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBadRequest is returned for 400 responses.
	ErrBadRequest = errors.New("bad request")

	// ErrForbidden is returned for 403 responses.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned for 409 responses.
	ErrConflict = errors.New("conflict")

	// ErrValidation is returned when the server rejects a payload (422).
	ErrValidation = errors.New("validation failed")

	// ErrServer is returned for 5xx responses.
	ErrServer = errors.New("server error")

	// ErrUnexpectedStatus is returned for any other non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// APIError represents a non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Detail is the server's "detail" message when it sent one.
	Detail string
	// Body is the raw response body.
	Body []byte
	Err  error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the sentinel matching the status code.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Message returns the most useful text to show a user.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return http.StatusText(e.StatusCode)
}

func sentinelFor(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return ErrBadRequest
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusUnprocessableEntity:
		return ErrValidation
	case status >= 500:
		return ErrServer
	default:
		return ErrUnexpectedStatus
	}
}

// StatusCode extracts the HTTP status from an error chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
