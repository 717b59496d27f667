package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for gateway operations.
var (
	// ErrMissingBaseURL indicates Config.BaseURL is empty.
	ErrMissingBaseURL = errors.New("gateway: base URL is required")

	// ErrMissingPath indicates a request descriptor with no path.
	ErrMissingPath = errors.New("gateway: request path is required")

	// ErrNetwork indicates no response was received at all. Idempotent
	// reads failing with this error are retried once.
	ErrNetwork = errors.New("gateway: network failure")

	// ErrCooldown indicates the call was suppressed because a recent
	// attempt against the same cache key failed with a server error.
	ErrCooldown = errors.New("gateway: endpoint cooling down after recent failure")
)

// HTTPError is the normalized form of a non-2xx response.
type HTTPError struct {
	// Status is the HTTP status code received.
	Status int

	// Message is the user-facing category message from the fixed
	// status mapping.
	Message string

	// ServerMessage is the message the server body carried, if any.
	ServerMessage string

	// AuthRequired is set for 401 responses.
	AuthRequired bool

	// AccessDenied is set for 403 responses.
	AccessDenied bool

	// RequestDetails identifies the failed request (method and path).
	RequestDetails string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("gateway: %s (status %d, %s)", e.Message, e.Status, e.RequestDetails)
}

// newHTTPError normalizes a status code into an HTTPError using the fixed
// status mapping.
func newHTTPError(status int, serverMessage, requestDetails string) *HTTPError {
	e := &HTTPError{
		Status:         status,
		ServerMessage:  serverMessage,
		RequestDetails: requestDetails,
	}

	switch {
	case status == http.StatusUnauthorized:
		e.Message = "authentication required"
		e.AuthRequired = true
	case status == http.StatusForbidden:
		e.Message = "access denied"
		e.AccessDenied = true
	case status == http.StatusNotFound:
		e.Message = "resource not found"
	case status >= 500:
		e.Message = "server error"
	default:
		e.Message = "request failed"
	}

	return e
}

// serverMessage extracts a human-readable message from an error response
// body, if the server sent one.
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// IsNetworkError reports whether err is a pure network failure
// (no response received).
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsAuthRequired reports whether err is a normalized 401.
func IsAuthRequired(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.AuthRequired
}

// IsAccessDenied reports whether err is a normalized 403.
func IsAccessDenied(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.AccessDenied
}
