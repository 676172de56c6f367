package ownerapi

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingToken is returned before any I/O when the caller has no owner token.
	ErrMissingToken = errors.New("owner session token required")
	// ErrTransport wraps network failures: unreachable host, timeout, reset.
	ErrTransport = errors.New("owner api unreachable")
	// ErrMalformedResponse means a 2xx response whose body could not be used.
	ErrMalformedResponse = errors.New("malformed owner api response")
	ErrEmptyQuery        = errors.New("empty product query")
)

// APIError is a non-2xx response from the owner API.
type APIError struct {
	StatusCode  int    `json:"-"`
	ErrorText   string `json:"error"`
	MessageText string `json:"message"`
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("owner api: status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("owner api: status %d", e.StatusCode)
}

// Message prefers the body's "error" field over "message".
func (e *APIError) Message() string {
	if e.ErrorText != "" {
		return e.ErrorText
	}
	return e.MessageText
}

// MessageFrom extracts the server-provided text from err, or "" when there is none.
func MessageFrom(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return ""
}
