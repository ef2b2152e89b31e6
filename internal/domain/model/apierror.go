package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a failure talking to the GitHub API. It is assigned
// exactly once, in the github adapter; layers above reason about kinds and
// never re-parse status codes.
type ErrorKind string

const (
	KindInvalidInput      ErrorKind = "invalid_input"
	KindInvalidCredential ErrorKind = "invalid_credential"
	KindRateLimited       ErrorKind = "rate_limited"
	KindNotFound          ErrorKind = "not_found"
	KindUpstreamError     ErrorKind = "upstream_error"
	KindTransportError    ErrorKind = "transport_error"
)

// APIError is a classified failure from the GitHub adapter.
type APIError struct {
	Kind       ErrorKind
	StatusCode int       // Upstream HTTP status; zero when no response was received.
	Message    string    // Human-readable detail, includes the upstream body for upstream errors.
	Reset      time.Time // Rate-limit reset time; set only for KindRateLimited.
	Err        error     // Underlying error, if any.
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf extracts the ErrorKind from an error chain. Unclassified errors
// report KindTransportError, the most conservative interpretation for an
// error that never produced a response.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindTransportError
}
