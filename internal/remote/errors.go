package remote

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned when an action is dispatched without an active link.
var ErrNotConnected = errors.New("remote: not connected")

// TransportError reports a request that never produced a response.
type TransportError struct {
	Endpoint string
	Err      error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("remote %s: transport: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError reports a reachable agent that answered with a non-success status.
type StatusError struct {
	Endpoint string
	Code     int
	Message  string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote %s: HTTP %d: %s", e.Endpoint, e.Code, e.Message)
	}
	return fmt.Sprintf("remote %s: HTTP %d", e.Endpoint, e.Code)
}

// IsTransport reports whether err means the agent could not be reached.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsStatus reports whether err is an application-level rejection.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
