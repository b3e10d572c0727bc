package plex

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for 404 responses. It does not count against
	// the circuit breaker.
	ErrNotFound = errors.New("plex: not found")

	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("plex: unauthorized")

	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("plex: server unavailable")
)

// StatusError reports an unexpected HTTP status from Plex.
type StatusError struct {
	Method   string
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("plex %s %s: unexpected status %d", e.Method, e.Endpoint, e.Code)
}
