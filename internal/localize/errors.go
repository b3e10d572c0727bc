package localize

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch matches any FetchError.
	ErrFetch = errors.New("fetch failed")

	// ErrUpdate matches any UpdateError.
	ErrUpdate = errors.New("update failed")

	// ErrServerUnavailable indicates a configured server could not be
	// resolved or did not answer. The server is skipped for the run.
	ErrServerUnavailable = errors.New("server unavailable")

	// ErrLibraryNotFound indicates a selected library does not exist on its server.
	ErrLibraryNotFound = errors.New("library not found")

	// ErrDisabled indicates runs are refused because the tag dictionary is invalid.
	ErrDisabled = errors.New("localization disabled")

	// ErrNoLibraries indicates an empty library selection.
	ErrNoLibraries = errors.New("no libraries selected")

	// ErrInvalidSelection indicates a selection entry not of the form "server.library".
	ErrInvalidSelection = errors.New("invalid library selection")
)

// FetchError wraps a failed read from a server.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// UpdateError wraps a failed metadata write.
type UpdateError struct {
	Field  string
	ItemID ItemID
	Err    error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update %s of item %s: %v", e.Field, e.ItemID, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

func (e *UpdateError) Is(target error) bool { return target == ErrUpdate }
