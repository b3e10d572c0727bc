package tags

import (
	"errors"
	"fmt"
)

var (
	// ErrParse matches any dictionary parse failure via errors.Is.
	ErrParse = errors.New("tag dictionary parse failed")

	// ErrEmpty indicates nothing was left after stripping comments.
	ErrEmpty = errors.New("no entries after stripping comments")

	// ErrEmptyKey indicates an entry with an empty source tag.
	ErrEmptyKey = errors.New("empty source tag")
)

// ParseError wraps the underlying cause of a dictionary parse failure.
// A malformed dictionary cannot fix itself, so callers disable processing
// rather than retry.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse tag dictionary: %v", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports ErrParse as a match so callers need not know the cause.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// EmptyValueError reports a source tag mapped to the empty string.
type EmptyValueError struct {
	Tag string
}

func (e *EmptyValueError) Error() string {
	return fmt.Sprintf("tag %q maps to an empty value", e.Tag)
}
