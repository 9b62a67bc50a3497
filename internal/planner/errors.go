package planner

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation indicates empty or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates the operation is not legal for the record's current status.
	ErrInvalidState = errors.New("invalid state")
	// ErrPermission indicates the caller's role does not allow the operation.
	ErrPermission = errors.New("permission denied")
)

// HashtagFailure records a single hashtag upsert that failed.
type HashtagFailure struct {
	Name string
	Err  error
}

// HashtagUpsertError is returned by AddOrUpdateIdea when the idea was stored
// but one or more of its hashtags could not be upserted.
type HashtagUpsertError struct {
	Failures []HashtagFailure
}

func (e *HashtagUpsertError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, fmt.Sprintf("%s: %v", f.Name, f.Err))
	}
	return "hashtag upsert failed for " + strings.Join(names, "; ")
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *HashtagUpsertError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
