package domain

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidID        = errors.New("invalid id")
	ErrDayNotFound      = errors.New("workout day not found")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrSetNotFound      = errors.New("workout set not found")
	ErrRestNotFound     = errors.New("rest period not found")
	ErrCatalogNotFound  = errors.New("catalog entry not found")

	// ErrDuplicateCatalogEntry is returned when seeding collides with the
	// unique name index.
	ErrDuplicateCatalogEntry = errors.New("catalog entry already exists")

	// ErrDayHasExercises is returned when a day owning exercises is toggled
	// to a rest day. The day must be left unchanged.
	ErrDayHasExercises = errors.New("cannot mark day as rest day: day still owns exercises")

	// ErrDayIsRest is the other direction of the same invariant: an exercise
	// may not be added to a day flagged as rest. Clear the flag first.
	ErrDayIsRest = errors.New("cannot add exercises to a rest day")

	// ErrBatchRejected means the server refused the whole batch; none of its
	// operations took effect and the local queue must be kept as-is.
	ErrBatchRejected = errors.New("batch rejected by server")

	// ErrTempIDLeak means an operation still references a temporary id that
	// no mapping resolved and no earlier pending create introduces. This is
	// a broken invariant, not a transient condition.
	ErrTempIDLeak = errors.New("unresolved temp id escaped its batch")
)

// ValidationError reports a schema or invariant violation on a single field.
// Writes and enqueues fail with it before any derivation logic runs.
type ValidationError struct {
	Collection string
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s.%s: %s", e.Collection, e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given collection/field.
func NewValidationError(collection, field, reason string) *ValidationError {
	return &ValidationError{Collection: collection, Field: field, Reason: reason}
}
