package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or out-of-range input. It is never
// retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown task, objective, hideout part, team, or
// user id.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConflictError is surfaced when optimistic-concurrency retries are
// exhausted. Callers may retry the whole operation.
type ConflictError struct {
	Entity EntityType
	ID     string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s %s modified concurrently", e.Entity, e.ID)
}

// DataUnavailableError reports an empty or missing reference feed. The
// system refuses to operate on an empty graph rather than treating every
// task as unlocked.
type DataUnavailableError struct {
	Reason string
}

func (e DataUnavailableError) Error() string {
	return fmt.Sprintf("reference data unavailable: %s", e.Reason)
}

// PermissionError is produced by the authorization boundary upstream of this
// core but stays distinguishable when threaded through it.
type PermissionError struct {
	Reason string
}

func (e PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Reason)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var conflict ConflictError
	return errors.As(err, &conflict)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var notFound NotFoundError
	return errors.As(err, &notFound)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var validation ValidationError
	return errors.As(err, &validation)
}
