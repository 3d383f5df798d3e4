package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across packages. Handlers map these onto HTTP
// status codes; the mutation coordinator maps persistence failures onto
// a full reload.
var (
	// ErrWouldCycle is returned when a reparenting operation would make
	// an entity its own ancestor.
	ErrWouldCycle = errors.New("move would create a cycle")

	// ErrSelfParent is returned when an entity is moved under itself.
	ErrSelfParent = errors.New("entity cannot be its own parent")

	// ErrCrossFlowMove is returned when a screen move targets a parent
	// in a different flow. Screens never change flows.
	ErrCrossFlowMove = errors.New("moving screens between flows is not supported")

	// ErrNotFound is returned when a referenced entity does not exist
	// or is not visible to the current actor.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports malformed input, rejected before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validationf builds a ValidationError for the given field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PersistenceError wraps a failed write to the backing store. By the
// time it surfaces the optimistic state has already been discarded and
// the session reloaded.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ExternalServiceError wraps a failure from an external collaborator
// (AI analysis, export). These never corrupt tree state.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
