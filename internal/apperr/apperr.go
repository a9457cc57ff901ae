// Package apperr implements the engine's error taxonomy (spec.md §7),
// grounded on the teacher's pkg/errors: a single typed error with
// constructors and predicates per category, and a Wrap helper that
// preserves the original type across layers.
package apperr

import "fmt"

// Type categorizes an engine error.
type Type string

const (
	TypeConstraintViolation Type = "CONSTRAINT_VIOLATION"
	TypeNotFound            Type = "NOT_FOUND"
	TypeBackendFailure      Type = "BACKEND_FAILURE"
	TypeCancelled           Type = "CANCELLED"
)

// Error is the engine's error type.
type Error struct {
	Type    Type
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewConstraintViolation builds a ConstraintViolation error: ixnModel
// unsupported, or container/binary invariants 4-6 violated.
func NewConstraintViolation(message string) error {
	return &Error{Type: TypeConstraintViolation, Message: message}
}

// NewNotFound builds a NotFound error: operation targets a MISSING or
// DELETED identifier when LIVE is required.
func NewNotFound(message string) error {
	return &Error{Type: TypeNotFound, Message: message}
}

// NewBackendFailure builds a BackendFailure error wrapping the underlying
// quad-store I/O or protocol error.
func NewBackendFailure(message string, err error) error {
	return &Error{Type: TypeBackendFailure, Message: message, Err: err}
}

// NewCancelled builds a Cancelled error for a caller-cancelled completion.
func NewCancelled(message string) error {
	return &Error{Type: TypeCancelled, Message: message}
}

// Wrap adds context to err while preserving its Type if it is already an
// *Error; otherwise it is classified as a BackendFailure.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return &Error{Type: e.Type, Message: fmt.Sprintf("%s: %s", message, e.Message), Err: e.Err}
	}
	return &Error{Type: TypeBackendFailure, Message: message, Err: err}
}

func typeOf(err error) (Type, bool) {
	e, ok := err.(*Error)
	if !ok {
		return "", false
	}
	return e.Type, true
}

// IsConstraintViolation reports whether err is a ConstraintViolation error.
func IsConstraintViolation(err error) bool {
	t, ok := typeOf(err)
	return ok && t == TypeConstraintViolation
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	t, ok := typeOf(err)
	return ok && t == TypeNotFound
}

// IsBackendFailure reports whether err is a BackendFailure error.
func IsBackendFailure(err error) bool {
	t, ok := typeOf(err)
	return ok && t == TypeBackendFailure
}

// IsCancelled reports whether err is a Cancelled error.
func IsCancelled(err error) bool {
	t, ok := typeOf(err)
	return ok && t == TypeCancelled
}
