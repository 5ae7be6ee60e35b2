// Package common provides the shared error taxonomy and logging setup used
// across the engine.
package common

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Callers classify failures with errors.Is.
var (
	// ErrNotFound marks an unknown workflow or checkpoint id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks an operation attempted in the wrong stage or
	// against a non-pending checkpoint. Always rejected, never coerced.
	ErrInvalidState = errors.New("invalid state")
	// ErrAlreadyExecuted marks a duplicate execution attempt against a
	// checkpoint that already produced a result.
	ErrAlreadyExecuted = errors.New("already executed")
	// ErrCheckpointExpired marks a decision submitted after the deadline.
	ErrCheckpointExpired = errors.New("checkpoint expired")
)

// ValidationError reports malformed input records or constraints. It is
// recoverable: the caller may fix the input and re-invoke; the workflow
// stage does not advance.
type ValidationError struct {
	Field  string
	Reason string
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) > 0 {
		return fmt.Sprintf("validation failed for %s: %s (%s)", e.Field, e.Reason, strings.Join(e.Issues, "; "))
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a field-scoped validation failure.
func NewValidationError(field, reason string, issues ...string) error {
	return &ValidationError{Field: field, Reason: reason, Issues: issues}
}

// IsValidation reports whether err is a recoverable input problem.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InternalError wraps an unexpected computation fault. It moves the owning
// workflow to ERROR and is surfaced verbatim to the caller.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Internal tags an error as an unrecoverable engine fault.
func Internal(op string, err error) error {
	return &InternalError{Op: op, Err: err}
}
