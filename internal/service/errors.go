// Package service orchestrates ingestion, categorization and aggregation on
// top of the store and blob layers.
package service

import "fmt"

// ValidationError marks a failure caused by the caller's input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError marks an operation rejected by current state, locking an
// already-locked month or mutating locked data.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func conflictf(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
