package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown document type or payload format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrNoPages indicates a document arrived without any page output.
	ErrNoPages = errors.New("document has no pages")

	// Pipeline Errors.

	// ErrValidationFailed indicates critical issues remain after auto-correction.
	// Layout synthesis does not run for such documents.
	ErrValidationFailed = errors.New("validation failed")

	// ErrStoreContention indicates pattern persistence failed beyond the retry budget.
	ErrStoreContention = errors.New("pattern store contention")

	// ErrStoreClosed indicates the pattern store no longer accepts writes.
	ErrStoreClosed = errors.New("pattern store closed")
)

// ValidationFailureError is returned when a document carries critical
// issues that could not be auto-corrected.
type ValidationFailureError struct {
	// DocumentID identifies the failed document.
	DocumentID string

	// Issues are the unresolved critical issues.
	Issues []ValidationIssue
}

// Error lists each unresolved issue with its entity, field and page.
func (e *ValidationFailureError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for i := range e.Issues {
		parts = append(parts, e.Issues[i].Ref.String()+": "+e.Issues[i].Message)
	}
	return fmt.Sprintf("validation failed for document %s: %d unresolved critical issue(s): %s",
		e.DocumentID, len(e.Issues), strings.Join(parts, "; "))
}

// Unwrap allows errors.Is(err, ErrValidationFailed).
func (e *ValidationFailureError) Unwrap() error {
	return ErrValidationFailed
}

// StoreContentionError is returned when a pattern could not be persisted
// within the retry budget.
type StoreContentionError struct {
	// Key is the signature key of the pattern being written.
	Key string

	// Attempts is how many writes were tried.
	Attempts int

	// Err is the last persistence error.
	Err error
}

func (e *StoreContentionError) Error() string {
	return fmt.Sprintf("persisting pattern %q failed after %d attempt(s): %v", e.Key, e.Attempts, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *StoreContentionError) Unwrap() []error {
	return []error{ErrStoreContention, e.Err}
}
