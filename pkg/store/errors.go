package store

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrStoreClosed is returned when trying to use a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrNotFound is returned when a document is not found.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidConfig is returned when configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidID is returned when a document id contains characters outside
	// [a-zA-Z0-9_-].
	ErrInvalidID = errors.New("invalid document id")

	// ErrNoEmbedder is returned by text operations when the store was opened
	// without an embedder.
	ErrNoEmbedder = errors.New("no embedder configured")

	// ErrDimensionMismatch is returned when an embedding does not match the
	// configured vector length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// StoreError wraps errors with operation context.
type StoreError struct {
	Op  string // Operation name
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("vectorstore: %v", e.Err)
	}
	return fmt.Sprintf("vectorstore: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// wrapError wraps an error with operation context.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
