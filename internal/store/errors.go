package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ReadError indicates a failed read from the backing store.
type ReadError struct {
	Op    string
	Cause error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Op, e.Cause)
}

func (e *ReadError) Unwrap() error {
	return e.Cause
}

// StructuralError indicates stored data that exists but cannot be used, as
// opposed to data that is simply missing.
type StructuralError struct {
	Kind    SingletonKind
	Message string
	Cause   error
}

func (e *StructuralError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed %s record: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed %s record: %s", e.Kind, e.Message)
}

func (e *StructuralError) Unwrap() error {
	return e.Cause
}

// NotFoundError indicates a saved proposal does not exist.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("saved proposal not found: %s", e.ID)
}

// IsStructural reports whether err is or wraps a StructuralError.
func IsStructural(err error) bool {
	var serr *StructuralError
	return errors.As(err, &serr)
}

// ErrArchiveUnsupported is returned when the configured store cannot archive proposals.
var ErrArchiveUnsupported = errors.New("saved proposals are not supported by this store")
