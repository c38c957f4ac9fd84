package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means no score category had any input for the day.
	ErrInsufficientData = errors.New("insufficient data to compute heart score")
	// ErrConflict is returned by repositories when a unique key already exists.
	ErrConflict = errors.New("record already exists")
	// ErrForbidden means the principal may not act on the requested user.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyReverted is returned when reverting an agent action twice.
	ErrAlreadyReverted = errors.New("agent action already reverted")
)

// ValidationError reports an input that is malformed or outside its
// physiological range. It is raised before anything is persisted.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
