package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrValidationFailed matches any ValidationError.
	ErrValidationFailed = errors.New("validation failed")
	// ErrStoreUnavailable matches any StoreError.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports a missing or malformed input field. Nothing is written when it
// is returned.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

// Is matches ErrValidationFailed and any ValidationError with an empty or equal Field.
func (e ValidationError) Is(target error) bool {
	if target == ErrValidationFailed {
		return true
	}
	t, ok := target.(ValidationError)
	if !ok {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}

// StoreError wraps a non-retryable failure of the backing store.
type StoreError struct {
	Op  string
	Err error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e StoreError) Unwrap() error {
	return e.Err
}

func (e StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}
