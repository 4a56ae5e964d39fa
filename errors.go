package wldstore

import (
	"errors"
	"fmt"
)

// ErrorKind classifies storage failures
type ErrorKind string

// Error kinds
const (
	KindValidationFailed    ErrorKind = "VALIDATION_FAILED"
	KindSerializationFailed ErrorKind = "SERIALIZATION_FAILED"
	KindQuotaExceeded       ErrorKind = "QUOTA_EXCEEDED"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindUnknown             ErrorKind = "UNKNOWN"
)

// ErrQuotaExceeded is wrapped by backends when the underlying storage is out of capacity
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// ErrNothingToMigrate is returned when the legacy key holds no workflows
var ErrNothingToMigrate = errors.New("nothing to migrate")

// StoreError is returned by every mutating storage operation
type StoreError struct {
	Kind    ErrorKind `json:"kind"`
	Key     string    `json:"key,omitempty"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *StoreError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("[%s] %s (key: %s)", e.Kind, msg, e.Key)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

// Unwrap returns the underlying cause
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new store error
func NewStoreError(kind ErrorKind, key, message string) *StoreError {
	return &StoreError{Kind: kind, Key: key, Message: message}
}

// WrapStoreError creates a store error around a cause
func WrapStoreError(kind ErrorKind, key, message string, err error) *StoreError {
	return &StoreError{Kind: kind, Key: key, Message: message, Err: err}
}

// KindOf returns the kind of err. Errors that are not a *StoreError map to
// KindQuotaExceeded when they wrap ErrQuotaExceeded and KindUnknown otherwise.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return KindQuotaExceeded
	}
	return KindUnknown
}

// IsQuotaExceeded checks if an error is a capacity failure
func IsQuotaExceeded(err error) bool {
	return KindOf(err) == KindQuotaExceeded
}

// IsValidation checks if an error is a validation failure
func IsValidation(err error) bool {
	return KindOf(err) == KindValidationFailed
}

// IsNotFound checks if an error reports a missing record
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
