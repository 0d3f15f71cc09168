// Package domain holds the quote entity, its validation rules and the
// filter engine. Errors declared here describe failures of the quote board
// itself; adapters translate them to HTTP status codes or CLI exit codes.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates the requested quote does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates an insert or patch payload was rejected.
	ErrValidation = errors.New("validation failed")

	// ErrStorage indicates the storage medium failed (I/O, connection, constraint).
	ErrStorage = errors.New("storage failure")

	// ErrForbidden indicates the caller lacks the capability for the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable indicates a remote dependency could not be reached.
	ErrUnavailable = errors.New("unavailable")
)

// NotFoundError names the entity and id that could not be located.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// FieldViolation is a single rejected field of a payload.
type FieldViolation struct {
	Field   string
	Message string
}

// ValidationError lists every field that failed validation, in field order.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	switch len(e.Violations) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("validation failed for %s: %s", e.Violations[0].Field, e.Violations[0].Message)
	}

	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Fields returns the violations keyed by field name.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Violations))
	for _, v := range e.Violations {
		out[v.Field] = v.Message
	}

	return out
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) error {
	return &ValidationError{Violations: []FieldViolation{{Field: field, Message: message}}}
}

// StorageError wraps a failure of the persistence medium.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("storage %s failed", e.Op)
	}

	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *StorageError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStorage}
	}

	return []error{ErrStorage, e.Err}
}

// NewStorageError wraps err as a failure of the storage operation op.
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// ForbiddenError describes a rejected operation.
type ForbiddenError struct {
	Operation string
	Reason    string
}

func (e *ForbiddenError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("operation %q forbidden: %s", e.Operation, e.Reason)
	}

	return fmt.Sprintf("operation %q forbidden", e.Operation)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// NewForbiddenError creates a forbidden error with context.
func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// UnavailableError names the remote service that could not be reached.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsStorage checks if an error is a storage failure.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsForbidden checks if an error is a forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
