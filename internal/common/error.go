// Package common defines shared constants and sentinel errors used across
// the repositories and services of the asset data layer. Callers should use
// errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Input validation errors, raised before any database access.
	ErrValidation = errors.New("validation error")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrDatabase = errors.New("db error")

	// State precondition errors (e.g. unlocking a secured asset without its password).
	ErrPrecondition = errors.New("precondition failed")

	// Account context errors.
	ErrNoAccount    = errors.New("no account data has been set")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")

	// Connection errors.
	ErrConnectionDown = errors.New("database connection is not active")

	// Batch errors.
	ErrPartialDelete = errors.New("one or more assets could not be deleted")
)

// ValidationError describes a single rejected value.
type ValidationError struct {
	Path    string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(path string, value any, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Value: value, Message: fmt.Sprintf(format, args...)}
}

// ValidationErrors collects every failure of a document validation run.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() error { return ErrValidation }

// ErrOrNil returns nil for an empty list so callers can return it directly.
func (v ValidationErrors) ErrOrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// ItemError is a failure of one element of a batch operation.
type ItemError struct {
	Index int
	Key   string
	Err   error
}

func (e ItemError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

// BatchError aggregates the failures of a non-atomic batch operation together
// with whatever was already applied. Nothing in Applied is rolled back.
type BatchError struct {
	Op       string
	Failures []ItemError
	Applied  any
}

func (e *BatchError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("error(s) encountered while %s - %s", e.Op, strings.Join(msgs, "; "))
}

// Unwrap exposes every item error to errors.Is / errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}
