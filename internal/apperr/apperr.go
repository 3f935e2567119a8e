// Package apperr holds the error kinds every layer reports and handlers map to HTTP statuses.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// ValidationError carries field-level messages for a rejected input.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrValidation.Error()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add appends a message for field and returns the receiver.
func (e *ValidationError) Add(field, msg string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
	if e.Message == "" {
		e.Message = msg
	}
	return e
}

// Empty reports whether no field has been flagged.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Invalid builds a single-field validation error.
func Invalid(field, msg string) *ValidationError {
	return (&ValidationError{}).Add(field, msg)
}

// UnknownIDs reports ids of field that do not reference existing rows.
func UnknownIDs(field string, ids []uint) *ValidationError {
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return Invalid(field, fmt.Sprintf("The selected %s are invalid: %s.", field, strings.Join(parts, ", ")))
}

// NotFound wraps ErrNotFound with the resource name.
func NotFound(resource string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, resource)
}

// Conflict wraps ErrConflict with a human readable reason.
func Conflict(msg string) error {
	return fmt.Errorf("%w: %s", ErrConflict, msg)
}
