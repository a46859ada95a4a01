package persist

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the engine. They are usually wrapped in a
// MappingError naming the model and property involved.
var (
	// ErrUnsupportedMapper is returned for a mapper the engine does not know.
	ErrUnsupportedMapper = errors.New("persist: unsupported mapper")

	// ErrMultipleProperty is returned when a multi-valued property reaches
	// column level change detection.
	ErrMultipleProperty = errors.New("persist: multiple property is not supported here")

	// ErrUnknownModel is returned when a property value conforms to none of
	// the property's candidate models.
	ErrUnknownModel = errors.New("persist: value does not match any property model")

	// ErrNoKey is returned when a record condition cannot be built because
	// the model has neither key properties nor primitive columns.
	ErrNoKey = errors.New("persist: model has no key")

	// ErrNilObject is returned when an object required for a write is nil.
	ErrNilObject = errors.New("persist: nil object")
)

// MappingError reports an error tied to a model property mapping.
type MappingError struct {
	Model    string
	Property string // Optional
	Err      error
}

// Error returns the error string.
func (e *MappingError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("persist: %s.%s: %v", e.Model, e.Property, e.Err)
	}
	return fmt.Sprintf("persist: %s: %v", e.Model, e.Err)
}

// Unwrap returns the underlying error.
func (e *MappingError) Unwrap() error {
	return e.Err
}

// NewMappingError returns a new MappingError.
func NewMappingError(model, property string, err error) *MappingError {
	return &MappingError{Model: model, Property: property, Err: err}
}

// IsMappingError returns true if the error is a MappingError.
func IsMappingError(err error) bool {
	if err == nil {
		return false
	}
	var e *MappingError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("persist: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// MutationError wraps a write error with the model and operation.
type MutationError struct {
	Model string
	Op    Op
	Err   error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("persist: %s %s: %v", strings.ToLower(strings.TrimPrefix(e.Op.String(), "Op")), e.Model, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(model string, op Op, err error) *MutationError {
	return &MutationError{Model: model, Op: op, Err: err}
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("persist: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "persist: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("persist: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
