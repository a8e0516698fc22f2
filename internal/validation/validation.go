// Package validation contains the logic for validating
// operation input and output.
//
// A Schema wraps a Go type. Raw data (a query map, a decoded JSON
// document or an operation result) is first decoded into the type with
// mapstructure and then checked against the `validate` struct tags with
// the `validator` library. Failures come back as an ordered list of
// errs.Issue the client can understand.
package validation

import (
	"context"
	"reflect"

	"github.com/deppfellow/go-dispatch/internal/errs"
)

// Validatable is implemented by payload types that carry rules which
// cannot be expressed via validator tags.
//
// Typical pattern:
// - Define a struct with validator tags (`validate:"required,eq=ok"`)
// - Implement Validate() error for cross-field rules
// - Return CustomValidationErrors (or validator.ValidationErrors)
type Validatable interface {
	Validate() error
}

// CustomValidationError represents a single validation issue for a specific field.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// Schema describes the shape of T.
//
// Schemas are immutable and safe for concurrent use; build them once at
// process start next to the operation that declares them.
type Schema[T any] struct {
	name string
}

// NewSchema creates a schema for T.
func NewSchema[T any]() *Schema[T] {
	var zero T
	name := "value"
	if t := reflect.TypeOf(zero); t != nil {
		name = t.String()
	}
	return &Schema[T]{name: name}
}

// Name returns the Go type name the schema validates, for logs.
func (s *Schema[T]) Name() string {
	return s.name
}

// Parse decodes raw into T and validates it.
//
// Exactly one of the results is meaningful: either a value and nil
// issues, or the zero value and at least one issue.
func (s *Schema[T]) Parse(ctx context.Context, raw any) (T, []errs.Issue) {
	var zero T

	value, issues := decode[T](raw)
	if len(issues) > 0 {
		return zero, issues
	}

	if issues := validateValue(ctx, &value); len(issues) > 0 {
		return zero, issues
	}

	return value, nil
}

// Validate is Parse with an untyped result, so a Schema can be stored
// behind a type-agnostic interface.
func (s *Schema[T]) Validate(ctx context.Context, raw any) (any, []errs.Issue) {
	value, issues := s.Parse(ctx, raw)
	if len(issues) > 0 {
		return nil, issues
	}
	return value, nil
}
