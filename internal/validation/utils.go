package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/deppfellow/go-dispatch/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// Issue codes produced outside of validator tags.
const (
	CodeInvalidType = "invalid_type"
	CodeCustom      = "custom"
)

// validate is shared by every schema. *validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so issue paths match the payload.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		}
		return name
	})

	return v
}

func kindOf[T any]() reflect.Kind {
	return reflect.TypeOf((*T)(nil)).Elem().Kind()
}

// decode turns raw into T.
//
// Values that already have type T (or *T) are used as-is. Anything else
// goes through mapstructure with weak typing, so query strings like
// "true" or "42" land in bool and int fields.
func decode[T any](raw any) (T, []errs.Issue) {
	var out T

	switch v := raw.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
		raw = nil
	}

	if raw == nil {
		switch kindOf[T]() {
		case reflect.Struct, reflect.Map:
			return out, []errs.Issue{{
				Path:    []string{},
				Code:    CodeInvalidType,
				Message: "expected object, received null",
			}}
		}
		return out, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return out, []errs.Issue{{Path: []string{}, Code: CodeInvalidType, Message: err.Error()}}
	}

	if err := decoder.Decode(raw); err != nil {
		var zero T
		return zero, decodeIssues(err)
	}

	return out, nil
}

// decodeIssues flattens a (possibly joined) mapstructure error into issues.
func decodeIssues(err error) []errs.Issue {
	var issues []errs.Issue

	var walk func(error)
	walk = func(err error) {
		switch e := err.(type) {
		case *mapstructure.DecodeError:
			var nested *mapstructure.DecodeError
			if errors.As(e.Unwrap(), &nested) {
				walk(e.Unwrap())
				return
			}
			issues = append(issues, errs.Issue{
				Path:    splitPath(e.Name()),
				Code:    CodeInvalidType,
				Message: e.Unwrap().Error(),
			})
			return
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner)
			}
			return
		}

		if inner := errors.Unwrap(err); inner != nil {
			walk(inner)
			return
		}

		issues = append(issues, errs.Issue{Path: []string{}, Code: CodeInvalidType, Message: err.Error()})
	}
	walk(err)

	return issues
}

// validateValue applies validator tags (structs only) and then the
// type's own Validate method, if any.
func validateValue[T any](ctx context.Context, value *T) []errs.Issue {
	if kindOf[T]() == reflect.Struct {
		if err := validate.StructCtx(ctx, value); err != nil {
			return extractValidationError(err)
		}
	}

	var custom Validatable
	if v, ok := any(value).(Validatable); ok {
		custom = v
	} else if v, ok := any(*value).(Validatable); ok {
		custom = v
	}
	if custom != nil {
		if err := custom.Validate(); err != nil {
			return extractValidationError(err)
		}
	}

	return nil
}

func extractValidationError(err error) []errs.Issue {
	var issues []errs.Issue

	var customValidationErrors CustomValidationErrors
	if errors.As(err, &customValidationErrors) {
		for _, err := range customValidationErrors {
			issues = append(issues, errs.Issue{
				Path:    splitPath(err.Field),
				Code:    CodeCustom,
				Message: err.Message,
			})
		}
		return issues
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []errs.Issue{{Path: []string{}, Code: CodeCustom, Message: err.Error()}}
	}

	// Convert validator.ValidationErrors into user-friendly messages.
	for _, err := range validationErrors {
		var msg string

		switch err.Tag() {
		case "required":
			msg = "is required"

		case "min":
			// min tag means:
			// - for strings: minimum length
			// - for numbers: minimum value
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", err.Param())
			}

		case "max":
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", err.Param())
			}

		case "eq":
			msg = fmt.Sprintf("must be equal to %s", err.Param())

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", err.Param())

		case "datetime":
			msg = fmt.Sprintf("must be a datetime in the format %s", err.Param())

		case "email":
			msg = "must be a valid email address"

		case "uuid":
			msg = "must be a valid UUID"

		case "dive":
			msg = "some items are invalid"

		default:
			field := strings.ToLower(err.Field())
			if err.Param() != "" {
				msg = fmt.Sprintf("%s: %s:%s", field, err.Tag(), err.Param())
			} else {
				msg = fmt.Sprintf("%s: %s", field, err.Tag())
			}
		}

		issues = append(issues, errs.Issue{
			Path:    fieldPath(err.Namespace()),
			Code:    err.Tag(),
			Message: msg,
		})
	}

	return issues
}

// fieldPath drops the root type name from a validator namespace,
// e.g. "HealthOutput.date" -> ["date"].
func fieldPath(namespace string) []string {
	path := splitPath(namespace)
	if len(path) == 0 {
		return path
	}
	return path[1:]
}

// splitPath turns "items[0].name" into ["items", "0", "name"].
func splitPath(name string) []string {
	path := []string{}
	for _, part := range strings.Split(name, ".") {
		for part != "" {
			i := strings.IndexByte(part, '[')
			if i < 0 {
				path = append(path, part)
				break
			}
			if i > 0 {
				path = append(path, part[:i])
			}
			j := strings.IndexByte(part[i:], ']')
			if j < 0 {
				path = append(path, part[i:])
				break
			}
			path = append(path, part[i+1:i+j])
			part = part[i+j+1:]
		}
	}
	return path
}
