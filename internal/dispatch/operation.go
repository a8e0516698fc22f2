package dispatch

import (
	"context"
	"fmt"

	"github.com/deppfellow/go-dispatch/internal/errs"
	"github.com/deppfellow/go-dispatch/internal/validation"
	"github.com/pkg/errors"
)

// Kind tells the dispatcher which pipeline an Operation runs through.
type Kind int

const (
	// KindLegacy operations receive the raw input and are never validated.
	KindLegacy Kind = iota

	// KindSchema operations declare optional input and output schemas.
	KindSchema
)

func (k Kind) String() string {
	switch k {
	case KindLegacy:
		return "legacy"
	case KindSchema:
		return "schema"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Validator checks raw data and returns the validated value or the issues.
// *validation.Schema[T] implements it.
type Validator interface {
	Validate(ctx context.Context, raw any) (any, []errs.Issue)
}

// ExecFunc is the type-erased execution function of an Operation.
type ExecFunc func(ctx context.Context, input any, ec *ExecContext) (any, error)

// Operation is one registered unit of work.
//
// Build it with Legacy or Typed; the zero value is not runnable.
type Operation struct {
	Kind   Kind
	Input  Validator
	Output Validator
	Exec   ExecFunc
}

// Legacy creates an operation that receives the parsed input as-is:
// map[string]string for GET, the decoded JSON document for POST.
func Legacy(fn ExecFunc) Operation {
	return Operation{Kind: KindLegacy, Exec: fn}
}

// Typed creates a schema-bundled operation.
//
// Without an input schema the raw input is handed over as In, so In
// should be any, map[string]string or map[string]any. Without an output
// schema the result is sent unchecked.
func Typed[In, Out any](
	input *validation.Schema[In],
	output *validation.Schema[Out],
	fn func(ctx context.Context, in In, ec *ExecContext) (Out, error),
) Operation {
	op := Operation{
		Kind: KindSchema,
		Exec: func(ctx context.Context, raw any, ec *ExecContext) (any, error) {
			in, ok := raw.(In)
			if !ok && raw != nil {
				return nil, errors.Errorf("operation input: expected %T, got %T", in, raw)
			}
			return fn(ctx, in, ec)
		},
	}

	// Only set non-nil schemas so the interface fields stay comparable to nil.
	if input != nil {
		op.Input = input
	}
	if output != nil {
		op.Output = output
	}

	return op
}
