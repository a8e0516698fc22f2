package dispatch

import (
	"sort"

	"github.com/pkg/errors"
)

// Routes is the input to NewRegistry: route key to operation.
type Routes map[string]Operation

// Registry maps exact route keys to operations.
//
// It is built once and never modified, so concurrent lookups need no locking.
// Keys are matched verbatim: no wildcards, no trailing-slash folding.
type Registry struct {
	operations map[string]Operation
}

// NewRegistry copies routes into an immutable registry.
func NewRegistry(routes Routes) (*Registry, error) {
	operations := make(map[string]Operation, len(routes))

	for key, op := range routes {
		if key == "" {
			return nil, errors.New("route key is required")
		}
		if op.Exec == nil {
			return nil, errors.Errorf("route %q: operation has no execution function", key)
		}
		if op.Kind != KindLegacy && op.Kind != KindSchema {
			return nil, errors.Errorf("route %q: unknown operation kind %s", key, op.Kind)
		}
		operations[key] = op
	}

	return &Registry{operations: operations}, nil
}

// MustRegistry is NewRegistry for static route tables; it panics on error.
func MustRegistry(routes Routes) *Registry {
	r, err := NewRegistry(routes)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the operation registered under key.
func (r *Registry) Lookup(key string) (Operation, bool) {
	if r == nil {
		return Operation{}, false
	}
	op, ok := r.operations[key]
	return op, ok
}

// Keys returns the registered route keys in sorted order.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, len(r.operations))
	for key := range r.operations {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
