// Package connector keeps long-lived, named connections that operations
// look up at request time (e.g. the probe connector used by /health).
//
// A registry is filled once at startup and only read afterwards. A nil
// *Registry is valid and behaves as an empty one, so operations running
// without connectors fall back to their degraded path.
package connector

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ProbeName is the name the health probe connector is registered under.
const ProbeName = "probe-connector"

var (
	// ErrNotRegistered is returned when no connector exists for a name.
	ErrNotRegistered = errors.New("connector not registered")

	// ErrTypeMismatch is returned when a connector exists but has another type.
	ErrTypeMismatch = errors.New("connector type mismatch")
)

// Registry maps connector names to connector values.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]any)}
}

// Register binds c to name. Names are unique.
func (r *Registry) Register(name string, c any) error {
	if name == "" {
		return errors.New("connector name is required")
	}
	if c == nil {
		return errors.Errorf("connector %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connectors[name]; exists {
		return errors.Errorf("connector %q already registered", name)
	}
	r.connectors[name] = c
	return nil
}

// Lookup returns the connector registered under name.
func (r *Registry) Lookup(name string) (any, bool) {
	if r == nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.connectors[name]
	return c, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the connector registered under name as a T.
func Get[T any](r *Registry, name string) (T, error) {
	var zero T

	c, ok := r.Lookup(name)
	if !ok {
		return zero, errors.Wrap(ErrNotRegistered, name)
	}

	typed, ok := c.(T)
	if !ok {
		return zero, errors.Wrapf(ErrTypeMismatch, "%s is %T", name, c)
	}
	return typed, nil
}
