package dispatch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/go-dispatch/internal/dispatch"
)

func noop(context.Context, any, *dispatch.ExecContext) (any, error) {
	return nil, nil
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		routes  dispatch.Routes
		wantErr string
	}{
		"empty key": {
			routes:  dispatch.Routes{"": dispatch.Legacy(noop)},
			wantErr: "route key is required",
		},
		"missing exec": {
			routes:  dispatch.Routes{"/x": {Kind: dispatch.KindLegacy}},
			wantErr: `route "/x": operation has no execution function`,
		},
		"unknown kind": {
			routes:  dispatch.Routes{"/x": {Kind: dispatch.Kind(7), Exec: noop}},
			wantErr: `route "/x": unknown operation kind kind(7)`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := dispatch.NewRegistry(tc.routes)
			assert.EqualError(t, err, tc.wantErr)
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	reg := dispatch.MustRegistry(dispatch.Routes{
		"/":       dispatch.Legacy(noop),
		"/health": dispatch.Legacy(noop),
	})

	op, ok := reg.Lookup("/health")
	require.True(t, ok)
	assert.Equal(t, dispatch.KindLegacy, op.Kind)

	for _, key := range []string{"/health/", "/HEALTH", "health", "/health?x=1"} {
		_, ok := reg.Lookup(key)
		assert.False(t, ok, key)
	}

	assert.Equal(t, []string{"/", "/health"}, reg.Keys())

	var empty *dispatch.Registry
	_, ok = empty.Lookup("/")
	assert.False(t, ok)
	assert.Nil(t, empty.Keys())
}

func TestMustRegistry_panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		dispatch.MustRegistry(dispatch.Routes{"/x": {}})
	})
}
