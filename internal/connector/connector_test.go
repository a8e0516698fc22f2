package connector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/go-dispatch/internal/connector"
)

type probe struct{ name string }

func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	r := connector.NewRegistry()
	require.NoError(t, r.Register(connector.ProbeName, &probe{name: "primary"}))

	t.Run("registered connector", func(t *testing.T) {
		got, err := connector.Get[*probe](r, connector.ProbeName)
		require.NoError(t, err)
		assert.Equal(t, "primary", got.name)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := connector.Get[*probe](r, "missing")
		assert.ErrorIs(t, err, connector.ErrNotRegistered)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := connector.Get[string](r, connector.ProbeName)
		assert.ErrorIs(t, err, connector.ErrTypeMismatch)
	})
}

func TestRegistry_nil_is_empty(t *testing.T) {
	t.Parallel()

	var r *connector.Registry

	_, err := connector.Get[*probe](r, connector.ProbeName)
	assert.ErrorIs(t, err, connector.ErrNotRegistered)
	assert.Empty(t, r.Names())
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	r := connector.NewRegistry()

	require.NoError(t, r.Register("b", 1))
	require.NoError(t, r.Register("a", 2))
	assert.Error(t, r.Register("a", 3))
	assert.Error(t, r.Register("", 4))
	assert.Error(t, r.Register("c", nil))

	assert.Equal(t, []string{"a", "b"}, r.Names())
}
