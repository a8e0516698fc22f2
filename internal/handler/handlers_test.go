package handler_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deppfellow/go-dispatch/internal/dispatch"
	"github.com/deppfellow/go-dispatch/internal/handler"
	"github.com/deppfellow/go-dispatch/internal/service"
)

func TestNewHandlers_routes(t *testing.T) {
	t.Parallel()

	routes := handler.NewHandlers(&service.Services{}).Routes()

	keys := make([]string, 0, len(routes))
	for key, op := range routes {
		keys = append(keys, key)
		assert.NotNil(t, op.Exec, key)
	}
	sort.Strings(keys)

	assert.Equal(t, []string{"/", "/health", "/status"}, keys)
	assert.Equal(t, dispatch.KindSchema, routes["/health"].Kind)
	assert.Equal(t, dispatch.KindLegacy, routes["/status"].Kind)
}
