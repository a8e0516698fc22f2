package router

import (
	"github.com/deppfellow/go-dispatch/internal/dispatch"
	"github.com/deppfellow/go-dispatch/internal/server"
	"github.com/labstack/echo/v4"
)

func newDispatcher(s *server.Server, registry *dispatch.Registry) *dispatch.Dispatcher {
	opts := []dispatch.Option{
		dispatch.WithEnv(&dispatch.Env{
			Config:     s.Config,
			Connectors: s.Connectors,
		}),
		dispatch.WithLogger(s.Logger),
		dispatch.WithDevMessages(s.Config.Dispatch.ExposeDevMessages),
		dispatch.WithMaxBodyBytes(s.Config.Dispatch.MaxBodyBytes),
	}

	if acquire := s.RequestAcquirer(); acquire != nil {
		opts = append(opts, dispatch.WithAcquirer(acquire))
	}
	if s.Background != nil {
		opts = append(opts, dispatch.WithScheduler(s.Background))
	}

	return dispatch.New(registry, opts...)
}

// registerDispatchRoutes forwards every path and every method Echo knows
// to the dispatcher. Unknown methods reach the global error handler as 405.
func registerDispatchRoutes(r *echo.Echo, d *dispatch.Dispatcher) {
	handle := echo.WrapHandler(d)

	r.Any("/", handle)
	r.Any("/*", handle)
}
