// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and mounts the dispatcher on a catch-all
// route: routing by path happens in the dispatcher, not in Echo.
package router

import (
	"fmt"

	"github.com/deppfellow/go-dispatch/internal/dispatch"
	"github.com/deppfellow/go-dispatch/internal/handler"
	"github.com/deppfellow/go-dispatch/internal/middleware"
	"github.com/deppfellow/go-dispatch/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo instance serving the operations in h.
//
// Middleware order matters: the transaction must exist before the
// request logger and the context enhancer read it, and the request id
// must exist before the context enhancer copies it into the logger.
func NewRouter(s *server.Server, h *handler.Handlers) (*echo.Echo, error) {
	registry, err := dispatch.NewRegistry(h.Routes())
	if err != nil {
		return nil, fmt.Errorf("failed to build operation registry: %w", err)
	}

	s.Logger.Info().
		Strs("routes", registry.Keys()).
		Strs("connectors", s.Connectors.Names()).
		Msg("operation registry ready")

	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.Tracing.NewRelicMiddleware(),
		middleware.RequestID(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Tracing.EnhanceTracing(),
	)

	if len(s.Config.Server.CORSAllowedOrigins) > 0 {
		router.Use(middlewares.Global.CORS())
	}

	router.Use(
		middlewares.Global.Secure(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerDispatchRoutes(router, newDispatcher(s, registry))

	return router, nil
}
