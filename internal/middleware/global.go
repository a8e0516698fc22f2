package middleware

import (
	"fmt"
	"net/http"

	"github.com/deppfellow/go-dispatch/internal/dispatch"
	"github.com/deppfellow/go-dispatch/internal/errs"
	"github.com/deppfellow/go-dispatch/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// GlobalMiddlewares groups the global middleware and the global error handler.
type GlobalMiddlewares struct {
	server *server.Server
}

func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS returns Echo's CORS middleware for the configured origins.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: global.server.Config.Server.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	})
}

// RequestLogger logs one "API" line per request, at a level derived
// from the final status.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := v.Status

			// With an error the response is not written yet; the global
			// error handler decides the final status.
			// See https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
			if v.Error != nil {
				statusCode = toHTTPError(v.Error, c.Request().Method).Status
			}

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			if requestID := GetRequestID(c); requestID != "" {
				e = e.Str("request_id", requestID)
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("ip", c.RealIP()).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

// Recover turns panics outside the dispatcher into errors for the
// global error handler.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			GetLogger(c).Error().
				Err(err).
				Bytes("stack", stack).
				Msg("recovered from panic")
			return err
		},
	})
}

// Secure returns Echo's secure headers middleware.
func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// GlobalErrorHandler is the final error funnel for the HTTP server.
//
// Errors that never reached the dispatcher (unroutable methods, panics in
// middleware) are rendered in the same envelope the dispatcher uses.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	httpErr := toHTTPError(err, c.Request().Method)

	logger := GetLogger(c)

	var e *zerolog.Event
	if httpErr.Status >= http.StatusInternalServerError {
		e = logger.Error().Stack().Err(err)
	} else {
		e = logger.Warn().Err(err)
	}
	e.
		Int("status", httpErr.Status).
		Str("error_code", httpErr.Code()).
		Msg(httpErr.UserMessage)

	if c.Response().Committed {
		return
	}

	if !global.server.Config.Dispatch.ExposeDevMessages {
		httpErr = dispatch.Redact(httpErr)
	}

	if writeErr := dispatch.Failure(httpErr).Write(c.Response()); writeErr != nil {
		logger.Warn().Err(writeErr).Msg("failed to write error response")
	}
}

// toHTTPError maps any error reaching Echo onto the dispatch taxonomy.
func toHTTPError(err error, method string) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var echoErr *echo.HTTPError
	if !errors.As(err, &echoErr) {
		return errs.NewGlobalError(err)
	}

	switch {
	case echoErr.Code == http.StatusNotFound:
		return errs.NewNotFoundError()
	case echoErr.Code == http.StatusMethodNotAllowed:
		return errs.NewMethodNotAllowedError(method)
	case echoErr.Code >= 400 && echoErr.Code < 500:
		return &errs.HTTPError{
			Kind:        errs.KindClientInput,
			Status:      echoErr.Code,
			UserMessage: http.StatusText(echoErr.Code),
			DevMessage:  fmt.Sprint(echoErr.Message),
		}
	default:
		return errs.NewGlobalError(err)
	}
}
