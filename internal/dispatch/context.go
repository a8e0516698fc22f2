package dispatch

import (
	"context"
	"net/http"

	"github.com/deppfellow/go-dispatch/internal/config"
	"github.com/deppfellow/go-dispatch/internal/connector"
	"github.com/deppfellow/go-dispatch/internal/database"
)

// Scheduler runs work after the response has been produced.
//
// Implementations must not tie fn's context to the request's cancellation.
type Scheduler interface {
	Go(ctx context.Context, fn func(context.Context) error)
}

// Env carries the environment bindings shared by every request.
type Env struct {
	Config     *config.Config
	Connectors *connector.Registry
}

// ExecContext is the per-request view an operation gets.
type ExecContext struct {
	// Request is the inbound request, untouched.
	Request *http.Request

	// DB is the per-request database session. Nil in degraded mode.
	DB database.Handle

	// Env holds configuration and the connector registry. Never nil.
	Env *Env

	// Background is the platform scheduler. Nil when there is none.
	Background Scheduler
}
