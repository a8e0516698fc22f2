package handler

import (
	"github.com/deppfellow/go-dispatch/internal/dispatch"
	"github.com/deppfellow/go-dispatch/internal/service"
)

// Handlers is a container that groups all operation handlers.
type Handlers struct {
	Health *HealthHandler
	Status *StatusHandler
}

// NewHandlers constructs the handler container.
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(),
		Status: NewStatusHandler(services.Status),
	}
}

// Routes is the route table served by the dispatcher.
func (h *Handlers) Routes() dispatch.Routes {
	health := h.Health.Operation()

	return dispatch.Routes{
		"/":       health,
		"/health": health,
		"/status": h.Status.Operation(),
	}
}
