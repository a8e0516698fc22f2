package handler

import (
	"context"
	"net/http"

	"github.com/deppfellow/go-dispatch/internal/dispatch"
	"github.com/deppfellow/go-dispatch/internal/errs"
	"github.com/deppfellow/go-dispatch/internal/service"
)

// StatusChecker builds the dependency report.
type StatusChecker interface {
	Check(ctx context.Context) service.StatusReport
}

// StatusHandler reports dependency health for monitors and load balancers.
type StatusHandler struct {
	status StatusChecker
}

func NewStatusHandler(status StatusChecker) *StatusHandler {
	return &StatusHandler{status: status}
}

// Operation returns the legacy /status operation. It takes no input.
func (h *StatusHandler) Operation() dispatch.Operation {
	return dispatch.Legacy(h.Check)
}

// Check answers 200 with the report, or 503 with the report as data.
func (h *StatusHandler) Check(ctx context.Context, _ any, _ *dispatch.ExecContext) (any, error) {
	report := h.status.Check(ctx)

	if !report.Healthy() {
		return nil, errs.NewApplicationError(http.StatusServiceUnavailable, errs.Messages{
			UserMessage: "Service unavailable",
			DevMessage:  "One or more dependencies are unhealthy",
			Data:        report,
		})
	}

	return report, nil
}
