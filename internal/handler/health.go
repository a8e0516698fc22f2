package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/deppfellow/go-dispatch/internal/connector"
	"github.com/deppfellow/go-dispatch/internal/dispatch"
	"github.com/deppfellow/go-dispatch/internal/errs"
	"github.com/deppfellow/go-dispatch/internal/repository"
	"github.com/deppfellow/go-dispatch/internal/sqlerr"
	"github.com/deppfellow/go-dispatch/internal/validation"
)

// HealthInput is the query or body of /health.
type HealthInput struct {
	Fail bool `json:"fail"`
}

// HealthOutput is the /health response. ID is set when a probe row was written.
type HealthOutput struct {
	ID     string `json:"_id,omitempty" validate:"omitempty,uuid"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02T15:04:05.999999999Z07:00"`
	Status string `json:"status" validate:"required,eq=ok"`
}

// ProbeInserter writes a probe row. The probe connector implements it.
type ProbeInserter interface {
	InsertProbe(ctx context.Context) (repository.Probe, error)
}

// HealthHandler serves the liveness probe.
//
// It writes a probe row through the probe connector when one is
// registered, else through the request's database handle, else it
// answers from memory.
type HealthHandler struct {
	now func() time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{now: time.Now}
}

// Operation returns the schema-bundled /health operation.
func (h *HealthHandler) Operation() dispatch.Operation {
	return dispatch.Typed(
		validation.NewSchema[HealthInput](),
		validation.NewSchema[HealthOutput](),
		h.Check,
	)
}

func (h *HealthHandler) Check(ctx context.Context, in HealthInput, ec *dispatch.ExecContext) (HealthOutput, error) {
	if in.Fail {
		return HealthOutput{}, errs.NewApplicationError(http.StatusBadRequest, errs.Messages{
			UserMessage: "Health check failed due to input",
		})
	}

	probe, written, err := h.insertProbe(ctx, ec)
	if err != nil {
		return HealthOutput{}, sqlerr.HandleError(err)
	}

	out := HealthOutput{
		Date:   formatDate(h.now()),
		Status: "ok",
	}
	if written {
		out.ID = probe.ID
		out.Date = formatDate(probe.CreatedAt)
	}

	return out, nil
}

func (h *HealthHandler) insertProbe(ctx context.Context, ec *dispatch.ExecContext) (repository.Probe, bool, error) {
	var connectors *connector.Registry
	if ec.Env != nil {
		connectors = ec.Env.Connectors
	}

	inserter, err := connector.Get[ProbeInserter](connectors, connector.ProbeName)
	switch {
	case err == nil:
		probe, err := inserter.InsertProbe(ctx)
		return probe, err == nil, err
	case errors.Is(err, connector.ErrTypeMismatch):
		return repository.Probe{}, false, err
	}

	if ec.DB != nil {
		probe, err := repository.InsertProbe(ctx, ec.DB)
		return probe, err == nil, err
	}

	return repository.Probe{}, false, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
