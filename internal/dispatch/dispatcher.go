// Package dispatch turns inbound HTTP requests into operation calls.
//
// For every request the Dispatcher runs a fixed chain of checkpoints:
//
//	method -> body parse -> route lookup -> input validation
//	       -> execution -> output validation -> envelope
//
// The first failing checkpoint ends the chain with exactly one response.
// Every outcome, success or failure, is rendered as a JSON envelope, and
// the optional per-request database handle is released exactly once.
package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/deppfellow/go-dispatch/internal/database"
	"github.com/deppfellow/go-dispatch/internal/errs"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultMaxBodyBytes caps POST bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// Acquirer opens the per-request database handle.
type Acquirer func(ctx context.Context) (database.Handle, error)

// Dispatcher routes requests to registered operations.
type Dispatcher struct {
	registry     *Registry
	env          *Env
	acquire      Acquirer
	scheduler    Scheduler
	logger       *zerolog.Logger
	exposeDev    bool
	maxBodyBytes int64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithEnv sets the environment bindings handed to operations.
func WithEnv(env *Env) Option {
	return func(d *Dispatcher) {
		if env != nil {
			d.env = env
		}
	}
}

// WithAcquirer enables per-request database handles.
func WithAcquirer(acquire Acquirer) Option {
	return func(d *Dispatcher) {
		d.acquire = acquire
	}
}

// WithScheduler makes handle release run in the background.
func WithScheduler(s Scheduler) Option {
	return func(d *Dispatcher) {
		d.scheduler = s
	}
}

// WithLogger sets the fallback logger for requests whose context has none.
func WithLogger(logger *zerolog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDevMessages controls whether failure bodies keep devMessage and data.
func WithDevMessages(expose bool) Option {
	return func(d *Dispatcher) {
		d.exposeDev = expose
	}
}

// WithMaxBodyBytes caps POST bodies. Non-positive values keep the default.
func WithMaxBodyBytes(n int64) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxBodyBytes = n
		}
	}
}

// New creates a Dispatcher over registry.
func New(registry *Registry, opts ...Option) *Dispatcher {
	nop := zerolog.Nop()
	d := &Dispatcher{
		registry:     registry,
		env:          &Env{},
		logger:       &nop,
		exposeDev:    true,
		maxBodyBytes: DefaultMaxBodyBytes,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// ServeHTTP implements http.Handler.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := d.Dispatch(r)
	if err := resp.Write(w); err != nil {
		logger := d.requestLogger(r)
		logger.Warn().Err(err).Msg("failed to write response")
	}
}

// Dispatch runs the checkpoint chain for r and returns the response.
//
// It never returns nil: anything that escapes the chain, including
// panics and finalizer errors, becomes a bare 500 "Something went wrong".
func (d *Dispatcher) Dispatch(r *http.Request) (resp *Response) {
	start := time.Now()
	logger := d.requestLogger(r)

	defer func() {
		if rec := recover(); rec != nil {
			err := panicError(rec)
			logger.Error().Stack().
				Err(err).
				Dur("total_duration", time.Since(start)).
				Msg("dispatch panicked")
			noticeError(r.Context(), err)
			resp = Failure(errs.NewGlobalError(err))
		}
	}()

	resp, err := d.dispatch(r.Context(), r, logger)
	if err != nil {
		logger.Error().Stack().
			Err(err).
			Dur("total_duration", time.Since(start)).
			Msg("dispatch failed")
		noticeError(r.Context(), err)
		return Failure(errs.NewGlobalError(err))
	}

	event := logger.Info()
	if resp.Status >= 400 {
		event = logger.Debug()
	}
	event.
		Int("status", resp.Status).
		Dur("total_duration", time.Since(start)).
		Msg("request dispatched")

	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, r *http.Request, logger zerolog.Logger) (*Response, error) {
	txn := newrelic.FromContext(ctx)
	if txn != nil {
		txn.AddAttribute("dispatch.route", r.URL.Path)
	}

	raw, httpErr := d.parseInput(r)
	if httpErr != nil {
		return d.fail(ctx, logger, httpErr), nil
	}

	op, ok := d.registry.Lookup(r.URL.Path)
	if !ok {
		return d.fail(ctx, logger, errs.NewNotFoundError()), nil
	}

	if txn != nil {
		txn.AddAttribute("dispatch.kind", op.Kind.String())
	}

	ec := &ExecContext{
		Request:    r,
		Env:        d.env,
		Background: d.scheduler,
	}

	if d.acquire != nil {
		acquireStart := time.Now()
		handle, err := d.acquire(ctx)
		if err != nil {
			logger.Warn().
				Err(err).
				Dur("acquire_duration", time.Since(acquireStart)).
				Msg("request resource unavailable, continuing in degraded mode")
		} else {
			ec.DB = handle
			logger.Debug().
				Dur("acquire_duration", time.Since(acquireStart)).
				Msg("request resource acquired")
		}
	}

	// Closing must survive client disconnects.
	releaseCtx := context.WithoutCancel(ctx)
	fin := newFinalizer(ec.DB, d.scheduler)
	released := false
	defer func() {
		if !released {
			logReleaseError(logger, fin.run(releaseCtx), 0)
		}
	}()

	resp, err := d.run(ctx, op, raw, ec, logger)
	closeErr := fin.run(releaseCtx)
	released = true

	if err != nil {
		logReleaseError(logger, closeErr, 0)
		return nil, err
	}

	// A failed release only replaces a successful response; failures
	// keep their own envelope.
	if closeErr != nil {
		if resp.Status < http.StatusBadRequest {
			return nil, errors.Wrap(closeErr, "release request resource")
		}
		logReleaseError(logger, closeErr, resp.Status)
	}

	return resp, nil
}

func logReleaseError(logger zerolog.Logger, err error, status int) {
	if err == nil {
		return
	}

	event := logger.Warn().Err(err)
	if status != 0 {
		event = event.Int("status", status)
	}
	event.Msg("failed to release request resource")
}

// parseInput reads the operation input from the query string (GET) or
// the JSON body (POST).
func (d *Dispatcher) parseInput(r *http.Request) (any, *errs.HTTPError) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		input := make(map[string]string, len(query))
		for key, values := range query {
			if len(values) > 0 {
				input[key] = values[len(values)-1]
			}
		}
		return input, nil

	case http.MethodPost:
		body := r.Body
		if body == nil {
			body = http.NoBody
		}

		data, err := io.ReadAll(http.MaxBytesReader(nil, body, d.maxBodyBytes))
		if err != nil {
			return nil, errs.NewInvalidBodyError(err)
		}

		var input any
		if err := json.Unmarshal(data, &input); err != nil {
			return nil, errs.NewInvalidBodyError(err)
		}
		return input, nil

	default:
		return nil, errs.NewMethodNotAllowedError(r.Method)
	}
}

// run covers the checkpoints after acquisition: input validation,
// execution and output validation.
func (d *Dispatcher) run(ctx context.Context, op Operation, raw any, ec *ExecContext, logger zerolog.Logger) (*Response, error) {
	input := raw

	if op.Kind == KindSchema && op.Input != nil {
		validationStart := time.Now()
		validated, issues := op.Input.Validate(ctx, raw)
		validationDuration := time.Since(validationStart)

		if len(issues) > 0 {
			logger.Debug().
				Int("issues", len(issues)).
				Dur("validation_duration", validationDuration).
				Msg("input validation failed")
			return d.fail(ctx, logger, errs.NewInputValidationError(issues)), nil
		}

		logger.Debug().
			Dur("validation_duration", validationDuration).
			Msg("input validation successful")
		input = validated
	}

	handlerStart := time.Now()
	result, err := execute(ctx, op, input, ec)
	handlerDuration := time.Since(handlerStart)

	if err != nil {
		httpErr := errs.FromOperationError(err)
		logger.Debug().
			Err(err).
			Str("error_kind", string(httpErr.Kind)).
			Dur("handler_duration", handlerDuration).
			Msg("operation failed")
		return d.fail(ctx, logger, httpErr), nil
	}

	logger.Debug().
		Dur("handler_duration", handlerDuration).
		Msg("operation completed")

	if op.Kind == KindSchema && op.Output != nil {
		validated, issues := op.Output.Validate(ctx, result)
		if len(issues) > 0 {
			logger.Error().
				Interface("issues", issues).
				Msg("operation output does not match its schema")
			return d.fail(ctx, logger, errs.NewOutputContractError(issues)), nil
		}
		result = validated
	}

	resp, err := Success(result)
	if err != nil {
		return nil, errors.Wrap(err, "encode operation result")
	}

	return resp, nil
}

// execute calls the operation, turning a panic into an unexpected error.
func execute(ctx context.Context, op Operation, input any, ec *ExecContext) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = panicError(rec)
		}
	}()

	return op.Exec(ctx, input, ec)
}

// fail logs httpErr, reports server faults to New Relic and renders it.
func (d *Dispatcher) fail(ctx context.Context, logger zerolog.Logger, httpErr *errs.HTTPError) *Response {
	var event *zerolog.Event
	if httpErr.Status >= http.StatusInternalServerError {
		event = logger.Error().Stack()
		if cause := httpErr.Unwrap(); cause != nil {
			event = event.Err(cause)
		}
		noticeError(ctx, httpErr)
	} else {
		event = logger.Warn()
	}

	event.
		Int("status", httpErr.Status).
		Str("error_kind", string(httpErr.Kind)).
		Str("error_code", httpErr.Code()).
		Msg(httpErr.UserMessage)

	if !d.exposeDev {
		httpErr = Redact(httpErr)
	}

	return Failure(httpErr)
}

// requestLogger prefers the logger carried by the request context.
func (d *Dispatcher) requestLogger(r *http.Request) zerolog.Logger {
	logger := zerolog.Ctx(r.Context())
	if logger.GetLevel() == zerolog.Disabled {
		logger = d.logger
	}

	return logger.With().
		Str("operation", "dispatch").
		Str("route", r.URL.Path).
		Logger()
}

func noticeError(ctx context.Context, err error) {
	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.NoticeError(nrpkgerrors.Wrap(err))
	}
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return errors.WithStack(err)
	}
	return errors.Errorf("panic: %v", rec)
}
