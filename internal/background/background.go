// Package background runs fire-and-forget work that must outlive the
// request that scheduled it, such as closing a per-request database
// connection after the response has been sent.
//
// Work is tracked with an errgroup so server shutdown can wait for it.
package background

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Group schedules background work. The zero value is not usable; use NewGroup.
type Group struct {
	group  *errgroup.Group
	logger *zerolog.Logger
}

// NewGroup creates a Group that logs failed tasks to logger.
func NewGroup(logger *zerolog.Logger) *Group {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Group{
		group:  new(errgroup.Group),
		logger: logger,
	}
}

// Go runs fn in its own goroutine and returns immediately.
//
// fn receives a context that keeps ctx's values but is never canceled
// with it, so a client disconnect does not abort the work.
// Failures and panics are logged where they happen and are not kept.
func (g *Group) Go(ctx context.Context, fn func(context.Context) error) {
	detached := context.WithoutCancel(ctx)

	g.group.Go(func() error {
		defer func() {
			if rec := recover(); rec != nil {
				err := errors.Errorf("background task panicked: %v", rec)
				g.logger.Error().Stack().Err(err).Msg("background task panicked")
			}
		}()

		if err := fn(detached); err != nil {
			g.logger.Error().Err(err).Msg("background task failed")
		}
		return nil
	})
}

// Wait blocks until every scheduled task has finished or ctx is done.
// It only fails when ctx does.
func (g *Group) Wait(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- g.group.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
