package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deppfellow/go-dispatch/internal/connector"
	"github.com/deppfellow/go-dispatch/internal/database"
	"github.com/deppfellow/go-dispatch/internal/handler"
	"github.com/deppfellow/go-dispatch/internal/repository"
	"github.com/deppfellow/go-dispatch/internal/router"
	"github.com/deppfellow/go-dispatch/internal/server"
	"github.com/deppfellow/go-dispatch/internal/service"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.Database.Enabled() && a.cfg.Database.MigrateOnStart {
		if err := database.Migrate(ctx, &a.log, a.cfg); err != nil {
			return a.fail(err, "failed to migrate database")
		}
	}

	srv, err := server.New(a.cfg, &a.log, a.loggerService)
	if err != nil {
		return a.fail(err, "failed to initialize server")
	}

	repos := repository.NewRepositories(srv)
	if repos.Probe != nil {
		if err := srv.Connectors.Register(connector.ProbeName, repos.Probe); err != nil {
			return a.fail(err, "failed to register probe connector")
		}
	}

	services, err := service.NewServices(srv)
	if err != nil {
		return a.fail(err, "could not create services")
	}

	if err := srv.StartJobs(services.Status); err != nil {
		return a.fail(err, "failed to start background jobs")
	}

	handlers := handler.NewHandlers(services)

	r, err := router.NewRouter(srv, handlers)
	if err != nil {
		return a.fail(err, "failed to build router")
	}

	srv.SetupHTTPServer(r)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		a.log.Error().Err(err).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), srv.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return a.fail(err, "server forced to shutdown")
	}

	a.log.Info().Msg("server exited properly")
	return nil
}

func (a *app) fail(err error, msg string) error {
	a.log.Error().Err(err).Msg(msg)
	return fmt.Errorf("%s: %w", msg, err)
}
