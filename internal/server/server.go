// Package server defines the core Server struct that composes the app's main dependencies.
//
// It contains the initialization logic to spin up the HTTP server
// and handles graceful shutdowns.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - database pool (optional)
//   - redis client (optional)
//   - background job worker server (asynq, optional)
//   - background group for deferred request work
//   - connector registry
//   - http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/go-dispatch/internal/background"
	"github.com/deppfellow/go-dispatch/internal/config"
	"github.com/deppfellow/go-dispatch/internal/connector"
	"github.com/deppfellow/go-dispatch/internal/database"
	"github.com/deppfellow/go-dispatch/internal/lib/job"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/go-dispatch/internal/logger"
)

// RedisPingTimeout bounds the startup Redis ping.
const RedisPingTimeout = 5 * time.Second

// Server is the application container that holds shared resources.
//
// It is not the HTTP server itself. Optional dependencies are nil when
// they are not configured.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService

	// DB is the shared pool used by connectors. Nil without a database.
	DB *database.Database

	// Redis is nil without a Redis address.
	Redis *redis.Client

	// Job runs the periodic dependency probe. Nil unless Redis and
	// health checks are both enabled.
	Job *job.JobService

	// Background runs deferred request work, such as closing
	// per-request connections. Shutdown waits for it.
	Background *background.Group

	// Connectors holds long-lived named handles for operations.
	Connectors *connector.Registry

	httpServer *http.Server
}

// New constructs a Server and initializes core dependencies.
//
// It does NOT start the HTTP server. That is done in SetupHTTPServer + Start.
//
// Notes:
//   - A database that is configured but unreachable fails startup.
//   - Redis connection failure does not block startup (it logs and continues).
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	s := &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		Background:    background.NewGroup(logger),
		Connectors:    connector.NewRegistry(),
	}

	if cfg.Database.Enabled() {
		db, err := database.New(cfg, logger, loggerService)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		s.DB = db
	} else {
		logger.Warn().Msg("no database configured, operations run in degraded mode")
	}

	if cfg.Redis.Enabled() {
		s.Redis = newRedisClient(cfg, logger, loggerService)

		if cfg.Observability.HealthChecks.Enabled {
			s.Job = job.NewJobService(logger, cfg)
		}
	}

	return s, nil
}

func newRedisClient(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) *redis.Client {
	// Redis connections are lazy; NewClient does not dial.
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	if loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), RedisPingTimeout)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("failed to connect to Redis, continuing without Redis")
	}

	return redisClient
}

// RequestAcquirer returns the per-request connection opener, or nil when
// per-request connections are off or no database is configured.
func (s *Server) RequestAcquirer() func(ctx context.Context) (database.Handle, error) {
	if !s.Config.Database.Enabled() || !s.Config.Database.PerRequestConn {
		return nil
	}
	return database.Acquirer(s.Config, s.Logger, s.LoggerService)
}

// StartJobs wires the probe handler and starts the job server.
// It is a no-op when jobs are disabled.
func (s *Server) StartJobs(prober job.Prober) error {
	if s.Job == nil {
		return nil
	}

	s.Job.InitHandlers(prober)
	return s.Job.Start()
}

// SetupHTTPServer configures the internal net/http server.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It blocks until the server stops.
//
// It requires SetupHTTPServer to be called first.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// ShutdownTimeout is the configured bound for Shutdown.
func (s *Server) ShutdownTimeout() time.Duration {
	return time.Duration(s.Config.Server.ShutdownTimeout) * time.Second
}

// Shutdown gracefully shuts down the server and its dependencies.
//
// Order:
//   - stop accepting requests and drain in-flight ones
//   - wait for deferred request work (connection closes)
//   - stop background jobs
//   - close the database pool and the Redis client
//
// Every step runs even when an earlier one fails; the errors are joined.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}

	if err := s.Background.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("background work: %w", err))
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	return errors.Join(errs...)
}
