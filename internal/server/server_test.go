package server

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/go-dispatch/internal/config"
	loggerPkg "github.com/deppfellow/go-dispatch/internal/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Primary: config.Primary{Env: "test"},
		Server: config.ServerConfig{
			Port:            "0",
			ReadTimeout:     1,
			WriteTimeout:    1,
			IdleTimeout:     1,
			ShutdownTimeout: 2,
		},
		Observability: config.DefaultObservabilityConfig(),
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	logger := zerolog.Nop()
	s, err := New(cfg, &logger, loggerPkg.NewLoggerService(cfg.Observability))
	require.NoError(t, err)
	return s
}

func TestNew_without_dependencies(t *testing.T) {
	s := newTestServer(t, testConfig())

	assert.Nil(t, s.DB)
	assert.Nil(t, s.Redis)
	assert.Nil(t, s.Job)
	assert.NotNil(t, s.Background)
	assert.NotNil(t, s.Connectors)
	assert.Nil(t, s.RequestAcquirer())
	assert.NoError(t, s.StartJobs(nil))
}

func TestRequestAcquirer_requires_flag(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Host = "db.internal"

	s := &Server{Config: cfg}
	assert.Nil(t, s.RequestAcquirer())

	cfg.Database.PerRequestConn = true
	assert.NotNil(t, s.RequestAcquirer())
}

func TestStart_requires_setup(t *testing.T) {
	s := newTestServer(t, testConfig())

	assert.EqualError(t, s.Start(), "HTTP server not initialized")
}

func TestShutdown_waits_for_background_work(t *testing.T) {
	s := newTestServer(t, testConfig())

	done := make(chan struct{})
	s.Background.Go(context.Background(), func(context.Context) error {
		close(done)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout())
	defer cancel()

	require.NoError(t, s.Shutdown(ctx))
	select {
	case <-done:
	default:
		t.Fatal("shutdown returned before background work finished")
	}
}

func TestShutdown_ignores_failed_background_work(t *testing.T) {
	s := newTestServer(t, testConfig())

	s.Background.Go(context.Background(), func(context.Context) error {
		return errors.New("connection reset")
	})
	require.NoError(t, s.Background.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout())
	defer cancel()

	assert.NoError(t, s.Shutdown(ctx))
}
