package router_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/deppfellow/go-dispatch/internal/background"
	"github.com/deppfellow/go-dispatch/internal/config"
	"github.com/deppfellow/go-dispatch/internal/connector"
	"github.com/deppfellow/go-dispatch/internal/handler"
	"github.com/deppfellow/go-dispatch/internal/logger"
	"github.com/deppfellow/go-dispatch/internal/middleware"
	"github.com/deppfellow/go-dispatch/internal/router"
	"github.com/deppfellow/go-dispatch/internal/server"
	"github.com/deppfellow/go-dispatch/internal/service"
)

type fakeStatus struct{}

func (fakeStatus) Check(context.Context) service.StatusReport {
	return service.StatusReport{Status: service.StatusHealthy, Checks: map[string]service.CheckResult{}}
}

func newTestServer(buf *bytes.Buffer, exposeDev bool) *server.Server {
	cfg := &config.Config{
		Primary:       config.Primary{Env: "test"},
		Server:        config.ServerConfig{Port: "0", ShutdownTimeout: 1},
		Dispatch:      config.DispatchConfig{MaxBodyBytes: 1 << 10, ExposeDevMessages: exposeDev},
		Observability: config.DefaultObservabilityConfig(),
	}

	log := zerolog.New(buf)

	return &server.Server{
		Config:        cfg,
		Logger:        &log,
		LoggerService: logger.NewLoggerService(cfg.Observability),
		Background:    background.NewGroup(&log),
		Connectors:    connector.NewRegistry(),
	}
}

func newTestRouter(t *testing.T, buf *bytes.Buffer, exposeDev bool) http.Handler {
	t.Helper()

	h := &handler.Handlers{
		Health: handler.NewHealthHandler(),
		Status: handler.NewStatusHandler(fakeStatus{}),
	}

	r, err := router.NewRouter(newTestServer(buf, exposeDev), h)
	require.NoError(t, err)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouter_dispatches_operations(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRouter(t, &buf, true)

	tests := map[string]struct {
		method string
		target string
		body   string
		status int
	}{
		"root":           {method: http.MethodGet, target: "/", status: http.StatusOK},
		"health":         {method: http.MethodGet, target: "/health", status: http.StatusOK},
		"health post":    {method: http.MethodPost, target: "/health", body: `{"fail":false}`, status: http.StatusOK},
		"health failure": {method: http.MethodGet, target: "/health?fail=true", status: http.StatusBadRequest},
		"status":         {method: http.MethodGet, target: "/status", status: http.StatusOK},
		"unknown":        {method: http.MethodGet, target: "/nope/deeper", status: http.StatusNotFound},
		"put":            {method: http.MethodPut, target: "/health", status: http.StatusMethodNotAllowed},
		"bad json":       {method: http.MethodPost, target: "/health", body: `{`, status: http.StatusBadRequest},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(r, tc.method, tc.target, tc.body)

			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestRouter_unroutable_method_uses_envelope(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRouter(t, &buf, true)

	rec := do(r, "BREW", "/health", "")
	body := rec.Body.String()

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", gjson.Get(body, "error").String())
	assert.Equal(t, "Method BREW is not supported", gjson.Get(body, "devMessage").String())
}

func TestRouter_hardened_error_handler(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRouter(t, &buf, false)

	rec := do(r, "BREW", "/health", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
}

func TestRouter_request_id(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRouter(t, &buf, true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "upstream-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-42", rec.Header().Get(middleware.RequestIDHeader))

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if gjson.Get(line, "message").String() == "request dispatched" {
			found = true
			assert.Equal(t, "upstream-42", gjson.Get(line, "request_id").String())
			assert.Equal(t, "/health", gjson.Get(line, "route").String())
		}
	}
	assert.True(t, found, buf.String())
}

func TestRouter_api_log_line(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRouter(t, &buf, true)

	do(r, http.MethodGet, "/nope", "")

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if gjson.Get(line, "message").String() == "API" {
			found = true
			assert.Equal(t, int64(http.StatusNotFound), gjson.Get(line, "status").Int())
			assert.Equal(t, "warn", gjson.Get(line, "level").String())
		}
	}
	assert.True(t, found, buf.String())
}

func TestNewRouter_logs_registry(t *testing.T) {
	var buf bytes.Buffer
	s := newTestServer(&buf, true)
	require.NoError(t, s.Connectors.Register(connector.ProbeName, struct{}{}))

	h := &handler.Handlers{
		Health: handler.NewHealthHandler(),
		Status: handler.NewStatusHandler(fakeStatus{}),
	}

	_, err := router.NewRouter(s, h)
	require.NoError(t, err)

	line := strings.Split(strings.TrimSpace(buf.String()), "\n")[0]
	assert.Equal(t, "operation registry ready", gjson.Get(line, "message").String())
	assert.Equal(t, `["/","/health","/status"]`, gjson.Get(line, "routes").Raw)
	assert.Equal(t, `["probe-connector"]`, gjson.Get(line, "connectors").Raw)
}
