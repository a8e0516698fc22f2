package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/deppfellow/go-dispatch/internal/dispatch"
	"github.com/deppfellow/go-dispatch/internal/service"
)

func TestStatus(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		report := healthyReport()
		report.Checks[service.CheckDatabase] = service.CheckResult{Status: service.StatusHealthy, ResponseTime: "1ms"}

		d := dispatch.New(dispatch.MustRegistry(newHandlers(report).Routes()))
		rec := get(t, d, "/status")
		body := rec.Body.String()

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", gjson.Get(body, "status").String())
		assert.Equal(t, "healthy", gjson.Get(body, "checks.database.status").String())
	})

	t.Run("unhealthy", func(t *testing.T) {
		report := healthyReport()
		report.Status = service.StatusUnhealthy
		report.Checks[service.CheckRedis] = service.CheckResult{Status: service.StatusUnhealthy, Error: "connection refused"}

		d := dispatch.New(dispatch.MustRegistry(newHandlers(report).Routes()))
		rec := get(t, d, "/status")
		body := rec.Body.String()

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "Service unavailable", gjson.Get(body, "error").String())
		assert.Equal(t, "connection refused", gjson.Get(body, "data.checks.redis.error").String())
	})

	t.Run("post is accepted", func(t *testing.T) {
		d := dispatch.New(dispatch.MustRegistry(newHandlers(healthyReport()).Routes()))
		rec := serveBody(t, d, http.MethodPost, "/status", `{}`)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
