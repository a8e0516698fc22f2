package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/go-dispatch/internal/config"
)

func TestLoadConfig_defaults(t *testing.T) {
	t.Setenv("DISPATCH_PRIMARY__ENV", "local")
	t.Setenv("DISPATCH_SERVER__PORT", "8080")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Primary.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Server.ReadTimeout)
	assert.Equal(t, 60, cfg.Server.IdleTimeout)

	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Redis.Enabled())

	assert.Equal(t, int64(1<<20), cfg.Dispatch.MaxBodyBytes)
	assert.True(t, cfg.Dispatch.ExposeDevMessages)

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, config.ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, "local", cfg.Observability.Environment)
	assert.Equal(t, 30*time.Second, cfg.Observability.HealthChecks.Interval)
	assert.False(t, cfg.Observability.NewRelic.Enabled())
}

func TestLoadConfig_overrides(t *testing.T) {
	t.Setenv("DISPATCH_PRIMARY__ENV", "production")
	t.Setenv("DISPATCH_SERVER__PORT", "9000")
	t.Setenv("DISPATCH_SERVER__CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DISPATCH_DATABASE__HOST", "db.internal")
	t.Setenv("DISPATCH_DATABASE__USER", "dispatch")
	t.Setenv("DISPATCH_DATABASE__NAME", "dispatch")
	t.Setenv("DISPATCH_DATABASE__PER_REQUEST_CONN", "true")
	t.Setenv("DISPATCH_DISPATCH__EXPOSE_DEV_MESSAGES", "false")
	t.Setenv("DISPATCH_OBSERVABILITY__HEALTH_CHECKS__INTERVAL", "1m")
	t.Setenv("DISPATCH_OBSERVABILITY__HEALTH_CHECKS__CHECKS", "database")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.True(t, cfg.Database.Enabled())
	assert.True(t, cfg.Database.PerRequestConn)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.Dispatch.ExposeDevMessages)
	assert.Equal(t, time.Minute, cfg.Observability.HealthChecks.Interval)
	assert.True(t, cfg.Observability.HealthChecks.Has("database"))
	assert.False(t, cfg.Observability.HealthChecks.Has("redis"))
	assert.True(t, cfg.Observability.IsProduction())
}

func TestLoadConfig_errors(t *testing.T) {
	tests := map[string]map[string]string{
		"missing port": {
			"DISPATCH_PRIMARY__ENV": "local",
		},
		"missing env": {
			"DISPATCH_SERVER__PORT": "8080",
		},
		"database host without user": {
			"DISPATCH_PRIMARY__ENV":   "local",
			"DISPATCH_SERVER__PORT":   "8080",
			"DISPATCH_DATABASE__HOST": "db.internal",
			"DISPATCH_DATABASE__NAME": "dispatch",
		},
		"bad log level": {
			"DISPATCH_PRIMARY__ENV":                  "local",
			"DISPATCH_SERVER__PORT":                  "8080",
			"DISPATCH_OBSERVABILITY__LOGGING__LEVEL": "loud",
		},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}

			_, err := config.LoadConfig()
			assert.Error(t, err)
		})
	}
}
