package logger

import (
	"bytes"
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/deppfellow/go-dispatch/internal/config"
)

func TestNewLogger_json(t *testing.T) {
	cfg := config.DefaultObservabilityConfig()
	cfg.Environment = "production"
	cfg.Logging.Level = "warn"

	var buf bytes.Buffer
	log := newLogger(cfg, NewLoggerService(cfg), &buf)

	log.Info().Msg("dropped")
	log.Warn().Str("route", "/health").Msg("kept")

	out := buf.String()
	require.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
	assert.Equal(t, "kept", gjson.Get(out, "message").String())
	assert.Equal(t, "/health", gjson.Get(out, "route").String())
	assert.Equal(t, config.ServiceName, gjson.Get(out, "service").String())
	assert.Equal(t, "production", gjson.Get(out, "environment").String())
}

func TestLoggerService_disabled(t *testing.T) {
	cfg := config.DefaultObservabilityConfig()

	svc := NewLoggerService(cfg)

	assert.Nil(t, svc.GetApplication())
	assert.NotPanics(t, svc.Shutdown)

	var nilService *LoggerService
	assert.Nil(t, nilService.GetApplication())
}

func TestWithTraceContext_without_transaction(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	traced := WithTraceContext(log, nil)
	traced.Info().Msg("x")

	assert.False(t, gjson.Get(buf.String(), "trace\\.id").Exists())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestGetPgxTraceLogLevel(t *testing.T) {
	assert.Equal(t, int(tracelog.LogLevelDebug), GetPgxTraceLogLevel(zerolog.DebugLevel))
	assert.Equal(t, int(tracelog.LogLevelWarn), GetPgxTraceLogLevel(zerolog.WarnLevel))
	assert.Equal(t, int(tracelog.LogLevelNone), GetPgxTraceLogLevel(zerolog.Disabled))
}
