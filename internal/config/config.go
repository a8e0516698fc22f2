// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file,
// when present), loads them into structured Go types, applies defaults
// and validates that required values are present so they can be reused
// across the application runtime.
//
// Keys use the DISPATCH_ prefix and a double underscore for nesting:
//
//	DISPATCH_SERVER__PORT=8080           -> server.port
//	DISPATCH_DATABASE__PER_REQUEST_CONN  -> database.per_request_conn
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	// Side-effect import: loads a `.env` file into the process env, if one exists.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is the prefix every configuration variable carries.
	EnvPrefix = "DISPATCH_"

	// ServiceName labels logs, traces and database sessions.
	ServiceName = "go-dispatch"
)

// Config is the root configuration object for the application.
//
// Database and Redis are optional: an empty host/address turns the
// dependency off and the service runs in degraded mode.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database"`
	Redis         RedisConfig          `koanf:"redis"`
	Dispatch      DispatchConfig       `koanf:"dispatch"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"min=1"`
	ShutdownTimeout    int      `koanf:"shutdown_timeout" validate:"min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
// Durations are in seconds.
type DatabaseConfig struct {
	Host            string `koanf:"host"`
	Port            int    `koanf:"port" validate:"required_with=Host"`
	User            string `koanf:"user" validate:"required_with=Host"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required_with=Host"`
	SSLMode         string `koanf:"ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"min=0"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"min=0"`
	ConnectTimeout  int    `koanf:"connect_timeout" validate:"min=1"`

	// PerRequestConn opens a dedicated connection for every dispatched
	// request and closes it when the request is done.
	PerRequestConn bool `koanf:"per_request_conn"`

	// MigrateOnStart applies the embedded migrations before serving.
	MigrateOnStart bool `koanf:"migrate_on_start"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// RedisConfig contains Redis connection details.
// Address is typically "host:port".
type RedisConfig struct {
	Address string `koanf:"address"`
}

// Enabled reports whether Redis is configured.
func (c RedisConfig) Enabled() bool {
	return c.Address != ""
}

// DispatchConfig tunes the request dispatcher.
type DispatchConfig struct {
	// MaxBodyBytes caps POST bodies; larger bodies are rejected as invalid JSON.
	MaxBodyBytes int64 `koanf:"max_body_bytes" validate:"min=1"`

	// ExposeDevMessages controls whether failure bodies carry devMessage and data.
	// Hardened deployments turn it off.
	ExposeDevMessages bool `koanf:"expose_dev_messages"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.read_timeout":                                 30,
		"server.write_timeout":                                30,
		"server.idle_timeout":                                 60,
		"server.shutdown_timeout":                             30,
		"database.port":                                       5432,
		"database.ssl_mode":                                   "disable",
		"database.max_open_conns":                             10,
		"database.max_idle_conns":                             2,
		"database.conn_max_lifetime":                          3600,
		"database.conn_max_idle_time":                         300,
		"database.connect_timeout":                            5,
		"dispatch.max_body_bytes":                             1 << 20,
		"dispatch.expose_dev_messages":                        true,
		"observability.logging.level":                         "info",
		"observability.logging.format":                        "json",
		"observability.logging.slow_query_threshold":          "100ms",
		"observability.new_relic.app_log_forwarding_enabled":  true,
		"observability.new_relic.distributed_tracing_enabled": true,
		"observability.health_checks.enabled":                 true,
		"observability.health_checks.interval":                "30s",
		"observability.health_checks.timeout":                 "5s",
		"observability.health_checks.checks":                  []string{"database", "redis"},
	}
}

// envKey maps DISPATCH_DATABASE__SSL_MODE to database.ssl_mode.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// LoadConfig loads configuration from environment variables, unmarshals it
// into Config, applies defaults and validates the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("could not load config defaults: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	err := k.UnmarshalWithConf("", mainConfig, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment are not configurable on their own.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
