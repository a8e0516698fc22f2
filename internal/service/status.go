package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/deppfellow/go-dispatch/internal/server"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	CheckDatabase = "database"
	CheckRedis    = "redis"
)

// CheckResult is the outcome of one dependency ping.
type CheckResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// StatusReport is the dependency report served by /status.
type StatusReport struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]CheckResult `json:"checks"`
}

// Healthy reports whether every required dependency answered.
func (r StatusReport) Healthy() bool {
	return r.Status == StatusHealthy
}

type dependency struct {
	name string
	ping func(ctx context.Context) error

	// required dependencies turn the report unhealthy when they fail.
	required bool
}

// StatusService pings the configured dependencies.
type StatusService struct {
	env     string
	timeout time.Duration
	deps    []dependency
	logger  *zerolog.Logger
	nrApp   *newrelic.Application
}

// NewStatusService checks the database and Redis of s, when configured.
// A dependency is required when it is listed in health_checks.checks.
func NewStatusService(s *server.Server) *StatusService {
	hc := s.Config.Observability.HealthChecks

	var deps []dependency
	if s.DB != nil {
		deps = append(deps, dependency{
			name:     CheckDatabase,
			ping:     s.DB.Ping,
			required: hc.Has(CheckDatabase),
		})
	}
	if s.Redis != nil {
		deps = append(deps, dependency{
			name: CheckRedis,
			ping: func(ctx context.Context) error {
				return s.Redis.Ping(ctx).Err()
			},
			required: hc.Has(CheckRedis),
		})
	}

	return newStatusService(s.Config.Primary.Env, hc.Timeout, s.Logger, s.LoggerService.GetApplication(), deps...)
}

func newStatusService(env string, timeout time.Duration, logger *zerolog.Logger, nrApp *newrelic.Application, deps ...dependency) *StatusService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &StatusService{
		env:     env,
		timeout: timeout,
		deps:    deps,
		logger:  logger,
		nrApp:   nrApp,
	}
}

// Check pings every dependency and builds the report.
func (s *StatusService) Check(ctx context.Context) StatusReport {
	return s.check(ctx, s.deps)
}

// Probe pings the named dependencies and fails when any required one is
// down. Unknown or unconfigured names are skipped.
func (s *StatusService) Probe(ctx context.Context, checks []string) error {
	var deps []dependency
	for _, dep := range s.deps {
		for _, name := range checks {
			if dep.name == name {
				deps = append(deps, dep)
				break
			}
		}
	}

	report := s.check(ctx, deps)
	if report.Healthy() {
		return nil
	}

	var failed []string
	for name, result := range report.Checks {
		if result.Status == StatusUnhealthy {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)

	return errors.Errorf("unhealthy dependencies: %s", strings.Join(failed, ", "))
}

func (s *StatusService) check(ctx context.Context, deps []dependency) StatusReport {
	start := time.Now()

	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = s.logger
	}
	l := logger.With().Str("operation", "health_check").Logger()

	report := StatusReport{
		Status:      StatusHealthy,
		Timestamp:   time.Now().UTC(),
		Environment: s.env,
		Checks:      make(map[string]CheckResult, len(deps)),
	}

	for _, dep := range deps {
		result, err := s.ping(ctx, dep)
		report.Checks[dep.name] = result

		if err != nil {
			if dep.required {
				report.Status = StatusUnhealthy
			}

			l.Error().
				Err(err).
				Str("check_type", dep.name).
				Str("response_time", result.ResponseTime).
				Msg(dep.name + " health check failed")

			s.recordEvent(map[string]interface{}{
				"check_type":    dep.name,
				"operation":     "health_check",
				"error_type":    dep.name + "_unhealthy",
				"error_message": err.Error(),
			})
			continue
		}

		l.Debug().
			Str("check_type", dep.name).
			Str("response_time", result.ResponseTime).
			Msg(dep.name + " health check passed")
	}

	if !report.Healthy() {
		l.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		s.recordEvent(map[string]interface{}{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})
	}

	return report
}

func (s *StatusService) ping(ctx context.Context, dep dependency) (CheckResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := dep.ping(ctx)
	elapsed := time.Since(start)

	if err != nil {
		return CheckResult{
			Status:       StatusUnhealthy,
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}, err
	}

	return CheckResult{
		Status:       StatusHealthy,
		ResponseTime: elapsed.String(),
	}, nil
}

func (s *StatusService) recordEvent(params map[string]interface{}) {
	if s.nrApp != nil {
		s.nrApp.RecordCustomEvent("HealthCheckError", params)
	}
}
