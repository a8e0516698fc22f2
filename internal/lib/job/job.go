// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue:
//   - a scheduler enqueues the periodic dependency probe (producer)
//   - a server runs the workers that process it (consumer)
package job

import (
	"fmt"
	"time"

	"github.com/deppfellow/go-dispatch/internal/config"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// JobService holds the Asynq client, scheduler and worker server.
type JobService struct {
	// Client is used to enqueue tasks into Redis.
	Client *asynq.Client

	server    *asynq.Server
	scheduler *asynq.Scheduler
	logger    *zerolog.Logger

	prober   Prober
	checks   []string
	interval time.Duration
	timeout  time.Duration
}

// NewJobService creates a JobService configured to use Redis from cfg.
//
// Queue weights give the "critical" queue the largest worker share; the
// probe runs on "low" so it never starves real work.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}
	asynqLog := newAsynqLogger(logger)

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		Logger: asynqLog,
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger:   asynqLog,
		Location: time.UTC,
	})

	hc := cfg.Observability.HealthChecks

	return &JobService{
		Client:    asynq.NewClient(redisOpt),
		server:    server,
		scheduler: scheduler,
		logger:    logger,
		checks:    hc.Checks,
		interval:  hc.Interval,
		timeout:   hc.Timeout,
	}
}

// Start registers the task handlers, starts the worker server and
// schedules the probe every configured interval.
func (j *JobService) Start() error {
	if j.prober == nil {
		return fmt.Errorf("job handlers not initialized")
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskProbe, j.handleProbeTask)

	j.logger.Info().Msg("starting background job server")

	if err := j.server.Start(mux); err != nil {
		return err
	}

	task, err := NewProbeTask(j.checks, j.timeout)
	if err != nil {
		j.server.Shutdown()
		return err
	}

	entryID, err := j.scheduler.Register(cronEvery(j.interval), task)
	if err != nil {
		j.server.Shutdown()
		return fmt.Errorf("failed to schedule probe task: %w", err)
	}

	if err := j.scheduler.Start(); err != nil {
		j.server.Shutdown()
		return fmt.Errorf("failed to start job scheduler: %w", err)
	}

	j.logger.Info().
		Str("entry_id", entryID).
		Dur("interval", j.interval).
		Msg("scheduled dependency probe")

	return nil
}

// Stop shuts down the scheduler, then the workers, then the client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.scheduler.Shutdown()
	j.server.Shutdown()
	if err := j.Client.Close(); err != nil {
		j.logger.Warn().Err(err).Msg("failed to close job client")
	}
}

func cronEvery(interval time.Duration) string {
	if interval < time.Second {
		interval = time.Second
	}
	return "@every " + interval.String()
}
