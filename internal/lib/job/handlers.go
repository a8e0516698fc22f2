package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Prober runs the dependency checks named in checks.
type Prober interface {
	Probe(ctx context.Context, checks []string) error
}

// InitHandlers sets the dependencies required by job handlers.
func (j *JobService) InitHandlers(prober Prober) {
	j.prober = prober
}

// handleProbeTask runs one dependency probe.
//
// The error is only logged: returning it would make Asynq archive
// every failed probe.
func (j *JobService) handleProbeTask(ctx context.Context, t *asynq.Task) error {
	var p ProbePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal probe payload: %w", err)
	}

	start := time.Now()
	if err := j.prober.Probe(ctx, p.Checks); err != nil {
		j.logger.Warn().
			Str("type", TaskProbe).
			Strs("checks", p.Checks).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("dependency probe failed")
		return nil
	}

	j.logger.Debug().
		Str("type", TaskProbe).
		Strs("checks", p.Checks).
		Dur("duration", time.Since(start)).
		Msg("dependency probe passed")

	return nil
}
