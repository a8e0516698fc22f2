package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskProbe is the job type name stored in Redis.
	TaskProbe = "health:probe"
)

// ProbePayload is the JSON payload of the probe task.
type ProbePayload struct {
	Checks []string `json:"checks"`
}

// NewProbeTask constructs the periodic dependency probe task.
//
// A missed probe is superseded by the next one, so it is never retried.
func NewProbeTask(checks []string, timeout time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(ProbePayload{Checks: checks})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskProbe,
		payload,
		asynq.MaxRetry(0),
		asynq.Queue("low"),
		asynq.Timeout(timeout),
	), nil
}
