package service

import (
	"github.com/deppfellow/go-dispatch/internal/lib/job"
	"github.com/deppfellow/go-dispatch/internal/server"
)

// Services is a container for all business services.
type Services struct {
	Status *StatusService
	Job    *job.JobService
}

// NewServices constructs the service container.
func NewServices(s *server.Server) (*Services, error) {
	return &Services{
		Status: NewStatusService(s),
		Job:    s.Job,
	}, nil
}
