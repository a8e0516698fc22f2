package repository

import (
	"github.com/deppfellow/go-dispatch/internal/server"
)

// Repositories is a container for all repository instances.
// Fields are nil when their backing store is not configured.
type Repositories struct {
	Probe *ProbeRepository
}

// NewRepositories constructs the repository container.
func NewRepositories(s *server.Server) *Repositories {
	repos := &Repositories{}
	if s.DB != nil {
		repos.Probe = NewProbeRepository(s.DB.Pool)
	}
	return repos
}
