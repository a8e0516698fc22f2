package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const insertProbeSQL = `INSERT INTO health_probes DEFAULT VALUES RETURNING id::text, created_at`

// Probe is one row of health_probes.
type Probe struct {
	ID        string
	CreatedAt time.Time
}

// InsertProbe writes a probe row through q and returns it.
func InsertProbe(ctx context.Context, q QueryRower) (Probe, error) {
	var p Probe
	if err := q.QueryRow(ctx, insertProbeSQL).Scan(&p.ID, &p.CreatedAt); err != nil {
		return Probe{}, fmt.Errorf("insert probe: %w", err)
	}
	return p, nil
}

// ProbeRepository writes probes on the shared pool. It is registered as
// the probe connector.
type ProbeRepository struct {
	pool *pgxpool.Pool
}

func NewProbeRepository(pool *pgxpool.Pool) *ProbeRepository {
	return &ProbeRepository{pool: pool}
}

// InsertProbe writes a probe row on the pool.
func (r *ProbeRepository) InsertProbe(ctx context.Context) (Probe, error) {
	return InsertProbe(ctx, r.pool)
}
