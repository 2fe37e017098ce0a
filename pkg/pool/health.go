package pool

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Health is the outcome of a pool-wide liveness check, partitioning tracked
// connections by whether they answered a trivial query.
type Health struct {
	// Healthy is true when no connection failed the check and at least
	// Min connections are live.
	Healthy      bool
	HealthyIDs   []string
	UnhealthyIDs []string
}

// Healthcheck issues a trivial liveness query against every tracked
// connection in parallel. Checked-out connections are probed too; callers
// that issue statements serially on one connection should run health checks
// during quiet periods.
func (p *Pool) Healthcheck(ctx context.Context) Health {
	p.mu.Lock()
	snapshot := make([]*PooledConnection, len(p.conns))
	copy(snapshot, p.conns)
	p.mu.Unlock()

	var (
		mu        sync.Mutex
		healthy   []string
		unhealthy []string
	)

	g := new(errgroup.Group)
	for _, pc := range snapshot {
		pc := pc
		g.Go(func() error {
			rows, err := pc.conn.Query(ctx, "SELECT 1")
			if err == nil {
				rows.Close()
				err = rows.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				unhealthy = append(unhealthy, pc.id)
			} else {
				healthy = append(healthy, pc.id)
			}
			return nil
		})
	}
	_ = g.Wait()

	return Health{
		Healthy:      len(unhealthy) == 0 && len(snapshot) >= p.cfg.Min,
		HealthyIDs:   healthy,
		UnhealthyIDs: unhealthy,
	}
}
