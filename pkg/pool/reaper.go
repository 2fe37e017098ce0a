package pool

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// reaper periodically reclaims idle connections and restores the minimum
// pool size until the pool shuts down.
func (p *Pool) reaper() {
	defer close(p.reaperDone)

	ticker := time.NewTicker(p.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.Reap(context.Background())
		}
	}
}

// Reap runs a single reclamation cycle: idle connections past the idle
// timeout are destroyed down to Min, then connections are created until at
// least Min idle ones are live (never exceeding Max). Exported so tests and
// callers can drive a cycle deterministically; the background loop calls it
// on every tick. Failures are reported via hooks and the logger, never
// returned, since the loop runs unattended.
func (p *Pool) Reap(ctx context.Context) {
	p.reapIdle(ctx)
	p.ensureMin(ctx)
}

// reapIdle destroys expired idle connections. Victim selection and removal
// from the tracked list happen in one critical section, the same one Acquire
// claims connections under, so a connection claimed concurrently can never
// be picked.
func (p *Pool) reapIdle(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}

	now := time.Now()
	live := len(p.conns)
	var (
		victims []*PooledConnection
		infos   []ConnInfo
	)
	kept := make([]*PooledConnection, 0, live)
	for _, pc := range p.conns {
		expired := !pc.inUse && now.Sub(pc.lastUsed) > p.cfg.IdleTimeout
		if expired && live-len(victims) > p.cfg.Min {
			victims = append(victims, pc)
			infos = append(infos, pc.infoLocked())
			continue
		}
		kept = append(kept, pc)
	}
	p.conns = kept
	p.mu.Unlock()

	for i, pc := range victims {
		if err := p.disconnect(ctx, pc, infos[i]); err != nil {
			p.log.ErrorContext(ctx, "pool: reap cycle failed to destroy connection",
				slog.String("conn_id", pc.id),
				slog.String("error", err.Error()),
			)
			p.emitReapError(err)
		}
	}
}

// ensureMin creates connections until at least Min idle connections exist,
// bounded by Max. Freshly created connections are handed to queued waiters
// first. A creation failure ends the cycle; the next tick retries.
func (p *Pool) ensureMin(ctx context.Context) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		idle := 0
		for _, pc := range p.conns {
			if !pc.inUse {
				idle++
			}
		}
		if idle >= p.cfg.Min || len(p.conns)+p.creating >= p.cfg.Max {
			p.mu.Unlock()
			return
		}
		p.creating++
		p.mu.Unlock()

		pc, err := p.createConn(ctx)
		if err != nil {
			p.mu.Lock()
			p.creating--
			p.mu.Unlock()
			err = errors.Join(ErrConnectionCreateFailed, err)
			p.log.ErrorContext(ctx, "pool: min top-up failed",
				slog.String("error", err.Error()),
			)
			p.emitEnsureMinError(err)
			return
		}

		p.mu.Lock()
		p.creating--
		if p.closed {
			p.mu.Unlock()
			_ = p.disconnect(context.Background(), pc, pc.infoLocked())
			return
		}
		p.conns = append(p.conns, pc)

		// A queued waiter takes priority over parking the connection idle.
		var w *waiter
		if front := p.waiters.Front(); front != nil {
			w = front.Value.(*waiter)
			w.fulfilled = true
			p.waiters.Remove(front)
			pc.inUse = true
			pc.lastUsed = time.Now()
		}
		info := pc.infoLocked()
		p.mu.Unlock()

		p.emitCreate(info)
		if w != nil {
			w.ready <- pc
			p.emitAcquire(info)
		}
	}
}
