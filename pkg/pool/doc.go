// Package pool provides a bounded database connection pool with a FIFO
// waiting queue, background idle reclamation, and per-connection health
// checks.
//
// The pool owns a set of opaque [github.com/dmitrymomot/dbkit.Connection]
// capabilities produced by a caller-supplied [Factory]. At most Max
// connections are ever live; acquires beyond that bound queue up and are
// satisfied strictly first-in-first-out as connections are released.
//
// # Usage
//
//	p, err := pool.New(factory, pool.Config{Min: 2, Max: 10})
//	if err != nil {
//		return err
//	}
//	defer p.DestroyPool(context.Background())
//
//	conn, err := p.Acquire(ctx)
//	if err != nil {
//		return err
//	}
//	defer p.Release(conn)
//
// Or with guaranteed release:
//
//	err := p.Use(ctx, func(conn dbkit.Connection) error {
//		_, err := conn.Exec(ctx, "UPDATE ...")
//		return err
//	})
//
// # Reaper
//
// A background goroutine fires every Config.ReapInterval: idle connections
// older than Config.IdleTimeout are destroyed (never below Min, never while
// checked out), and new connections are created while fewer than Min idle
// ones exist. Reaper failures are reported via [Hooks] and the configured
// logger; they never stop the loop. [Pool.Reap] runs one cycle synchronously
// for deterministic tests.
//
// # Errors
//
// [ErrAcquireTimeout] means "try again later"; [ErrPoolClosed] means "stop
// retrying". Releasing an unknown or already-released connection is a no-op
// so defensive double-release in caller cleanup paths stays harmless.
//
// # Observability
//
// Lifecycle notifications (acquire, release, create, destroy, and their
// failure variants) are delivered to [Hooks] callbacks registered via
// [WithHooks] or [Pool.Subscribe]. They are fire-and-forget and not part of
// the control-flow contract.
package pool
