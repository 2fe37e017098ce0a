package pool

import (
	"container/list"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/dbkit"
)

// Factory creates a new connection. It is supplied by the caller and is the
// only way the pool obtains connections. The context carries the configured
// create timeout.
type Factory func(ctx context.Context) (dbkit.Connection, error)

// PooledConnection is a tracked connection handle. The underlying connection
// is exclusively owned by the current holder between Acquire and Release,
// and by the pool while idle.
type PooledConnection struct {
	id        string
	conn      dbkit.Connection
	createdAt time.Time

	// Guarded by the owning pool's mutex.
	lastUsed time.Time
	inUse    bool
}

// ID returns the connection's stable unique identifier.
func (pc *PooledConnection) ID() string { return pc.id }

// Conn returns the underlying connection capability.
func (pc *PooledConnection) Conn() dbkit.Connection { return pc.conn }

// CreatedAt returns the creation time of the connection.
func (pc *PooledConnection) CreatedAt() time.Time { return pc.createdAt }

// infoLocked snapshots the bookkeeping fields. Caller holds the pool mutex,
// or otherwise guarantees the record cannot be mutated concurrently.
func (pc *PooledConnection) infoLocked() ConnInfo {
	return ConnInfo{
		ID:         pc.id,
		CreatedAt:  pc.createdAt,
		LastUsedAt: pc.lastUsed,
		InUse:      pc.inUse,
	}
}

// waiter is a queued, not-yet-satisfied acquire request. A releaser hands a
// connection over on the ready channel; the channel is buffered so hand-off
// never blocks the releaser.
type waiter struct {
	ready     chan *PooledConnection
	elem      *list.Element
	fulfilled bool // guarded by the pool mutex
}

// Pool is a bounded set of database connections with a FIFO waiting queue
// and background idle reclamation. All methods are safe for concurrent use.
type Pool struct {
	cfg     Config
	factory Factory
	log     *slog.Logger

	mu       sync.Mutex
	hooks    []Hooks
	conns    []*PooledConnection
	waiters  *list.List // of *waiter
	creating int        // in-flight factory calls, reserved against Max
	closed   bool

	done       chan struct{}
	reaperDone chan struct{}
}

// Option configures optional pool collaborators.
type Option func(*Pool)

// WithLogger sets the logger used for background failures (reaper, top-up,
// disconnects). Defaults to a discard handler.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.log = l
		}
	}
}

// WithHooks registers notification hooks at construction time.
func WithHooks(h Hooks) Option {
	return func(p *Pool) {
		p.hooks = append(p.hooks, h)
	}
}

// New creates a pool around the given factory. Connections are created
// lazily: on demand by Acquire and by the reaper's min top-up.
func New(factory Factory, cfg Config, opts ...Option) (*Pool, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}

	cfg = cfg.withDefaults()
	if cfg.Min > cfg.Max {
		return nil, ErrInvalidConfig
	}

	p := &Pool{
		cfg:     cfg,
		factory: factory,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		waiters: list.New(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	if cfg.ReapInterval > 0 {
		p.reaperDone = make(chan struct{})
		go p.reaper()
	}

	return p, nil
}

// Acquire returns a connection for exclusive use. It reuses an idle
// connection when one exists, creates a new one while below Max, and
// otherwise joins the FIFO waiting queue until a release hands a connection
// over, the configured acquire timeout fires, or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*PooledConnection, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	// The in-use flag is set in the same critical section in which the
	// connection is chosen, so concurrent acquires can never pick the
	// same idle connection.
	for _, pc := range p.conns {
		if !pc.inUse {
			pc.inUse = true
			pc.lastUsed = time.Now()
			info := pc.infoLocked()
			p.mu.Unlock()
			p.emitAcquire(info)
			return pc, nil
		}
	}

	// Below capacity: reserve a slot before unlocking so concurrent
	// acquires cannot overshoot Max while the factory runs.
	if len(p.conns)+p.creating < p.cfg.Max {
		p.creating++
		p.mu.Unlock()
		return p.acquireNew(ctx)
	}

	// At capacity: queue up.
	w := &waiter{ready: make(chan *PooledConnection, 1)}
	w.elem = p.waiters.PushBack(w)
	p.mu.Unlock()

	return p.waitForConn(ctx, w)
}

// acquireNew creates a connection against a previously reserved slot and
// hands it to the caller marked in-use.
func (p *Pool) acquireNew(ctx context.Context) (*PooledConnection, error) {
	pc, err := p.createConn(ctx)
	if err != nil {
		p.mu.Lock()
		p.creating--
		p.mu.Unlock()
		err = errors.Join(ErrConnectionCreateFailed, err)
		p.emitCreateError(err)
		return nil, err
	}

	p.mu.Lock()
	p.creating--
	if p.closed {
		p.mu.Unlock()
		p.disconnect(context.Background(), pc, pc.infoLocked())
		return nil, ErrPoolClosed
	}
	pc.inUse = true
	pc.lastUsed = time.Now()
	p.conns = append(p.conns, pc)
	info := pc.infoLocked()
	p.mu.Unlock()

	p.emitCreate(info)
	p.emitAcquire(info)
	return pc, nil
}

// createConn invokes the factory under the create timeout.
func (p *Pool) createConn(ctx context.Context) (*PooledConnection, error) {
	cctx, cancel := context.WithTimeout(ctx, p.cfg.CreateTimeout)
	defer cancel()

	conn, err := p.factory(cctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &PooledConnection{
		id:        uuid.NewString(),
		conn:      conn,
		createdAt: now,
		lastUsed:  now,
	}, nil
}

// waitForConn blocks until a releaser hands over a connection, the acquire
// timeout fires, ctx is done, or the pool shuts down.
func (p *Pool) waitForConn(ctx context.Context, w *waiter) (*PooledConnection, error) {
	timer := time.NewTimer(p.cfg.AcquireTimeout)
	defer timer.Stop()

	select {
	case pc := <-w.ready:
		return pc, nil

	case <-timer.C:
		if pc, handed := p.abandonWait(w); handed {
			// A release dequeued us before the timer was observed.
			return pc, nil
		}
		return nil, ErrAcquireTimeout

	case <-ctx.Done():
		if pc, handed := p.abandonWait(w); handed {
			// The hand-off raced the cancellation; return the
			// connection to the pool for the next waiter.
			p.Release(pc)
		}
		return nil, ctx.Err()

	case <-p.done:
		// Even if a hand-off raced the shutdown, the connection is
		// being torn down by DestroyPool; the pending send, if any,
		// lands in the buffered channel and is dropped with it.
		_, _ = p.abandonWait(w)
		return nil, ErrPoolClosed
	}
}

// abandonWait removes w from the queue by identity. If a releaser already
// dequeued w, the pending hand-off is honored instead: the connection is
// received and returned with handed=true.
func (p *Pool) abandonWait(w *waiter) (*PooledConnection, bool) {
	p.mu.Lock()
	if !w.fulfilled {
		p.waiters.Remove(w.elem)
		p.mu.Unlock()
		return nil, false
	}
	p.mu.Unlock()
	// The releaser marked us fulfilled before sending, and the channel is
	// buffered, so this receive cannot block indefinitely.
	return <-w.ready, true
}

// Release returns a connection to the pool. Unknown connections and releases
// after shutdown are ignored, so defensive double-release is harmless. If
// waiters are queued, the connection goes straight to the oldest one and
// never becomes observably idle.
func (p *Pool) Release(pc *PooledConnection) {
	if pc == nil {
		return
	}

	p.mu.Lock()
	if p.closed || p.indexLocked(pc) < 0 {
		p.mu.Unlock()
		return
	}
	pc.inUse = false
	pc.lastUsed = time.Now()
	released := pc.infoLocked()

	var (
		w        *waiter
		acquired ConnInfo
	)
	if front := p.waiters.Front(); front != nil {
		w = front.Value.(*waiter)
		w.fulfilled = true
		p.waiters.Remove(front)
		pc.inUse = true
		pc.lastUsed = time.Now()
		acquired = pc.infoLocked()
	}
	p.mu.Unlock()

	p.emitRelease(released)
	if w != nil {
		w.ready <- pc
		p.emitAcquire(acquired)
	}
}

// Destroy removes a connection from the pool and disconnects it. Unknown
// connections are ignored. Disconnect failures are reported through hooks
// and the logger but never revert the removal: a connection its owner marked
// dead must not remain falsely available.
func (p *Pool) Destroy(ctx context.Context, pc *PooledConnection) {
	if pc == nil {
		return
	}

	p.mu.Lock()
	idx := p.indexLocked(pc)
	if idx < 0 {
		p.mu.Unlock()
		return
	}
	p.conns = append(p.conns[:idx], p.conns[idx+1:]...)
	info := pc.infoLocked()
	p.mu.Unlock()

	_ = p.disconnect(ctx, pc, info)
}

// DestroyPool shuts the pool down: every queued waiter fails with
// ErrPoolClosed, the reaper stops, and all tracked connections (idle and
// in-use alike) are disconnected concurrently. Subsequent calls are no-ops,
// and Acquire fails fast afterwards.
func (p *Pool) DestroyPool(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	// Unlink every waiter so their own removal attempts become no-ops;
	// they observe the closed signal and fail fast.
	for e := p.waiters.Front(); e != nil; {
		next := e.Next()
		p.waiters.Remove(e)
		e = next
	}
	conns := p.conns
	p.conns = nil
	p.mu.Unlock()

	if p.reaperDone != nil {
		<-p.reaperDone
	}

	g := new(errgroup.Group)
	for _, pc := range conns {
		pc := pc
		g.Go(func() error {
			p.mu.Lock()
			info := pc.infoLocked()
			p.mu.Unlock()
			_ = p.disconnect(ctx, pc, info)
			return nil
		})
	}
	_ = g.Wait()

	return nil
}

// Use acquires a connection, runs fn with it, and releases it regardless of
// the outcome.
func (p *Pool) Use(ctx context.Context, fn func(conn dbkit.Connection) error) error {
	pc, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(pc)
	return fn(pc.Conn())
}

// Stats is a point-in-time snapshot of pool occupancy.
type Stats struct {
	Total   int
	InUse   int
	Idle    int
	Waiting int
	Min     int
	Max     int
}

// Stats reports current connection and waiter counts.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		Total:   len(p.conns),
		Waiting: p.waiters.Len(),
		Min:     p.cfg.Min,
		Max:     p.cfg.Max,
	}
	for _, pc := range p.conns {
		if pc.inUse {
			s.InUse++
		} else {
			s.Idle++
		}
	}
	return s
}

// disconnect closes the underlying connection under the destroy timeout and
// reports the outcome. Returns the disconnect error for callers that relay
// it to additional channels (e.g. reap errors).
func (p *Pool) disconnect(ctx context.Context, pc *PooledConnection, info ConnInfo) error {
	dctx, cancel := context.WithTimeout(ctx, p.cfg.DestroyTimeout)
	defer cancel()

	if err := pc.conn.Disconnect(dctx); err != nil {
		p.log.ErrorContext(ctx, "pool: disconnect failed",
			slog.String("conn_id", pc.id),
			slog.String("error", err.Error()),
		)
		p.emitDestroyError(info, err)
		return err
	}

	p.emitDestroy(info)
	return nil
}

// indexLocked returns the position of pc in the tracked list, or -1.
// Caller holds the pool mutex.
func (p *Pool) indexLocked(pc *PooledConnection) int {
	for i, c := range p.conns {
		if c == pc {
			return i
		}
	}
	return -1
}
