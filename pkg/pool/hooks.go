package pool

import "time"

// ConnInfo is an immutable snapshot of a pooled connection's bookkeeping,
// passed to hook callbacks.
type ConnInfo struct {
	ID         string
	CreatedAt  time.Time
	LastUsedAt time.Time
	InUse      bool
}

// Hooks carries fire-and-forget notification callbacks for pool events.
// Nil callbacks are skipped. Hooks are invoked synchronously outside the
// pool's internal lock, after the state transition they describe; they are
// not part of the control-flow contract and must not block for long.
type Hooks struct {
	// OnAcquire fires when a connection is handed to a caller, including
	// direct hand-off to a queued waiter.
	OnAcquire func(ConnInfo)

	// OnRelease fires when a connection is returned to the pool.
	OnRelease func(ConnInfo)

	// OnCreate fires when the factory produced a new connection.
	OnCreate func(ConnInfo)

	// OnCreateError fires when the factory failed during Acquire.
	OnCreateError func(error)

	// OnDestroy fires when a connection is removed from the pool.
	OnDestroy func(ConnInfo)

	// OnDestroyError fires when Disconnect failed during destruction.
	// The connection is removed from the pool regardless.
	OnDestroyError func(ConnInfo, error)

	// OnReapError fires when an idle-reclamation cycle failed.
	OnReapError func(error)

	// OnEnsureMinError fires when the reaper's min top-up failed.
	OnEnsureMinError func(error)
}

// Subscribe registers an additional set of hooks. Subscribers are invoked
// in registration order.
func (p *Pool) Subscribe(h Hooks) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, h)
}

func (p *Pool) emitAcquire(info ConnInfo) {
	for _, h := range p.subscribers() {
		if h.OnAcquire != nil {
			h.OnAcquire(info)
		}
	}
}

func (p *Pool) emitRelease(info ConnInfo) {
	for _, h := range p.subscribers() {
		if h.OnRelease != nil {
			h.OnRelease(info)
		}
	}
}

func (p *Pool) emitCreate(info ConnInfo) {
	for _, h := range p.subscribers() {
		if h.OnCreate != nil {
			h.OnCreate(info)
		}
	}
}

func (p *Pool) emitCreateError(err error) {
	for _, h := range p.subscribers() {
		if h.OnCreateError != nil {
			h.OnCreateError(err)
		}
	}
}

func (p *Pool) emitDestroy(info ConnInfo) {
	for _, h := range p.subscribers() {
		if h.OnDestroy != nil {
			h.OnDestroy(info)
		}
	}
}

func (p *Pool) emitDestroyError(info ConnInfo, err error) {
	for _, h := range p.subscribers() {
		if h.OnDestroyError != nil {
			h.OnDestroyError(info, err)
		}
	}
}

func (p *Pool) emitReapError(err error) {
	for _, h := range p.subscribers() {
		if h.OnReapError != nil {
			h.OnReapError(err)
		}
	}
}

func (p *Pool) emitEnsureMinError(err error) {
	for _, h := range p.subscribers() {
		if h.OnEnsureMinError != nil {
			h.OnEnsureMinError(err)
		}
	}
}

// subscribers returns a snapshot of the hook list so emission never holds
// the pool lock while running user callbacks.
func (p *Pool) subscribers() []Hooks {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Hooks, len(p.hooks))
	copy(out, p.hooks)
	return out
}
