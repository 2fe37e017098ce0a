package pool

import "time"

// Config holds pool sizing and timing parameters.
// Zero values are replaced with production-safe defaults by New.
type Config struct {
	// Minimum number of connections the reaper keeps alive.
	// The pool may dip below this transiently; the reaper restores it.
	Min int

	// Maximum number of simultaneously live connections.
	// Acquire calls beyond this bound join the waiting queue.
	Max int

	// How long an Acquire call waits in the queue before failing
	// with ErrAcquireTimeout.
	AcquireTimeout time.Duration

	// Deadline applied to the factory call when creating a connection.
	CreateTimeout time.Duration

	// Deadline applied to Disconnect when destroying a connection.
	DestroyTimeout time.Duration

	// Idle connections older than this are destroyed by the reaper,
	// down to Min.
	IdleTimeout time.Duration

	// Interval between reaper cycles. Negative disables the background
	// reaper; Reap can still be driven manually.
	ReapInterval time.Duration

	// Suggested wait between retries for callers that retry failed
	// connection creation. The pool itself does not retry.
	CreateRetryInterval time.Duration
}

const (
	defaultMin                 = 2
	defaultMax                 = 10
	defaultAcquireTimeout      = 30 * time.Second
	defaultCreateTimeout       = 30 * time.Second
	defaultDestroyTimeout      = 5 * time.Second
	defaultIdleTimeout         = 5 * time.Minute
	defaultReapInterval        = time.Second
	defaultCreateRetryInterval = 200 * time.Millisecond
)

// withDefaults returns a copy of the config with zero fields replaced
// by defaults.
func (c Config) withDefaults() Config {
	if c.ReapInterval == 0 {
		c.ReapInterval = defaultReapInterval
	}
	if c.Min == 0 {
		c.Min = defaultMin
	}
	if c.Max == 0 {
		c.Max = defaultMax
	}
	if c.AcquireTimeout == 0 {
		c.AcquireTimeout = defaultAcquireTimeout
	}
	if c.CreateTimeout == 0 {
		c.CreateTimeout = defaultCreateTimeout
	}
	if c.DestroyTimeout == 0 {
		c.DestroyTimeout = defaultDestroyTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.CreateRetryInterval == 0 {
		c.CreateRetryInterval = defaultCreateRetryInterval
	}
	return c
}
