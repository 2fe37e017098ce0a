package pool

import "errors"

// Sentinel errors for pool operations. Wrapped causes are attached with
// errors.Join, so errors.Is works against these sentinels.
var (
	// ErrPoolClosed is returned when an operation is attempted on a
	// destroyed pool. Callers should stop retrying.
	ErrPoolClosed = errors.New("pool: closed")

	// ErrAcquireTimeout is returned when no connection became available
	// within the configured acquire timeout. Callers may retry later.
	ErrAcquireTimeout = errors.New("pool: acquire timed out")

	// ErrConnectionCreateFailed is returned when the connection factory
	// fails during Acquire.
	ErrConnectionCreateFailed = errors.New("pool: failed to create connection")

	// ErrNilFactory is returned by New when no factory is supplied.
	ErrNilFactory = errors.New("pool: nil connection factory")

	// ErrInvalidConfig is returned by New when Min exceeds Max.
	ErrInvalidConfig = errors.New("pool: min must not exceed max")
)
