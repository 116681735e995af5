// Package limiter provides the admission gate bounding simultaneous
// in-flight requests.
package limiter

import "context"

// Limiter is a counting admission gate with a fixed capacity. At most
// Capacity callers hold a slot at any moment. Acquisition order is not
// FIFO, but no caller starves while slots are being released.
type Limiter struct {
	slots chan struct{}
}

// New creates a Limiter with the given capacity. Capacities below 1 are
// raised to 1.
func New(capacity int) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	return &Limiter{slots: make(chan struct{}, capacity)}
}

// Acquire blocks until a slot is available or ctx is done. It returns
// ctx.Err() when the context wins; the caller holds no slot in that case.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a previously acquired slot. Releasing without a matching
// Acquire is a programming error and panics.
func (l *Limiter) Release() {
	select {
	case <-l.slots:
	default:
		panic("limiter: release without acquire")
	}
}

// Capacity returns the configured slot count.
func (l *Limiter) Capacity() int {
	return cap(l.slots)
}

// InFlight returns the number of slots currently held.
func (l *Limiter) InFlight() int {
	return len(l.slots)
}
