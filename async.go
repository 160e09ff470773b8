package breaker

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// AsyncBreaker is the cooperative-concurrency circuit breaker engine: a
// single mutex guards the shared core, and a weighted semaphore bounds
// how many HALF_OPEN probes may be in flight at once. Safe for
// concurrent use by multiple goroutines.
type AsyncBreaker struct {
	mu  sync.Mutex
	c   *core
	sem *semaphore.Weighted
}

// NewAsync creates an AsyncBreaker. See New for the required options;
// WithMaxHalfOpenCalls additionally configures the HALF_OPEN
// concurrency bound (default DefaultMaxHalfOpenCalls).
func NewAsync(name string, opts ...Option) (*AsyncBreaker, error) {
	c, err := newCore(name, opts...)
	if err != nil {
		return nil, err
	}
	return &AsyncBreaker{c: c, sem: semaphore.NewWeighted(int64(c.maxHalfOpenCalls))}, nil
}

// Call runs fn under circuit breaker protection. The HALF_OPEN
// concurrency bound is checked after permit admission and before fn
// runs, so a permit rejection never consumes a probe slot. The
// semaphore permit, once acquired, is released unconditionally on every
// exit path including a panic inside fn.
func (b *AsyncBreaker) Call(ctx context.Context, fn Func) error {
	b.mu.Lock()
	now := b.c.clock.Now()
	state, sig, err := b.c.allow(now)
	b.mu.Unlock()
	dispatch(b.c.listeners, sig, b.c.logger, b.c.name)
	if err != nil {
		return err
	}

	if state == HalfOpen {
		if !b.sem.TryAcquire(1) {
			return notPermitted(b.c.name, HalfOpen, "half-open probe limit reached")
		}
		defer b.sem.Release(1)
	}

	t0 := b.c.clock.Now()
	fnErr := fn(ctx)

	if isCancellation(fnErr) {
		// No outcome is recorded for a cancelled in-flight call; the
		// semaphore permit is still released by the defer above, and
		// cancellation propagates to the caller unchanged.
		return fnErr
	}

	now = b.c.clock.Now()
	duration := now.Sub(t0)

	b.mu.Lock()
	sig = b.c.complete(state, t0, now, fnErr, duration)
	b.mu.Unlock()
	dispatch(b.c.listeners, sig, b.c.logger, b.c.name)
	return fnErr
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// CallWithFallback runs fn; if it returns any error, fallback(err) is
// invoked and its result returned instead.
func (b *AsyncBreaker) CallWithFallback(ctx context.Context, fn Func, fallback func(error) error) error {
	if err := b.Call(ctx, fn); err != nil {
		return fallback(err)
	}
	return nil
}

// Wrap returns fn wrapped with circuit breaker protection.
func (b *AsyncBreaker) Wrap(fn Func) Func {
	return func(ctx context.Context) error { return b.Call(ctx, fn) }
}

// WrapWithFallback returns fn wrapped with circuit breaker protection
// and the given fallback.
func (b *AsyncBreaker) WrapWithFallback(fn Func, fallback func(error) error) Func {
	return func(ctx context.Context) error { return b.CallWithFallback(ctx, fn, fallback) }
}

// Info returns a snapshot of the breaker's current bookkeeping.
func (b *AsyncBreaker) Info() Info {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.c.info()
}

// State returns the current state.
func (b *AsyncBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.c.state
}

// Name returns the breaker's name.
func (b *AsyncBreaker) Name() string { return b.c.name }

// Reset manually transitions to CLOSED with a fresh window and
// reopens=0.
func (b *AsyncBreaker) Reset(notify ...bool) {
	b.mu.Lock()
	now := b.c.clock.Now()
	sig := b.c.manualTransition(Closed, now, resolveNotify(notify))
	b.mu.Unlock()
	dispatch(b.c.listeners, sig, b.c.logger, b.c.name)
}

// MetricsOnly manually transitions to METRICS_ONLY.
func (b *AsyncBreaker) MetricsOnly(notify ...bool) {
	b.mu.Lock()
	now := b.c.clock.Now()
	sig := b.c.manualTransition(MetricsOnly, now, resolveNotify(notify))
	b.mu.Unlock()
	dispatch(b.c.listeners, sig, b.c.logger, b.c.name)
}

// Disable manually transitions to DISABLED.
func (b *AsyncBreaker) Disable(notify ...bool) {
	b.mu.Lock()
	now := b.c.clock.Now()
	sig := b.c.manualTransition(Disabled, now, resolveNotify(notify))
	b.mu.Unlock()
	dispatch(b.c.listeners, sig, b.c.logger, b.c.name)
}

// ForceOpen manually transitions to FORCED_OPEN.
func (b *AsyncBreaker) ForceOpen(notify ...bool) {
	b.mu.Lock()
	now := b.c.clock.Now()
	sig := b.c.manualTransition(ForcedOpen, now, resolveNotify(notify))
	b.mu.Unlock()
	dispatch(b.c.listeners, sig, b.c.logger, b.c.name)
}
