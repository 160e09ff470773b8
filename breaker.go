package breaker

import (
	"context"
	"time"
)

// Func is the signature of a protected operation.
type Func func(ctx context.Context) error

// Info is a point-in-time snapshot of a breaker's bookkeeping.
type Info struct {
	Name      string
	State     State
	ChangedAt time.Time
	Reopens   uint32
	Metric    Metric
}

// core holds everything a breaker needs to run the state machine.
// Breaker and AsyncBreaker are both thin wrappers around a core;
// Breaker never locks it, AsyncBreaker always does under its own
// mutex — that difference is the entire distinction between the two
// engines.
type core struct {
	name   string
	clock  Clock
	logger Logger

	window  Window
	tracker Tracker
	tripper Tripper
	retry   Retry
	permit  Permit

	slowThreshold    time.Duration
	listeners        []Listener
	maxHalfOpenCalls uint32

	state             State
	changedAt         time.Time
	reopens           uint32
	halfOpenEnteredAt time.Time
}

func newCore(name string, opts ...Option) (*core, error) {
	cfg := defaultConfig()
	cfg.name = name
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if ca, ok := cfg.window.(clockAware); ok {
		ca.setClock(cfg.clock)
	}
	now := cfg.clock.Now()
	return &core{
		name:             cfg.name,
		clock:            cfg.clock,
		logger:           cfg.logger,
		window:           cfg.window,
		tracker:          cfg.tracker,
		tripper:          cfg.tripper,
		retry:            cfg.retry,
		permit:           cfg.permit,
		slowThreshold:    cfg.slowThreshold,
		listeners:        cfg.listeners,
		maxHalfOpenCalls: cfg.maxHalfOpenCalls,
		state:            Closed,
		changedAt:        now,
	}, nil
}

// allow consults the current state and, in HALF_OPEN, the permit. It
// may itself perform the OPEN->HALF_OPEN transition when the retry
// clock has elapsed, returning the resulting Signal for the caller to
// dispatch outside any lock it may be holding.
func (c *core) allow(now time.Time) (state State, sig *Signal, err error) {
	switch c.state {
	case Disabled:
		return Disabled, nil, nil
	case ForcedOpen:
		return ForcedOpen, nil, notPermitted(c.name, ForcedOpen, "circuit is forced open")
	case Open:
		next := c.retry.NextAttempt(c.changedAt, c.reopens)
		if now.Before(next) {
			return Open, nil, notPermitted(c.name, Open, "circuit is open")
		}
		sig = c.transition(HalfOpen, now)
		return HalfOpen, sig, nil
	case HalfOpen:
		if !c.permit.Admit(now, c.halfOpenEnteredAt) {
			return HalfOpen, nil, notPermitted(c.name, HalfOpen, "half-open permit rejected")
		}
		return HalfOpen, nil, nil
	default: // Closed, MetricsOnly
		return c.state, nil, nil
	}
}

// complete classifies the outcome, records it (unless DISABLED), and
// evaluates the tripper to decide whether an automatic transition
// follows.
func (c *core) complete(state State, timestamp, now time.Time, fnErr error, duration time.Duration) *Signal {
	if state == Disabled {
		return nil
	}

	rec := record{
		success:   !c.classify(fnErr),
		slow:      duration >= c.slowThreshold,
		duration:  duration,
		timestamp: timestamp,
	}
	c.window.Record(rec)

	if state == MetricsOnly {
		return nil
	}

	metric := c.window.Metric()
	trip := c.tripper.eval(state, metric)

	switch state {
	case Closed:
		if trip {
			return c.transition(Open, now)
		}
	case HalfOpen:
		if trip {
			return c.transition(Open, now)
		}
		// Closing requires the tripper's own MinRequests leaf, if any,
		// to be satisfied first. With no MinRequests leaf in the tree,
		// a single non-tripping probe closes the circuit immediately —
		// this is the documented, deliberately surprising behavior
		// when a tripper built purely from rate/latency leaves is
		// reused in the HALF_OPEN arm.
		if n, ok := minRequestsThreshold(c.tripper); !ok || metric.TotalCount >= n {
			return c.transition(Closed, now)
		}
	}
	return nil
}

// transition performs an automatic state change: resets the window,
// updates bookkeeping, and returns the Signal to dispatch. A no-op
// (returns nil) if already in the target state.
func (c *core) transition(to State, now time.Time) *Signal {
	from := c.state
	if from == to {
		return nil
	}
	c.window.Reset()
	switch to {
	case Open:
		c.reopens++
	case HalfOpen:
		c.halfOpenEnteredAt = now
	}
	c.state = to
	c.changedAt = now
	return &Signal{CircuitName: c.name, OldState: from, NewState: to, Timestamp: now}
}

// manualTransition implements Reset/MetricsOnly/Disable/ForceOpen: it
// always clears the window (and, for Reset, reopens), but only emits a
// Signal when the state actually changes and notify is true — calling
// Reset on an already-CLOSED circuit is a true no-op, not a second
// transition.
func (c *core) manualTransition(to State, now time.Time, notify bool) *Signal {
	from := c.state
	c.window.Reset()
	if to == Closed {
		c.reopens = 0
	}
	c.state = to
	if from == to {
		return nil
	}
	c.changedAt = now
	if to == HalfOpen {
		c.halfOpenEnteredAt = now
	}
	if !notify {
		return nil
	}
	return &Signal{CircuitName: c.name, OldState: from, NewState: to, Timestamp: now}
}

// classify runs the tracker, recovering and logging any panic as a
// non-failure so a broken predicate can never crash the calling
// goroutine.
func (c *core) classify(err error) (isFailure bool) {
	if err == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warnw("breaker: tracker panicked, treating as non-failure", "circuit", c.name, "panic", r)
			isFailure = false
		}
	}()
	return c.tracker(err)
}

func (c *core) info() Info {
	return Info{
		Name:      c.name,
		State:     c.state,
		ChangedAt: c.changedAt,
		Reopens:   c.reopens,
		Metric:    c.window.Metric(),
	}
}

func resolveNotify(notify []bool) bool {
	if len(notify) == 0 {
		return true
	}
	return notify[0]
}

// Breaker is the synchronous circuit breaker engine. It performs no
// locking of its own and is safe to use from a single goroutine only;
// sharing one across goroutines without external synchronization is a
// data race by design. Use AsyncBreaker when multiple goroutines need
// to share a breaker.
type Breaker struct {
	c *core
}

// New creates a Breaker. WithWindow, WithTracker, WithTripper,
// WithRetry, WithPermit, and WithSlowThreshold are all required; New
// returns an error rather than a partially configured breaker if any
// is missing or invalid.
func New(name string, opts ...Option) (*Breaker, error) {
	c, err := newCore(name, opts...)
	if err != nil {
		return nil, err
	}
	return &Breaker{c: c}, nil
}

// Call runs fn under circuit breaker protection.
func (b *Breaker) Call(ctx context.Context, fn Func) error {
	now := b.c.clock.Now()
	state, sig, err := b.c.allow(now)
	dispatch(b.c.listeners, sig, b.c.logger, b.c.name)
	if err != nil {
		return err
	}

	t0 := b.c.clock.Now()
	fnErr := fn(ctx)
	now = b.c.clock.Now()
	duration := now.Sub(t0)

	sig = b.c.complete(state, t0, now, fnErr, duration)
	dispatch(b.c.listeners, sig, b.c.logger, b.c.name)
	return fnErr
}

// CallWithFallback runs fn; if it returns any error (including
// ErrCallNotPermitted), fallback(err) is invoked and its result
// returned instead. fallback is never invoked after a successful call.
func (b *Breaker) CallWithFallback(ctx context.Context, fn Func, fallback func(error) error) error {
	if err := b.Call(ctx, fn); err != nil {
		return fallback(err)
	}
	return nil
}

// Wrap returns fn wrapped with circuit breaker protection.
func (b *Breaker) Wrap(fn Func) Func {
	return func(ctx context.Context) error { return b.Call(ctx, fn) }
}

// WrapWithFallback returns fn wrapped with circuit breaker protection
// and the given fallback.
func (b *Breaker) WrapWithFallback(fn Func, fallback func(error) error) Func {
	return func(ctx context.Context) error { return b.CallWithFallback(ctx, fn, fallback) }
}

// Info returns a snapshot of the breaker's current bookkeeping.
func (b *Breaker) Info() Info { return b.c.info() }

// State returns the current state.
func (b *Breaker) State() State { return b.c.state }

// Name returns the breaker's name.
func (b *Breaker) Name() string { return b.c.name }

// Reset manually transitions to CLOSED with a fresh window and
// reopens=0. Pass notify=false to suppress the signal dispatch.
func (b *Breaker) Reset(notify ...bool) {
	now := b.c.clock.Now()
	sig := b.c.manualTransition(Closed, now, resolveNotify(notify))
	dispatch(b.c.listeners, sig, b.c.logger, b.c.name)
}

// MetricsOnly manually transitions to METRICS_ONLY: outcomes are
// recorded but never drive an automatic transition.
func (b *Breaker) MetricsOnly(notify ...bool) {
	now := b.c.clock.Now()
	sig := b.c.manualTransition(MetricsOnly, now, resolveNotify(notify))
	dispatch(b.c.listeners, sig, b.c.logger, b.c.name)
}

// Disable manually transitions to DISABLED: calls bypass the breaker
// entirely and the window is left untouched by them.
func (b *Breaker) Disable(notify ...bool) {
	now := b.c.clock.Now()
	sig := b.c.manualTransition(Disabled, now, resolveNotify(notify))
	dispatch(b.c.listeners, sig, b.c.logger, b.c.name)
}

// ForceOpen manually transitions to FORCED_OPEN: every call is rejected
// until a manual Reset.
func (b *Breaker) ForceOpen(notify ...bool) {
	now := b.c.clock.Now()
	sig := b.c.manualTransition(ForcedOpen, now, resolveNotify(notify))
	dispatch(b.c.listeners, sig, b.c.logger, b.c.name)
}
