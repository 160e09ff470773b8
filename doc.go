// Package breaker implements a circuit breaker with a composable
// predicate algebra for resilient calls to unreliable dependencies.
//
// breaker protects callers from cascading failures by:
//
//   - Tracking Outcomes: A sliding window aggregates recent calls into
//     a failure rate, slow-call rate, and average latency
//   - Composable Tripping: Trippers combine MinRequests, FailureRate,
//     AvgLatency, and SlowRate leaves with And/Or to decide when to trip
//   - Fast Rejection: Open circuits reject calls immediately with
//     ErrCallNotPermitted, no load placed on the dependency
//   - Gradual Recovery: HalfOpen admits a trickle of probes, gated by a
//     configurable Permit, before closing the circuit again
//   - Six States: Closed, Open, HalfOpen, MetricsOnly, Disabled, and
//     ForcedOpen cover both automatic and operator-driven control
//   - Two Engines: Breaker for single-goroutine use, AsyncBreaker when
//     multiple goroutines share one circuit
//
// # Quick Start
//
// Create a circuit and protect calls:
//
//	window, _ := breaker.NewCountWindow(20)
//	tripper, _ := breaker.TripFailureRate(0.5)
//	retry, _ := breaker.RetryCooldown(30*time.Second, 0.1)
//	permit, _ := breaker.PermitRandom(0.5)
//
//	circuit, err := breaker.New("payment-service",
//	    breaker.WithWindow(window),
//	    breaker.WithTracker(breaker.TrackAll()),
//	    breaker.WithTripper(tripper),
//	    breaker.WithRetry(retry),
//	    breaker.WithPermit(permit),
//	    breaker.WithSlowThreshold(breaker.SlowThresholdDisabled),
//	)
//
//	err = circuit.Call(ctx, func(ctx context.Context) error {
//	    return client.Charge(ctx, amount)
//	})
//	if breaker.IsCallNotPermitted(err) {
//	    return handleFallback()
//	}
//
// For functions that return a value, use the generic Run helper:
//
//	user, err := breaker.Run(ctx, circuit, func(ctx context.Context) (*User, error) {
//	    return client.GetUser(ctx, id)
//	})
//
// # States
//
//	Closed (normal):
//	    - Calls flow through; outcomes are recorded
//	    - The tripper may trip the circuit to Open
//
//	Open (tripped):
//	    - Calls are rejected immediately with ErrCallNotPermitted
//	    - Once the Retry clock elapses, the next call becomes a HalfOpen probe
//
//	HalfOpen (testing):
//	    - The Permit gates which calls are admitted as probes
//	    - A non-tripping outcome (meeting any MinRequests threshold in
//	      the tripper) closes the circuit; a tripping one reopens it
//
//	MetricsOnly:
//	    - Calls flow through and outcomes are recorded, but no
//	      automatic transition ever fires — useful for observing a
//	      tripper's behavior before enforcing it
//
//	Disabled:
//	    - Calls bypass the breaker entirely; the window isn't touched
//
//	ForcedOpen:
//	    - Every call is rejected until a manual Reset
//
// # Windows and Trippers
//
// A Window aggregates the last N calls (CountWindow) or the last N
// seconds (TimeWindow) into a Metric. A Tripper is a pure function of
// the current state and that Metric:
//
//	minRequests, _ := breaker.TripMinRequests(10)
//	failureRate, _ := breaker.TripFailureRate(0.5)
//	slowRate, _ := breaker.TripSlowRate(0.9)
//	tripper := breaker.TripAnd(
//	    minRequests,
//	    breaker.TripOr(failureRate, slowRate),
//	)
//
// Reusing the same tripper in HALF_OPEN means its MinRequests leaf, if
// any, also gates when the circuit is allowed to close: with none, a
// single non-tripping probe closes the circuit immediately.
//
// # Failure Classification
//
// A Tracker is required (WithTracker). TrackAll counts every non-nil
// error as a failure. Narrow this with TrackTypeOf, TrackCustom, and
// the And/Or/Not combinators:
//
//	tracker := breaker.TrackAnd(
//	    breaker.TrackAll(),
//	    breaker.TrackNot(breaker.TrackTypeOf(ErrNotFound)),
//	)
//
// # Retry and Permit
//
// Retry computes how long an Open circuit waits before permitting a
// HalfOpen probe:
//
//	breaker.RetryNever()                                    // never auto-retries
//	breaker.RetryAlways()                                    // retries immediately
//	breaker.RetryCooldown(30*time.Second, 0.1)               // fixed wait ± 10% jitter
//	breaker.RetryBackoff(time.Second, 2, time.Minute, 0.1)   // exponential, capped
//
// Permit decides, independently per call, whether a HalfOpen probe is
// admitted:
//
//	breaker.PermitRandom(0.3)                                 // admit 30% of probes
//	breaker.PermitRampUp(0.1, 1.0, 5*time.Minute)             // ramp 10%->100% over 5m
//
// # Signals
//
// Listeners observe every state transition:
//
//	circuit, err := breaker.New("service",
//	    // ...
//	    breaker.WithListener(func(sig breaker.Signal) {
//	        logger.Warnw("circuit breaker transitioned",
//	            "circuit", sig.CircuitName,
//	            "from", sig.OldState,
//	            "to", sig.NewState,
//	        )
//	    }),
//	)
//
// A Listener panic is recovered and logged through WithLogger; it never
// affects the circuit's own state.
//
// # Sync vs Async
//
// Breaker performs no internal locking and must only be used from one
// goroutine at a time. AsyncBreaker guards its state with a mutex and
// additionally bounds HALF_OPEN concurrency with WithMaxHalfOpenCalls,
// so multiple goroutines can safely share one circuit:
//
//	circuit, err := breaker.NewAsync("service",
//	    // ...
//	    breaker.WithMaxHalfOpenCalls(3),
//	)
//
// # Testing
//
// Inject a fake clock to control time in tests:
//
//	type fakeClock struct{ now time.Time }
//
//	func (c *fakeClock) Now() time.Time         { return c.now }
//	func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
//
//	func TestCircuitRetriesAfterCooldown(t *testing.T) {
//	    clock := &fakeClock{now: time.Now()}
//	    retry, _ := breaker.RetryCooldown(30*time.Second, 0)
//	    circuit, _ := breaker.New("test",
//	        // ...
//	        breaker.WithRetry(retry),
//	        breaker.WithClock(clock),
//	    )
//
//	    _ = circuit.Call(ctx, func(ctx context.Context) error { return errFail })
//	    require.Equal(t, breaker.Open, circuit.State())
//
//	    clock.Advance(31 * time.Second)
//	    _ = circuit.Call(ctx, func(ctx context.Context) error { return nil })
//	    require.Equal(t, breaker.Closed, circuit.State())
//	}
//
// # Best Practices
//
//  1. Name circuits after the dependency they protect.
//  2. Require a MinRequests floor alongside any rate-based tripper leaf
//     so a handful of early failures doesn't trip on noise.
//  3. Provide fallbacks for a not-permitted error rather than letting it
//     propagate to the end user.
//  4. Reach for MetricsOnly before switching on a new tripper in
//     production, to see what it would have tripped on.
//  5. Pair a slow backoff-based Retry with a ramping Permit so recovery
//     is gradual, not an immediate thundering herd against a circuit
//     that just came back.
package breaker
