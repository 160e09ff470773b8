package breaker

import (
	"fmt"
	"math"
	"time"
)

// Retry computes the next permitted HALF_OPEN attempt time from when
// the circuit entered OPEN and how many times it has reopened since
// the last Reset.
type Retry interface {
	NextAttempt(openedAt time.Time, reopens uint32) time.Time
}

// farFuture stands in for "the circuit never automatically retries":
// an attempt time so far out that "now >= next" never holds in any
// realistic test or deployment.
var farFuture = time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)

type retryNever struct{}

func (retryNever) NextAttempt(time.Time, uint32) time.Time { return farFuture }

// RetryNever means the circuit never automatically probes; only a
// manual Reset closes it again.
func RetryNever() Retry { return retryNever{} }

type retryAlways struct{}

func (retryAlways) NextAttempt(openedAt time.Time, _ uint32) time.Time { return openedAt }

// RetryAlways permits a HALF_OPEN probe on the very next call.
func RetryAlways() Retry { return retryAlways{} }

type retryCooldown struct {
	d      time.Duration
	jitter float64
}

func (r retryCooldown) NextAttempt(openedAt time.Time, _ uint32) time.Time {
	return openedAt.Add(jitterDuration(r.d, r.jitter))
}

// RetryCooldown waits a fixed duration d (± jitterRatio) after entering
// OPEN before permitting a probe. jitterRatio must be in [0, 1].
func RetryCooldown(d time.Duration, jitterRatio float64) (Retry, error) {
	if d < 0 {
		return nil, fmt.Errorf("breaker: cooldown duration must be >= 0, got %v", d)
	}
	if jitterRatio < 0 || jitterRatio > 1 {
		return nil, fmt.Errorf("breaker: jitter ratio must be in [0, 1], got %v", jitterRatio)
	}
	return retryCooldown{d: d, jitter: jitterRatio}, nil
}

type retryBackoff struct {
	initial    time.Duration
	multiplier float64
	cap        time.Duration
	jitter     float64
}

func (r retryBackoff) NextAttempt(openedAt time.Time, reopens uint32) time.Time {
	wait := float64(r.initial) * math.Pow(r.multiplier, float64(reopens))
	if cap := float64(r.cap); wait > cap {
		wait = cap
	}
	return openedAt.Add(jitterDuration(time.Duration(wait), r.jitter))
}

// RetryBackoff waits min(initial*multiplier^reopens, cap) (± jitterRatio)
// after entering OPEN before permitting a probe. reopens=0 yields
// initial itself.
func RetryBackoff(initial time.Duration, multiplier float64, cap time.Duration, jitterRatio float64) (Retry, error) {
	if initial < 0 {
		return nil, fmt.Errorf("breaker: backoff initial must be >= 0, got %v", initial)
	}
	if multiplier < 1 {
		return nil, fmt.Errorf("breaker: backoff multiplier must be >= 1, got %v", multiplier)
	}
	if cap < initial {
		return nil, fmt.Errorf("breaker: backoff cap must be >= initial, got %v", cap)
	}
	if jitterRatio < 0 || jitterRatio > 1 {
		return nil, fmt.Errorf("breaker: jitter ratio must be in [0, 1], got %v", jitterRatio)
	}
	return retryBackoff{initial: initial, multiplier: multiplier, cap: cap, jitter: jitterRatio}, nil
}
