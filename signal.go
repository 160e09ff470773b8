package breaker

import "time"

// Signal is dispatched to every registered Listener on each state
// transition. Manual transitions made with notify=false produce no
// Signal at all.
type Signal struct {
	CircuitName string
	OldState    State
	NewState    State
	Timestamp   time.Time
}

// Listener observes state transitions. A Listener panic is recovered
// and logged; it never affects the breaker's own state, and dispatch
// continues to the remaining listeners.
type Listener func(Signal)

func dispatch(listeners []Listener, sig *Signal, logger Logger, name string) {
	if sig == nil {
		return
	}
	for _, l := range listeners {
		safeNotify(l, *sig, logger, name)
	}
}

func safeNotify(l Listener, sig Signal, logger Logger, name string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warnw("breaker: listener panicked", "circuit", name, "panic", r)
		}
	}()
	l(sig)
}
