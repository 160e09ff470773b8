package breaker

import (
	"errors"
	"fmt"
)

// ErrCallNotPermitted is the sentinel every NotPermittedError wraps.
// Check for it with errors.Is, or use IsCallNotPermitted.
var ErrCallNotPermitted = errors.New("breaker: call not permitted")

// NotPermittedError is returned whenever the engine short-circuits a
// call instead of invoking it: the circuit is OPEN and its retry time
// hasn't elapsed, a HALF_OPEN permit or probe slot was refused, or the
// circuit is FORCED_OPEN.
type NotPermittedError struct {
	CircuitName string
	State       State
	Message     string
}

func (e *NotPermittedError) Error() string {
	return fmt.Sprintf("breaker %q: %s (state=%s)", e.CircuitName, e.Message, e.State)
}

// Unwrap lets errors.Is(err, ErrCallNotPermitted) succeed.
func (e *NotPermittedError) Unwrap() error { return ErrCallNotPermitted }

// IsCallNotPermitted reports whether err is a short-circuit refusal.
func IsCallNotPermitted(err error) bool {
	return errors.Is(err, ErrCallNotPermitted)
}

func notPermitted(name string, state State, msg string) error {
	return &NotPermittedError{CircuitName: name, State: state, Message: msg}
}
