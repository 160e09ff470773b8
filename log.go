package breaker

import "go.uber.org/zap"

// Logger is the minimal structured-logging capability the breaker needs
// for its two "log, never propagate" paths: a tracker predicate
// panicking while classifying an error, and a listener panicking while
// observing a signal. *zap.SugaredLogger satisfies this directly.
type Logger interface {
	Warnw(msg string, keysAndValues ...interface{})
}

// defaultLogger discards everything; breakers constructed without
// WithLogger stay silent on the swallowed-error paths above.
var defaultLogger Logger = zap.NewNop().Sugar()
