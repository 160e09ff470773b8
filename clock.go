package breaker

import "time"

// Clock abstracts wall-clock time so tests can control it deterministically,
// mirroring the teacher's injectable Clock/WithClock pattern.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
