package breaker

import "time"

// record is an immutable snapshot of one completed call. Windows only
// ever see records through Record; they never mutate one afterward.
type record struct {
	success   bool
	slow      bool
	duration  time.Duration
	timestamp time.Time
}

// Window aggregates recently recorded outcomes into a Metric. The two
// implementations are CountWindow (last N calls) and TimeWindow (last N
// seconds); both are pure aggregators with no knowledge of breaker
// state, trippers, or trackers.
type Window interface {
	// Record appends an outcome to the window.
	Record(r record)

	// Metric returns the current aggregate over the window's contents.
	Metric() Metric

	// Reset clears all recorded outcomes.
	Reset()
}

// clockAware is implemented by windows whose Metric computation depends
// on wall-clock "now" rather than solely on what's been recorded
// (TimeWindow). Engines wire their own Clock into any window that needs
// one, so a single WithClock option controls both the engine's retry/
// permit timing and the window's notion of now.
type clockAware interface {
	setClock(c Clock)
}
