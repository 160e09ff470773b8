package breaker

import (
	"fmt"
	"time"
)

type timeBucket struct {
	epoch    int64
	total    uint64
	failures uint64
	slow     uint64
	duration time.Duration
}

// TimeWindow aggregates outcomes recorded within the last N seconds
// using a ring of one bucket per second, with running sums kept in
// sync as buckets are evicted. Grounded on bucketed-metricer designs
// that configure a bucket count and duration, generalized here to
// exactly one bucket per second per spec. Bucket eviction ("advance")
// runs both on Record and on Metric, so a long silence is reflected the
// next time either is called, not only on the next write.
type TimeWindow struct {
	buckets []timeBucket
	clock   Clock

	total    uint64
	failures uint64
	slow     uint64
	duration time.Duration
}

// NewTimeWindow creates a TimeWindow spanning the last seconds seconds.
// seconds must be greater than zero.
func NewTimeWindow(seconds int) (*TimeWindow, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("breaker: time window size must be > 0, got %d", seconds)
	}
	return &TimeWindow{
		buckets: make([]timeBucket, seconds),
		clock:   realClock{},
	}, nil
}

func (w *TimeWindow) setClock(c Clock) { w.clock = c }

func (w *TimeWindow) indexFor(epoch int64) int {
	n := int64(len(w.buckets))
	return int(((epoch % n) + n) % n)
}

// advance evicts any bucket whose epoch has fallen out of the live
// window [now-N+1, now], subtracting its contribution from the running
// sums. Scans all len(buckets) buckets on every call; evicts nothing
// once everything is already either live or empty.
func (w *TimeWindow) advance(now int64) {
	oldest := now - int64(len(w.buckets)) + 1
	for i := range w.buckets {
		b := &w.buckets[i]
		if b.total == 0 {
			continue
		}
		if b.epoch < oldest {
			w.subtractBucket(b)
			*b = timeBucket{}
		}
	}
}

func (w *TimeWindow) subtractBucket(b *timeBucket) {
	w.total -= b.total
	w.failures -= b.failures
	w.slow -= b.slow
	w.duration -= b.duration
}

// Record files r into the bucket for its own timestamp. A record older
// than the live window relative to the real current time is dropped
// silently, matching the spec's stale-record handling.
func (w *TimeWindow) Record(r record) {
	now := w.clock.Now().Unix()
	w.advance(now)

	epoch := r.timestamp.Unix()
	oldest := now - int64(len(w.buckets)) + 1
	if epoch < oldest {
		return
	}

	idx := w.indexFor(epoch)
	b := &w.buckets[idx]
	if b.epoch != epoch {
		w.subtractBucket(b)
		*b = timeBucket{epoch: epoch}
	}

	b.total++
	w.total++
	if !r.success {
		b.failures++
		w.failures++
	}
	if r.slow {
		b.slow++
		w.slow++
	}
	b.duration += r.duration
	w.duration += r.duration
}

// Metric advances stale buckets against the real current time before
// returning, so a metric read after a long silence correctly decays to
// zero counts even without an intervening Record.
func (w *TimeWindow) Metric() Metric {
	w.advance(w.clock.Now().Unix())
	return Metric{
		TotalCount:    w.total,
		FailureCount:  w.failures,
		SlowCount:     w.slow,
		TotalDuration: w.duration,
	}
}

// Reset clears every bucket and running sum.
func (w *TimeWindow) Reset() {
	for i := range w.buckets {
		w.buckets[i] = timeBucket{}
	}
	w.total = 0
	w.failures = 0
	w.slow = 0
	w.duration = 0
}
