package breaker

import (
	"errors"
	"reflect"
)

// Tracker classifies a wrapped-function error as a countable failure.
// Trackers are pure functions of the error alone, closed under And, Or,
// and Not.
type Tracker func(error) bool

// TrackAll counts every non-nil error as a failure. This is the
// default behavior most breakers want.
func TrackAll() Tracker {
	return func(err error) bool { return err != nil }
}

// TrackTypeOf counts an error as a failure iff its concrete type, or
// the concrete type of anything in its Unwrap chain, matches one of
// targets. nil targets are ignored.
func TrackTypeOf(targets ...error) Tracker {
	types := make([]reflect.Type, 0, len(targets))
	for _, t := range targets {
		if t != nil {
			types = append(types, reflect.TypeOf(t))
		}
	}
	return func(err error) bool {
		for err != nil {
			et := reflect.TypeOf(err)
			for _, want := range types {
				if et == want {
					return true
				}
			}
			err = errors.Unwrap(err)
		}
		return false
	}
}

// TrackCustom delegates classification entirely to f. If f panics, the
// engine recovers, logs the panic, and treats the outcome as a
// non-failure — TrackCustom itself stays a plain function with no
// recovery logic of its own.
func TrackCustom(f func(error) bool) Tracker {
	return Tracker(f)
}

// TrackAnd is true iff every tracker is true, evaluated left to right
// with short-circuiting.
func TrackAnd(first Tracker, rest ...Tracker) Tracker {
	return func(err error) bool {
		if !first(err) {
			return false
		}
		for _, t := range rest {
			if !t(err) {
				return false
			}
		}
		return true
	}
}

// TrackOr is true iff any tracker is true, evaluated left to right with
// short-circuiting.
func TrackOr(first Tracker, rest ...Tracker) Tracker {
	return func(err error) bool {
		if first(err) {
			return true
		}
		for _, t := range rest {
			if t(err) {
				return true
			}
		}
		return false
	}
}

// TrackNot inverts t.
func TrackNot(t Tracker) Tracker {
	return func(err error) bool { return !t(err) }
}
