package breaker_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/switchgear/breaker"
)

type SignalSuite struct {
	suite.Suite
	clock *fakeClock
}

func TestSignalSuite(t *testing.T) {
	suite.Run(t, new(SignalSuite))
}

func (s *SignalSuite) SetupTest() {
	s.clock = newFakeClock()
}

func (s *SignalSuite) TestListener_ReceivesTransitionFields() {
	var got breaker.Signal
	c := newBreaker(s.T(), s.clock, breaker.WithListener(func(sig breaker.Signal) { got = sig }))

	c.ForceOpen()

	s.Equal("test", got.CircuitName)
	s.Equal(breaker.Closed, got.OldState)
	s.Equal(breaker.ForcedOpen, got.NewState)
	s.Equal(s.clock.Now(), got.Timestamp)
}

func (s *SignalSuite) TestListener_NotNotifiedWhenSuppressed() {
	var calls int
	c := newBreaker(s.T(), s.clock, breaker.WithListener(func(sig breaker.Signal) { calls++ }))

	c.ForceOpen(false)

	s.Equal(0, calls)
	s.Equal(breaker.ForcedOpen, c.State())
}

func (s *SignalSuite) TestListener_MultipleListenersAllRunInOrder() {
	var order []int
	c := newBreaker(s.T(), s.clock,
		breaker.WithListener(func(sig breaker.Signal) { order = append(order, 1) }),
		breaker.WithListener(func(sig breaker.Signal) { order = append(order, 2) }),
	)

	c.ForceOpen()

	s.Equal([]int{1, 2}, order)
}

func (s *SignalSuite) TestListener_OnePanickingDoesNotStopTheRest() {
	var secondCalled bool
	c := newBreaker(s.T(), s.clock,
		breaker.WithListener(func(sig breaker.Signal) { panic("boom") }),
		breaker.WithListener(func(sig breaker.Signal) { secondCalled = true }),
	)

	c.ForceOpen()

	s.True(secondCalled)
}
