package breaker_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/switchgear/breaker"
)

type RetrySuite struct {
	suite.Suite
}

func TestRetrySuite(t *testing.T) {
	suite.Run(t, new(RetrySuite))
}

func (s *RetrySuite) TestRetryNever_NeverElapses() {
	r := breaker.RetryNever()
	openedAt := time.Now()

	next := r.NextAttempt(openedAt, 0)

	s.True(next.After(openedAt.Add(100 * 365 * 24 * time.Hour)))
}

func (s *RetrySuite) TestRetryAlways_PermitsImmediately() {
	r := breaker.RetryAlways()
	openedAt := time.Now()

	next := r.NextAttempt(openedAt, 3)

	s.Equal(openedAt, next)
}

func (s *RetrySuite) TestRetryCooldown_RejectsInvalidInputs() {
	_, err := breaker.RetryCooldown(-time.Second, 0)
	s.Error(err)
	_, err = breaker.RetryCooldown(time.Second, 1.5)
	s.Error(err)
}

func (s *RetrySuite) TestRetryCooldown_WaitsFixedDurationWithoutJitter() {
	r, err := breaker.RetryCooldown(30*time.Second, 0)
	s.Require().NoError(err)
	openedAt := time.Now()

	next := r.NextAttempt(openedAt, 5) // reopens is irrelevant to Cooldown

	s.Equal(openedAt.Add(30*time.Second), next)
}

func (s *RetrySuite) TestRetryBackoff_RejectsInvalidInputs() {
	_, err := breaker.RetryBackoff(-time.Second, 2, time.Minute, 0)
	s.Error(err)
	_, err = breaker.RetryBackoff(time.Second, 0.5, time.Minute, 0)
	s.Error(err)
	_, err = breaker.RetryBackoff(time.Minute, 2, time.Second, 0)
	s.Error(err)
}

func (s *RetrySuite) TestRetryBackoff_ZeroReopensYieldsInitial() {
	r, err := breaker.RetryBackoff(time.Second, 2, time.Minute, 0)
	s.Require().NoError(err)
	openedAt := time.Now()

	next := r.NextAttempt(openedAt, 0)

	s.Equal(openedAt.Add(time.Second), next)
}

func (s *RetrySuite) TestRetryBackoff_GrowsExponentiallyUpToCap() {
	r, err := breaker.RetryBackoff(time.Second, 2, 5*time.Second, 0)
	s.Require().NoError(err)
	openedAt := time.Now()

	s.Equal(openedAt.Add(2*time.Second), r.NextAttempt(openedAt, 1))
	s.Equal(openedAt.Add(4*time.Second), r.NextAttempt(openedAt, 2))
	s.Equal(openedAt.Add(5*time.Second), r.NextAttempt(openedAt, 3)) // capped
}
