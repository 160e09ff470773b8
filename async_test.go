package breaker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/switchgear/breaker"
)

func newAsyncBreaker(t *testing.T, clock breaker.Clock, opts ...breaker.Option) *breaker.AsyncBreaker {
	t.Helper()
	window, err := breaker.NewCountWindow(5)
	require.NoError(t, err)
	tripper, err := breaker.TripFailureRate(0.5)
	require.NoError(t, err)
	retry, err := breaker.RetryCooldown(30*time.Second, 0)
	require.NoError(t, err)
	permit, err := breaker.PermitRandom(1)
	require.NoError(t, err)

	base := []breaker.Option{
		breaker.WithWindow(window),
		breaker.WithTracker(breaker.TrackAll()),
		breaker.WithTripper(tripper),
		breaker.WithRetry(retry),
		breaker.WithPermit(permit),
		breaker.WithSlowThreshold(breaker.SlowThresholdDisabled),
		breaker.WithClock(clock),
	}
	c, err := breaker.NewAsync("test-async", append(base, opts...)...)
	require.NoError(t, err)
	return c
}

type AsyncBreakerSuite struct {
	suite.Suite
	clock *fakeClock
}

func TestAsyncBreakerSuite(t *testing.T) {
	suite.Run(t, new(AsyncBreakerSuite))
}

func (s *AsyncBreakerSuite) SetupTest() {
	s.clock = newFakeClock()
}

func (s *AsyncBreakerSuite) TestCall_SucceedsOnFirstAttempt() {
	c := newAsyncBreaker(s.T(), s.clock)

	err := c.Call(context.Background(), func(ctx context.Context) error { return nil })

	s.NoError(err)
}

func (s *AsyncBreakerSuite) TestCall_ConcurrentCallersAreSerializedSafely() {
	// A window large enough to hold every call, so a lost update shows.
	window, err := breaker.NewCountWindow(50)
	s.Require().NoError(err)
	c := newAsyncBreaker(s.T(), s.clock, breaker.WithWindow(window))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Call(context.Background(), func(ctx context.Context) error { return nil })
		}()
	}
	wg.Wait()

	s.Equal(uint64(50), c.Info().Metric.TotalCount)
}

func (s *AsyncBreakerSuite) TestHalfOpen_ProbeLimitBoundsConcurrency() {
	window, err := breaker.NewCountWindow(10)
	s.Require().NoError(err)
	tripper, err := breaker.TripFailureRate(0) // any failure trips
	s.Require().NoError(err)
	retry := breaker.RetryAlways()
	permit, err := breaker.PermitRandom(1)
	s.Require().NoError(err)

	c2, err := breaker.NewAsync("half-open-bound",
		breaker.WithWindow(window),
		breaker.WithTracker(breaker.TrackAll()),
		breaker.WithTripper(tripper),
		breaker.WithRetry(retry),
		breaker.WithPermit(permit),
		breaker.WithSlowThreshold(breaker.SlowThresholdDisabled),
		breaker.WithClock(s.clock),
		breaker.WithMaxHalfOpenCalls(2),
	)
	s.Require().NoError(err)

	ctx := context.Background()
	_ = c2.Call(ctx, func(ctx context.Context) error { return errTest })
	s.Equal(breaker.Open, c2.State())

	release := make(chan struct{})
	var wg sync.WaitGroup
	var admitted, rejected int
	var mu sync.Mutex

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c2.Call(ctx, func(ctx context.Context) error {
				<-release
				return nil
			})
			mu.Lock()
			defer mu.Unlock()
			if breaker.IsCallNotPermitted(err) {
				rejected++
			} else {
				admitted++
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	s.LessOrEqual(admitted, 2)
	s.GreaterOrEqual(rejected, 3)
}

func (s *AsyncBreakerSuite) TestCall_CancellationRecordsNoOutcome() {
	c := newAsyncBreaker(s.T(), s.clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Call(ctx, func(ctx context.Context) error { return ctx.Err() })
	s.ErrorIs(err, context.Canceled)
	s.Equal(uint64(0), c.Info().Metric.TotalCount)
}

func (s *AsyncBreakerSuite) TestForceOpen_RejectsConcurrentCallers() {
	c := newAsyncBreaker(s.T(), s.clock)
	c.ForceOpen()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c.Call(context.Background(), func(ctx context.Context) error { return nil })
			s.True(breaker.IsCallNotPermitted(err))
		}()
	}
	wg.Wait()
}
