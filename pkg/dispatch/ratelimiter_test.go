package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock advances its reading by every sleep, so timing assertions run
// instantly.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) totalSlept() time.Duration {
	var total time.Duration
	for _, d := range c.sleeps {
		total += d
	}
	return total
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestRateLimiter_FirstDispatchDoesNotWait(t *testing.T) {
	clock := newFakeClock()
	limiter := NewRateLimiterWithClock(DefaultDispatchInterval, clock)

	waited := limiter.Wait(nil)

	assert.Equal(t, time.Duration(0), waited)
	assert.Empty(t, clock.sleeps)
}

func TestRateLimiter_WaitsRemainderOfInterval(t *testing.T) {
	// Given a dispatch at T0 and another attempt at T0+30s with a 120s
	// interval, the limiter must sleep exactly 90s.
	clock := newFakeClock()
	limiter := NewRateLimiterWithClock(120*time.Second, clock)

	limiter.MarkDispatch()
	clock.advance(30 * time.Second)

	waited := limiter.Wait(nil)

	assert.Equal(t, 90*time.Second, waited)
	assert.Equal(t, []time.Duration{90 * time.Second}, clock.sleeps)
}

func TestRateLimiter_NoWaitAfterIntervalElapsed(t *testing.T) {
	clock := newFakeClock()
	limiter := NewRateLimiterWithClock(120*time.Second, clock)

	limiter.MarkDispatch()
	clock.advance(121 * time.Second)

	waited := limiter.Wait(nil)

	assert.Equal(t, time.Duration(0), waited)
	assert.Empty(t, clock.sleeps)
}

func TestRateLimiter_ZeroOverrideDisablesThrottling(t *testing.T) {
	clock := newFakeClock()
	limiter := NewRateLimiterWithClock(120*time.Second, clock)

	limiter.MarkDispatch()

	zero := time.Duration(0)
	waited := limiter.Wait(&zero)

	assert.Equal(t, time.Duration(0), waited)
	assert.Empty(t, clock.sleeps)
}

func TestRateLimiter_OverrideAppliesToSingleCallOnly(t *testing.T) {
	clock := newFakeClock()
	limiter := NewRateLimiterWithClock(120*time.Second, clock)

	limiter.MarkDispatch()

	zero := time.Duration(0)
	limiter.Wait(&zero)
	limiter.MarkDispatch()
	clock.advance(10 * time.Second)

	// The next call uses the default interval again.
	waited := limiter.Wait(nil)
	assert.Equal(t, 110*time.Second, waited)
}

func TestRateLimiter_CustomOverrideInterval(t *testing.T) {
	clock := newFakeClock()
	limiter := NewRateLimiterWithClock(120*time.Second, clock)

	limiter.MarkDispatch()
	clock.advance(2 * time.Second)

	override := 5 * time.Second
	waited := limiter.Wait(&override)

	assert.Equal(t, 3*time.Second, waited)
}

func TestRateLimiter_MarkDispatchRecordsClockTime(t *testing.T) {
	clock := newFakeClock()
	limiter := NewRateLimiterWithClock(time.Minute, clock)

	assert.True(t, limiter.LastDispatch().IsZero())

	stamped := limiter.MarkDispatch()

	assert.Equal(t, clock.now, stamped)
	assert.Equal(t, stamped, limiter.LastDispatch())
}

func TestRateLimiter_NonPositiveIntervalFallsBackToDefault(t *testing.T) {
	limiter := NewRateLimiterWithClock(0, newFakeClock())
	assert.Equal(t, DefaultDispatchInterval, limiter.Interval())
}
