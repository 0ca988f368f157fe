package dispatch

import "time"

// DefaultDispatchInterval is the minimum spacing between dispatches to the
// target application. The desktop app throttles or locks out bursts of
// automated input, so the default is deliberately conservative.
const DefaultDispatchInterval = 120 * time.Second

// RateLimiter is a single-slot gate over the timestamp of the last dispatch.
// It is advisory spacing, not a queue: the dispatcher processes one request
// to completion before accepting the next, so the elapsed-time read and the
// subsequent MarkDispatch never race. The zero timestamp means "never
// dispatched" and waits nothing.
type RateLimiter struct {
	clock        Clock
	interval     time.Duration
	lastDispatch time.Time
}

// NewRateLimiter creates a limiter with the given default interval and the
// system clock. A non-positive interval falls back to
// DefaultDispatchInterval.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return NewRateLimiterWithClock(interval, SystemClock())
}

// NewRateLimiterWithClock creates a limiter with an injected clock.
func NewRateLimiterWithClock(interval time.Duration, clock Clock) *RateLimiter {
	if interval <= 0 {
		interval = DefaultDispatchInterval
	}
	return &RateLimiter{
		clock:    clock,
		interval: interval,
	}
}

// Wait blocks until the configured interval since the last dispatch has
// elapsed and returns how long it slept. A non-nil override replaces the
// default interval for this call only; an override of zero disables
// throttling for this call. Wait does not record a dispatch: callers stamp
// the limiter with MarkDispatch immediately before invoking the adapter, so
// slow adapter calls do not inflate the next wait.
func (l *RateLimiter) Wait(override *time.Duration) time.Duration {
	interval := l.interval
	if override != nil {
		interval = *override
	}
	if interval <= 0 || l.lastDispatch.IsZero() {
		return 0
	}

	elapsed := l.clock.Now().Sub(l.lastDispatch)
	if elapsed >= interval {
		return 0
	}

	wait := interval - elapsed
	l.clock.Sleep(wait)
	return wait
}

// MarkDispatch records now as the last dispatch time and returns it.
func (l *RateLimiter) MarkDispatch() time.Time {
	l.lastDispatch = l.clock.Now()
	return l.lastDispatch
}

// LastDispatch returns the recorded time of the most recent dispatch. The
// zero time means no dispatch has happened in this process.
func (l *RateLimiter) LastDispatch() time.Time {
	return l.lastDispatch
}

// Interval returns the configured default interval.
func (l *RateLimiter) Interval() time.Duration {
	return l.interval
}
