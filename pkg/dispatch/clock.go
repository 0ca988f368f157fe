package dispatch

import "time"

// Clock abstracts wall-clock reads and sleeps so that throttle timing can be
// tested with a fake clock instead of real waits.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// systemClock is the production Clock backed by the time package.
type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the real-time Clock.
func SystemClock() Clock {
	return systemClock{}
}
