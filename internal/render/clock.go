package render

import "time"

// Clock supplies frame timestamps and the pacing sleep.
type Clock interface {
	// Now returns the time elapsed since the clock started, truncated to
	// milliseconds.
	Now() time.Duration
	Sleep(d time.Duration)
}

// SystemClock is a monotonic Clock.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock whose zero is the moment of the call.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() time.Duration {
	return time.Since(c.start).Truncate(time.Millisecond)
}

func (c *SystemClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}
