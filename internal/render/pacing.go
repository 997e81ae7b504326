package render

import "time"

// DefaultMaxFPS is the frame rate used when none is configured.
const DefaultMaxFPS = 30

// FramePeriod returns the frame budget for maxFPS. The budget is a whole
// number of milliseconds. maxFPS <= 0 disables pacing and yields 0.
func FramePeriod(maxFPS int) time.Duration {
	if maxFPS <= 0 {
		return 0
	}
	return time.Duration(1000/maxFPS) * time.Millisecond
}

// SleepFor returns the non-negative remainder of the frame budget after a
// frame that took elapsed.
func SleepFor(period, elapsed time.Duration) time.Duration {
	if period <= 0 {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := period - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
