package render

import (
	"sync/atomic"
	"time"
)

// Stats holds frame counters. The scheduler writes them; other goroutines
// (the status server) may read them at any time.
type Stats struct {
	frames     atomic.Uint64
	skipped    atomic.Uint64
	overruns   atomic.Uint64
	drawErrors atomic.Uint64
	lastFrame  atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	FramesDrawn       uint64
	SkippedIterations uint64
	Overruns          uint64
	DrawErrors        uint64
	LastFrame         time.Duration
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		FramesDrawn:       s.frames.Load(),
		SkippedIterations: s.skipped.Load(),
		Overruns:          s.overruns.Load(),
		DrawErrors:        s.drawErrors.Load(),
		LastFrame:         time.Duration(s.lastFrame.Load()),
	}
}
