package render

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"time"
)

// unavailableBackoff is the shortest wait after a skipped iteration, so an
// unpaced loop does not spin while the device is unavailable.
const unavailableBackoff = 10 * time.Millisecond

// Options configures a Scheduler. The scheduler copies Viewports, so the
// caller may reuse the slice.
type Options struct {
	MaxFPS    int
	Viewports []image.Rectangle
	Logger    *slog.Logger
}

// Scheduler paces rendering of a scene onto a device. It runs on the calling
// goroutine; only Stats may be read from elsewhere.
type Scheduler struct {
	device    Device
	scene     Scene
	clock     Clock
	period    time.Duration
	viewports []image.Rectangle
	logger    *slog.Logger

	terminated bool
	stats      Stats
}

// NewScheduler builds a scheduler for dev. A nil clock uses the system clock.
func NewScheduler(opts Options, dev Device, scene Scene, clock Clock) *Scheduler {
	if clock == nil {
		clock = NewSystemClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	viewports := make([]image.Rectangle, len(opts.Viewports))
	copy(viewports, opts.Viewports)

	return &Scheduler{
		device:    dev,
		scene:     scene,
		clock:     clock,
		period:    FramePeriod(opts.MaxFPS),
		viewports: viewports,
		logger:    logger,
	}
}

// Period is the target frame period; 0 means unpaced.
func (s *Scheduler) Period() time.Duration { return s.period }

// Stats exposes the frame counters.
func (s *Scheduler) Stats() *Stats { return &s.stats }

// Terminated reports whether the loop has observed a termination request.
func (s *Scheduler) Terminated() bool { return s.terminated }

// Run drives frames until ctx is cancelled or the device reports
// termination.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("frame loop started",
		"period", s.period,
		"viewports", len(s.viewports))

	for s.Step(ctx) {
	}

	snap := s.stats.Snapshot()
	s.logger.Info("frame loop stopped",
		"frames", snap.FramesDrawn,
		"skipped", snap.SkippedIterations,
		"overruns", snap.Overruns)
	return nil
}

// Step runs one iteration of the loop and reports whether the loop is still
// running. Once Step returns false it keeps returning false without drawing.
func (s *Scheduler) Step(ctx context.Context) bool {
	if s.terminated {
		return false
	}

	if ctx.Err() != nil || s.device.PollEvents() == EventTerminate {
		s.terminated = true
		return false
	}

	if !s.device.Available() {
		s.stats.skipped.Add(1)
		s.logger.Debug("device unavailable, skipping frame")
		s.clock.Sleep(max(s.period, unavailableBackoff))
		return true
	}

	start := s.clock.Now()
	seconds := start.Seconds()
	bg := s.scene.ClearColor()

	if len(s.viewports) > 0 {
		// Each viewport owns part of a shared surface; clearing color would
		// paint over its neighbours.
		for _, vp := range s.viewports {
			s.device.SetViewport(vp)
			s.drawOnce(false, bg, seconds)
		}
	} else {
		s.device.SetViewport(s.device.Bounds())
		s.drawOnce(true, bg, seconds)
	}
	s.stats.frames.Add(1)

	end := s.clock.Now()
	elapsed := end - start
	s.stats.lastFrame.Store(int64(elapsed))
	if s.period > 0 && elapsed > s.period {
		s.stats.overruns.Add(1)
	}

	s.clock.Sleep(SleepFor(s.period, elapsed))
	return true
}

func (s *Scheduler) drawOnce(clearColor bool, c color.RGBA, seconds float64) {
	if err := s.device.BeginFrame(clearColor, true, c); err != nil {
		s.drawFailed("begin frame", err)
		return
	}
	if err := s.device.DrawScene(seconds); err != nil {
		s.drawFailed("draw scene", err)
	}
	if err := s.device.EndFrame(); err != nil {
		s.drawFailed("end frame", err)
	}
}

func (s *Scheduler) drawFailed(stage string, err error) {
	s.stats.drawErrors.Add(1)
	s.logger.Debug("draw failed", "stage", stage, "error", err)
}
