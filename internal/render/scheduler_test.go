package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gogpu/gg"
)

type fakeClock struct {
	now    time.Duration
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Duration { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now += d
}

type call struct {
	op         string
	rect       image.Rectangle
	clearColor bool
	clearDepth bool
}

type fakeDevice struct {
	clock       *fakeClock
	drawCost    time.Duration
	terminateAt int // PollEvents call index that returns terminate; 0 = never
	unavailable map[int]bool
	beginErr    error
	drawErr     error

	polls   int
	calls   []call
	seconds []float64
}

func (d *fakeDevice) Available() bool { return !d.unavailable[d.polls] }

func (d *fakeDevice) Capabilities() Capabilities { return Capabilities{RenderToTarget: true} }

func (d *fakeDevice) Bounds() image.Rectangle { return image.Rect(0, 0, 4480, 1440) }

func (d *fakeDevice) SetViewport(r image.Rectangle) {
	d.calls = append(d.calls, call{op: "viewport", rect: r})
}

func (d *fakeDevice) BeginFrame(clearColor, clearDepth bool, _ color.RGBA) error {
	d.calls = append(d.calls, call{op: "begin", clearColor: clearColor, clearDepth: clearDepth})
	return d.beginErr
}

func (d *fakeDevice) DrawScene(seconds float64) error {
	d.calls = append(d.calls, call{op: "draw"})
	d.seconds = append(d.seconds, seconds)
	if d.clock != nil {
		d.clock.now += d.drawCost
	}
	return d.drawErr
}

func (d *fakeDevice) EndFrame() error {
	d.calls = append(d.calls, call{op: "end"})
	return nil
}

func (d *fakeDevice) PollEvents() Event {
	d.polls++
	if d.terminateAt > 0 && d.polls >= d.terminateAt {
		return EventTerminate
	}
	return EventContinue
}

func (d *fakeDevice) Close() error { return nil }

type fakeScene struct{}

func (fakeScene) ClearColor() color.RGBA { return color.RGBA{R: 1, G: 2, B: 3, A: 255} }

func (fakeScene) Draw(*gg.Context, image.Rectangle, float64) error { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func countOps(calls []call, op string) int {
	n := 0
	for _, c := range calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func TestScheduler_MultiViewportProtocol(t *testing.T) {
	viewports := []image.Rectangle{
		image.Rect(0, 0, 2560, 1440),
		image.Rect(2560, 0, 4480, 1080),
		image.Rect(0, 0, 2560, 1440),
	}
	clock := &fakeClock{}
	dev := &fakeDevice{clock: clock}
	s := NewScheduler(Options{MaxFPS: 30, Viewports: viewports, Logger: quietLogger()}, dev, fakeScene{}, clock)

	if !s.Step(context.Background()) {
		t.Fatal("expected loop to keep running")
	}

	if len(dev.calls) != 4*len(viewports) {
		t.Fatalf("expected %d calls, got %d: %+v", 4*len(viewports), len(dev.calls), dev.calls)
	}
	for i, vp := range viewports {
		group := dev.calls[i*4 : i*4+4]
		if group[0].op != "viewport" || group[0].rect != vp {
			t.Fatalf("viewport %d: expected region %v first, got %+v", i, vp, group[0])
		}
		if group[1].op != "begin" || group[2].op != "draw" || group[3].op != "end" {
			t.Fatalf("viewport %d: unexpected protocol order %+v", i, group)
		}
		if group[1].clearColor {
			t.Fatalf("viewport %d: color buffer must not be cleared", i)
		}
		if !group[1].clearDepth {
			t.Fatalf("viewport %d: depth/stencil must be cleared", i)
		}
	}
}

func TestScheduler_WindowedDrawsOnceWithFullClear(t *testing.T) {
	clock := &fakeClock{}
	dev := &fakeDevice{clock: clock}
	s := NewScheduler(Options{MaxFPS: 30, Logger: quietLogger()}, dev, fakeScene{}, clock)

	s.Step(context.Background())

	if got := countOps(dev.calls, "begin"); got != 1 {
		t.Fatalf("expected one begin per iteration, got %d", got)
	}
	if got := countOps(dev.calls, "draw"); got != 1 {
		t.Fatalf("expected one draw per iteration, got %d", got)
	}
	if dev.calls[0].op != "viewport" || dev.calls[0].rect != dev.Bounds() {
		t.Fatalf("expected full-surface region, got %+v", dev.calls[0])
	}
	begin := dev.calls[1]
	if !begin.clearColor || !begin.clearDepth {
		t.Fatalf("expected color and depth clear, got %+v", begin)
	}
}

func TestScheduler_TerminationStopsDrawing(t *testing.T) {
	clock := &fakeClock{}
	dev := &fakeDevice{clock: clock, terminateAt: 3}
	s := NewScheduler(Options{MaxFPS: 60, Logger: quietLogger()}, dev, fakeScene{}, clock)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !s.Terminated() {
		t.Fatal("expected scheduler to be terminated")
	}
	if got := countOps(dev.calls, "draw"); got != 2 {
		t.Fatalf("expected 2 draws before termination, got %d", got)
	}

	before := len(dev.calls)
	if s.Step(context.Background()) {
		t.Fatal("terminated scheduler must not resume")
	}
	if len(dev.calls) != before {
		t.Fatalf("terminated scheduler issued %d more calls", len(dev.calls)-before)
	}
}

func TestScheduler_ContextCancelTerminates(t *testing.T) {
	clock := &fakeClock{}
	dev := &fakeDevice{clock: clock}
	s := NewScheduler(Options{MaxFPS: 30, Logger: quietLogger()}, dev, fakeScene{}, clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if s.Step(ctx) {
		t.Fatal("expected cancelled context to terminate the loop")
	}
	if len(dev.calls) != 0 {
		t.Fatalf("expected no draw calls, got %+v", dev.calls)
	}
}

func TestScheduler_PacingSleepsRemainder(t *testing.T) {
	clock := &fakeClock{}
	dev := &fakeDevice{clock: clock, drawCost: 12 * time.Millisecond}
	s := NewScheduler(Options{MaxFPS: 25, Logger: quietLogger()}, dev, fakeScene{}, clock)

	s.Step(context.Background())

	if len(clock.sleeps) != 1 || clock.sleeps[0] != 28*time.Millisecond {
		t.Fatalf("expected a single 28ms sleep, got %v", clock.sleeps)
	}
}

func TestScheduler_OverrunDoesNotUnderflow(t *testing.T) {
	clock := &fakeClock{}
	dev := &fakeDevice{clock: clock, drawCost: 250 * time.Millisecond}
	s := NewScheduler(Options{MaxFPS: 30, Logger: quietLogger()}, dev, fakeScene{}, clock)

	s.Step(context.Background())

	if len(clock.sleeps) != 1 || clock.sleeps[0] != 0 {
		t.Fatalf("expected zero sleep after an overrun, got %v", clock.sleeps)
	}
	if got := s.Stats().Snapshot().Overruns; got != 1 {
		t.Fatalf("expected 1 overrun, got %d", got)
	}
}

func TestScheduler_ZeroFPSIsUnpaced(t *testing.T) {
	clock := &fakeClock{}
	dev := &fakeDevice{clock: clock, drawCost: time.Millisecond}
	s := NewScheduler(Options{MaxFPS: 0, Logger: quietLogger()}, dev, fakeScene{}, clock)

	s.Step(context.Background())

	if s.Period() != 0 {
		t.Fatalf("expected zero period, got %v", s.Period())
	}
	if clock.sleeps[0] != 0 {
		t.Fatalf("expected no pacing delay, got %v", clock.sleeps[0])
	}
}

func TestScheduler_UnavailableDeviceSkipsButKeepsRunning(t *testing.T) {
	clock := &fakeClock{}
	dev := &fakeDevice{clock: clock, unavailable: map[int]bool{1: true}}
	s := NewScheduler(Options{MaxFPS: 30, Logger: quietLogger()}, dev, fakeScene{}, clock)

	if !s.Step(context.Background()) {
		t.Fatal("unavailable device must not stop the loop")
	}
	if len(dev.calls) != 0 {
		t.Fatalf("expected no draw calls while unavailable, got %+v", dev.calls)
	}
	if !s.Step(context.Background()) {
		t.Fatal("expected second iteration to run")
	}
	if got := countOps(dev.calls, "draw"); got != 1 {
		t.Fatalf("expected draw to resume, got %d draws", got)
	}

	snap := s.Stats().Snapshot()
	if snap.SkippedIterations != 1 || snap.FramesDrawn != 1 {
		t.Fatalf("unexpected stats %+v", snap)
	}
}

func TestScheduler_UnavailableDeviceBacksOff(t *testing.T) {
	tests := []struct {
		name   string
		maxFPS int
		want   time.Duration
	}{
		{name: "paced", maxFPS: 25, want: 40 * time.Millisecond},
		{name: "fast pacing", maxFPS: 500, want: unavailableBackoff},
		{name: "unpaced", maxFPS: 0, want: unavailableBackoff},
		{name: "negative fps", maxFPS: -1, want: unavailableBackoff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{}
			dev := &fakeDevice{clock: clock, unavailable: map[int]bool{1: true}}
			s := NewScheduler(Options{MaxFPS: tt.maxFPS, Logger: quietLogger()}, dev, fakeScene{}, clock)

			s.Step(context.Background())

			if len(clock.sleeps) != 1 || clock.sleeps[0] != tt.want {
				t.Fatalf("sleeps = %v, want [%v]", clock.sleeps, tt.want)
			}
		})
	}
}

func TestScheduler_DrawErrorsAreCountedNotFatal(t *testing.T) {
	clock := &fakeClock{}
	dev := &fakeDevice{clock: clock, drawErr: errors.New("lost context")}
	s := NewScheduler(Options{MaxFPS: 30, Logger: quietLogger()}, dev, fakeScene{}, clock)

	for i := 0; i < 3; i++ {
		if !s.Step(context.Background()) {
			t.Fatalf("iteration %d: draw errors must not stop the loop", i)
		}
	}
	if got := countOps(dev.calls, "end"); got != 3 {
		t.Fatalf("expected end frame after failed draws, got %d", got)
	}
	if got := s.Stats().Snapshot().DrawErrors; got != 3 {
		t.Fatalf("expected 3 draw errors, got %d", got)
	}
}

func TestScheduler_BeginErrorSkipsDrawAndEnd(t *testing.T) {
	clock := &fakeClock{}
	dev := &fakeDevice{clock: clock, beginErr: errors.New("no surface")}
	s := NewScheduler(Options{MaxFPS: 30, Logger: quietLogger()}, dev, fakeScene{}, clock)

	s.Step(context.Background())

	if countOps(dev.calls, "draw") != 0 || countOps(dev.calls, "end") != 0 {
		t.Fatalf("expected no draw/end after begin failure, got %+v", dev.calls)
	}
}

func TestScheduler_AnimationTimeFromStartSample(t *testing.T) {
	clock := &fakeClock{now: 1500 * time.Millisecond}
	dev := &fakeDevice{clock: clock}
	s := NewScheduler(Options{MaxFPS: 30, Logger: quietLogger()}, dev, fakeScene{}, clock)

	s.Step(context.Background())

	if len(dev.seconds) != 1 || dev.seconds[0] != 1.5 {
		t.Fatalf("expected animation time 1.5s, got %v", dev.seconds)
	}
}

func TestScheduler_CopiesViewports(t *testing.T) {
	viewports := []image.Rectangle{image.Rect(0, 0, 10, 10)}
	clock := &fakeClock{}
	dev := &fakeDevice{clock: clock}
	s := NewScheduler(Options{MaxFPS: 30, Viewports: viewports, Logger: quietLogger()}, dev, fakeScene{}, clock)

	viewports[0] = image.Rect(5, 5, 6, 6)
	s.Step(context.Background())

	if dev.calls[0].rect != image.Rect(0, 0, 10, 10) {
		t.Fatalf("scheduler viewport changed after construction: %v", dev.calls[0].rect)
	}
}
