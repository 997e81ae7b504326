package render

import (
	"image"
	"image/color"

	"github.com/gogpu/gg"
)

// Event is the result of polling the window system once.
type Event int

const (
	EventContinue Event = iota
	EventTerminate
)

// Capabilities describes optional device features.
type Capabilities struct {
	PixelShaders   bool
	VertexShaders  bool
	RenderToTarget bool
}

// Device is a rendering context bound to one drawing surface. It is owned by
// a single Scheduler and must not be used concurrently.
type Device interface {
	// Available reports whether the device can draw right now. A false
	// result is transient; the caller retries on the next iteration.
	Available() bool
	Capabilities() Capabilities

	// Bounds is the full drawing surface.
	Bounds() image.Rectangle
	// SetViewport restricts the following frame to r.
	SetViewport(r image.Rectangle)

	BeginFrame(clearColor, clearDepth bool, c color.RGBA) error
	DrawScene(seconds float64) error
	EndFrame() error

	PollEvents() Event
	Close() error
}

// Scene draws the wallpaper content. Draw receives a canvas whose origin is
// the upper-left corner of the viewport; bounds is the viewport moved to the
// origin.
type Scene interface {
	ClearColor() color.RGBA
	Draw(dc *gg.Context, bounds image.Rectangle, seconds float64) error
}
