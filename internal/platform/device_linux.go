//go:build linux

package platform

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/1broseidon/wallrender/internal/render"
	"github.com/1broseidon/wallrender/internal/x11"
	"github.com/gogpu/gg"
)

// DeviceOptions configures a SoftwareDevice.
type DeviceOptions struct {
	// Root draws onto the desktop root window instead of a new window.
	Root    bool
	Display string

	Title  string
	Width  int
	Height int

	Scene  render.Scene
	Logger *slog.Logger
}

// surface is the part of an *x11.Surface the device draws through.
type surface interface {
	Size() (int, int)
	Ready() bool
	Blit(src image.Image, r image.Rectangle)
	Present(r image.Rectangle) error
	PollEvents() x11.SurfaceEvent
	ApplyResize() (int, int, error)
	Reallocate() error
	Destroy()
}

var _ surface = (*x11.Surface)(nil)

// SoftwareDevice renders with a gg software canvas and presents the result
// on an X11 surface.
type SoftwareDevice struct {
	conn    *x11.Connection
	surface surface
	dc      *gg.Context
	scene   render.Scene
	logger  *slog.Logger

	bounds image.Rectangle
	active image.Rectangle
}

var _ render.Device = (*SoftwareDevice)(nil)

// NewSoftwareDevice connects to the X server and creates the drawing surface.
func NewSoftwareDevice(opts DeviceOptions) (*SoftwareDevice, error) {
	if opts.Scene == nil {
		return nil, errors.New("render device requires a scene")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := x11.NewConnection(opts.Display)
	if err != nil {
		return nil, err
	}

	var xs *x11.Surface
	if opts.Root {
		xs, err = x11.NewRootSurface(conn, logger)
	} else {
		if opts.Width <= 0 || opts.Height <= 0 {
			conn.Close()
			return nil, fmt.Errorf("invalid window size %dx%d", opts.Width, opts.Height)
		}
		xs, err = x11.NewWindowSurface(conn, opts.Title, opts.Width, opts.Height)
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create render surface: %w", err)
	}

	d := newSoftwareDevice(xs, opts.Scene, logger)
	d.conn = conn

	logger.Debug("render device created",
		"root", xs.IsRoot(),
		"window", uint32(xs.Window()),
		"width", d.bounds.Dx(),
		"height", d.bounds.Dy())
	return d, nil
}

func newSoftwareDevice(s surface, scene render.Scene, logger *slog.Logger) *SoftwareDevice {
	w, h := s.Size()
	d := &SoftwareDevice{
		surface: s,
		dc:      gg.NewContext(w, h),
		scene:   scene,
		logger:  logger,
		bounds:  image.Rect(0, 0, w, h),
	}
	d.active = d.bounds
	return d
}

// Available reports whether the surface has a backing image.
func (d *SoftwareDevice) Available() bool {
	return d.surface.Ready()
}

// Capabilities reports a canvas that renders to an offscreen target but has
// no programmable shader stages.
func (d *SoftwareDevice) Capabilities() render.Capabilities {
	return render.Capabilities{RenderToTarget: true}
}

func (d *SoftwareDevice) Bounds() image.Rectangle { return d.bounds }

// SetViewport restricts the next frame to r, clipped to the surface.
func (d *SoftwareDevice) SetViewport(r image.Rectangle) {
	d.active = r.Intersect(d.bounds)
}

// BeginFrame prepares the canvas for the active viewport. clearColor paints
// the whole surface with c; clearDepth has nothing to clear on a 2D canvas.
func (d *SoftwareDevice) BeginFrame(clearColor, _ bool, c color.RGBA) error {
	if d.active.Empty() {
		return fmt.Errorf("viewport outside surface %v", d.bounds)
	}

	d.dc.ResetClip()
	d.dc.Identity()
	if clearColor {
		d.dc.ClearWithColor(gg.FromColor(c))
	}
	d.dc.ClipRect(
		float64(d.active.Min.X), float64(d.active.Min.Y),
		float64(d.active.Dx()), float64(d.active.Dy()))
	d.dc.Translate(float64(d.active.Min.X), float64(d.active.Min.Y))
	return nil
}

// DrawScene draws the scene in viewport-local coordinates.
func (d *SoftwareDevice) DrawScene(seconds float64) error {
	return d.scene.Draw(d.dc, localBounds(d.active), seconds)
}

// EndFrame copies the active viewport to the surface and presents it.
func (d *SoftwareDevice) EndFrame() error {
	d.surface.Blit(canvasView(d.dc), d.active)
	return d.surface.Present(d.active)
}

// canvasView aliases the canvas pixels as an *image.RGBA. Both hold
// premultiplied RGBA rows, so nothing is copied; the view is only valid
// until the canvas is resized.
func canvasView(dc *gg.Context) *image.RGBA {
	pm := dc.ResizeTarget()
	return &image.RGBA{
		Pix:    pm.Data(),
		Stride: pm.Width() * 4,
		Rect:   image.Rect(0, 0, pm.Width(), pm.Height()),
	}
}

// PollEvents drains pending X events. A closed window terminates; a resize
// rebuilds the canvas.
func (d *SoftwareDevice) PollEvents() render.Event {
	switch d.surface.PollEvents() {
	case x11.SurfaceClosed:
		return render.EventTerminate
	case x11.SurfaceResized:
		d.resize()
	}

	if !d.surface.Ready() {
		if err := d.surface.Reallocate(); err != nil {
			d.logger.Debug("surface still unavailable", "error", err)
		}
	}
	return render.EventContinue
}

func (d *SoftwareDevice) resize() {
	w, h, err := d.surface.ApplyResize()
	if err != nil {
		d.logger.Warn("failed to reallocate surface", "width", w, "height", h, "error", err)
	}
	if err := d.dc.Resize(w, h); err != nil {
		d.logger.Warn("failed to resize canvas", "width", w, "height", h, "error", err)
		return
	}
	d.bounds = image.Rect(0, 0, w, h)
	d.active = d.bounds
	d.logger.Info("surface resized", "width", w, "height", h)
}

// Close releases the canvas, the surface and the X connection.
func (d *SoftwareDevice) Close() error {
	var err error
	if d.surface != nil {
		d.surface.Destroy()
	}
	if d.dc != nil {
		err = d.dc.Close()
	}
	if d.conn != nil {
		d.conn.Close()
	}
	return err
}

// localBounds is r moved to the origin.
func localBounds(r image.Rectangle) image.Rectangle {
	return r.Sub(r.Min)
}
