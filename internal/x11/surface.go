package x11

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xgraphics"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

var changeProp32Fn = xprop.ChangeProp32

// rootPixmapProps are the root window properties compositors and
// pseudo-transparent clients read the background pixmap from.
var rootPixmapProps = []string{"_XROOTPMAP_ID", "ESETROOT_PMAP_ID"}

// SurfaceEvent summarizes the window-system events drained by PollEvents.
type SurfaceEvent int

const (
	SurfaceIdle SurfaceEvent = iota
	SurfaceResized
	SurfaceClosed
)

// Surface is a drawable X window (an ordinary top-level window or the root
// window) backed by a client-side BGRA image and a server-side pixmap.
type Surface struct {
	conn   *Connection
	window xproto.Window
	root   bool
	logger *slog.Logger

	width  int
	height int
	img    *xgraphics.Image

	deleteAtom xproto.Atom
	pendingW   int
	pendingH   int
}

// NewWindowSurface creates and maps a top-level window.
func NewWindowSurface(conn *Connection, title string, width, height int) (*Surface, error) {
	win, err := xwindow.Generate(conn.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate window id: %w", err)
	}

	err = win.CreateChecked(conn.Root, 0, 0, width, height,
		xproto.CwBackPixel|xproto.CwEventMask,
		0, xproto.EventMaskStructureNotify)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Window managers ignore failures here; the window is still usable.
	_ = ewmh.WmNameSet(conn.XUtil, win.Id, title)
	_ = icccm.WmNameSet(conn.XUtil, win.Id, title)

	deleteAtom, err := xprop.Atm(conn.XUtil, "WM_DELETE_WINDOW")
	if err != nil {
		win.Destroy()
		return nil, fmt.Errorf("failed to intern WM_DELETE_WINDOW: %w", err)
	}
	if err := icccm.WmProtocolsSet(conn.XUtil, win.Id, []string{"WM_DELETE_WINDOW"}); err != nil {
		win.Destroy()
		return nil, fmt.Errorf("failed to set WM_PROTOCOLS: %w", err)
	}

	s := &Surface{
		conn:       conn,
		window:     win.Id,
		width:      width,
		height:     height,
		deleteAtom: deleteAtom,
	}
	if err := s.allocate(); err != nil {
		win.Destroy()
		return nil, err
	}

	win.Map()
	return s, nil
}

// NewRootSurface draws onto the root window. The image is published as the
// root background pixmap so compositors can pick it up. A nil logger uses
// slog.Default.
func NewRootSurface(conn *Connection, logger *slog.Logger) (*Surface, error) {
	if logger == nil {
		logger = slog.Default()
	}
	width, height, err := conn.RootSize()
	if err != nil {
		return nil, err
	}

	// Screen size changes arrive as ConfigureNotify on the root window.
	if err := xwindow.New(conn.XUtil, conn.Root).Listen(xproto.EventMaskStructureNotify); err != nil {
		return nil, fmt.Errorf("failed to listen on root window: %w", err)
	}

	s := &Surface{
		conn:   conn,
		window: conn.Root,
		root:   true,
		logger: logger,
		width:  width,
		height: height,
	}
	if err := s.allocate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Surface) allocate() error {
	img := xgraphics.New(s.conn.XUtil, image.Rect(0, 0, s.width, s.height))
	if err := img.XSurfaceSet(s.window); err != nil {
		return fmt.Errorf("failed to create %dx%d pixmap: %w", s.width, s.height, err)
	}
	s.img = img

	if s.root {
		s.publishRootPixmap(uint(img.Pixmap))
	}
	return nil
}

// publishRootPixmap points the root background properties at pixmap. The
// surface stays usable when this fails; only compositors miss the image.
func (s *Surface) publishRootPixmap(pixmap uint) {
	for _, prop := range rootPixmapProps {
		if err := changeProp32Fn(s.conn.XUtil, s.window, prop, "PIXMAP", pixmap); err != nil {
			s.logger.Debug("failed to publish root pixmap",
				"property", prop,
				"pixmap", pixmap,
				"error", err)
		}
	}
}

// Window returns the X window the surface paints.
func (s *Surface) Window() xproto.Window { return s.window }

// IsRoot reports whether the surface is the root window.
func (s *Surface) IsRoot() bool { return s.root }

// Size returns the surface size in pixels.
func (s *Surface) Size() (int, int) { return s.width, s.height }

// Ready reports whether the backing image exists.
func (s *Surface) Ready() bool { return s != nil && s.img != nil }

// Blit copies the r portion of src into the backing image.
func (s *Surface) Blit(src image.Image, r image.Rectangle) {
	if s.img == nil {
		return
	}
	copyToBGRA(s.img, src, r)
}

// Present sends the r portion of the backing image to the server and
// repaints it on the window.
func (s *Surface) Present(r image.Rectangle) error {
	if s.img == nil {
		return fmt.Errorf("surface has no backing image")
	}
	r = r.Intersect(s.img.Bounds())
	if r.Empty() {
		return nil
	}
	if r == s.img.Bounds() {
		if err := s.img.XDrawChecked(); err != nil {
			return fmt.Errorf("failed to upload frame: %w", err)
		}
		s.img.XPaint(s.window)
		return nil
	}
	s.img.XPaintRects(s.window, r)
	return nil
}

// PollEvents drains pending X events without blocking.
func (s *Surface) PollEvents() SurfaceEvent {
	result := SurfaceIdle
	for {
		ev, xerr := s.conn.XUtil.Conn().PollForEvent()
		if ev == nil && xerr == nil {
			break
		}
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case xproto.ClientMessageEvent:
			if !s.root && e.Format == 32 && xproto.Atom(e.Data.Data32[0]) == s.deleteAtom {
				result = SurfaceClosed
			}
		case xproto.DestroyNotifyEvent:
			if !s.root && e.Window == s.window {
				result = SurfaceClosed
			}
		case xproto.ConfigureNotifyEvent:
			if e.Window != s.window {
				continue
			}
			w, h := int(e.Width), int(e.Height)
			if w > 0 && h > 0 && (w != s.width || h != s.height) {
				s.pendingW, s.pendingH = w, h
				if result != SurfaceClosed {
					result = SurfaceResized
				}
			}
		}
	}
	return result
}

// ApplyResize reallocates the backing image for the most recent size seen
// by PollEvents. It returns the new size.
func (s *Surface) ApplyResize() (int, int, error) {
	if s.pendingW == 0 || s.pendingH == 0 {
		return s.width, s.height, nil
	}
	if s.img != nil {
		s.img.Destroy()
		s.img = nil
	}
	s.width, s.height = s.pendingW, s.pendingH
	s.pendingW, s.pendingH = 0, 0
	if err := s.allocate(); err != nil {
		return s.width, s.height, err
	}
	return s.width, s.height, nil
}

// Reallocate recreates the backing image after a failed allocation.
func (s *Surface) Reallocate() error {
	if s.img != nil {
		return nil
	}
	return s.allocate()
}

// Destroy releases the pixmap and, for ordinary windows, the window.
func (s *Surface) Destroy() {
	if s.img != nil {
		s.img.Destroy()
		s.img = nil
	}
	if !s.root && s.window != 0 {
		xproto.DestroyWindow(s.conn.XUtil.Conn(), s.window)
		s.window = 0
	}
}

func copyToBGRA(dst *xgraphics.Image, src image.Image, r image.Rectangle) {
	r = r.Intersect(dst.Bounds()).Intersect(src.Bounds())
	if r.Empty() {
		return
	}

	if rgba, ok := src.(*image.RGBA); ok {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			si := rgba.PixOffset(r.Min.X, y)
			for x := r.Min.X; x < r.Max.X; x++ {
				dst.SetBGRA(x, y, xgraphics.BGRA{
					R: rgba.Pix[si],
					G: rgba.Pix[si+1],
					B: rgba.Pix[si+2],
					A: rgba.Pix[si+3],
				})
				si += 4
			}
		}
		return
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := color.RGBAModel.Convert(src.At(x, y)).(color.RGBA)
			dst.SetBGRA(x, y, xgraphics.BGRA{R: c.R, G: c.G, B: c.B, A: c.A})
		}
	}
}
