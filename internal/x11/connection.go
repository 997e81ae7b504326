package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window
}

// NewConnection connects to the X server named by display. An empty display
// uses $DISPLAY.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		if display == "" {
			return nil, fmt.Errorf("failed to connect to X11: %w", err)
		}
		return nil, fmt.Errorf("failed to connect to X11 display %s: %w", display, err)
	}

	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// RootSize returns the root window dimensions.
func (c *Connection) RootSize() (int, int, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query root geometry: %w", err)
	}
	return int(geom.Width), int(geom.Height), nil
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	if c == nil || c.XUtil == nil {
		return
	}
	c.XUtil.Conn().Close()
}
