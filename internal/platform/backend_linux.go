//go:build linux

package platform

import (
	"fmt"

	"github.com/1broseidon/wallrender/internal/x11"
)

// LinuxBackend wraps an existing X11 connection behind OutputSource.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ OutputSource = (*LinuxBackend)(nil)

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh
// X11 connection. An empty display uses $DISPLAY.
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, err
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Outputs enumerates RandR outputs in server order. The error wraps
// x11.ErrRandRUnavailable or x11.ErrNoScreenResources when discovery cannot
// run; callers treat both as "no outputs".
func (b *LinuxBackend) Outputs() ([]Output, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	xouts, err := conn.Outputs()
	if err != nil {
		return nil, err
	}
	return outputsFromX11(xouts), nil
}

// DiscoverOutputs opens a short-lived connection to display, enumerates
// outputs, and releases the connection on every return path.
func DiscoverOutputs(display string) ([]Output, error) {
	b, err := NewLinuxBackendFromDisplay(display)
	if err != nil {
		return nil, err
	}
	defer b.Disconnect()
	return b.Outputs()
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func outputsFromX11(xouts []x11.Output) []Output {
	outputs := make([]Output, 0, len(xouts))
	for _, o := range xouts {
		out := Output{Name: o.Name, Connected: o.Connected}
		if o.Geometry != nil {
			out.Geometry = &Rect{
				X:      o.Geometry.X,
				Y:      o.Geometry.Y,
				Width:  o.Geometry.Width,
				Height: o.Geometry.Height,
			}
		}
		outputs = append(outputs, out)
	}
	return outputs
}
