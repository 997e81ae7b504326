package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

var (
	// ErrRandRUnavailable means the server does not expose the RandR extension.
	ErrRandRUnavailable = errors.New("randr extension unavailable")
	// ErrNoScreenResources means RandR is present but returned no screen resources.
	ErrNoScreenResources = errors.New("randr returned no screen resources")
)

// Geometry is the position and size a CRTC assigns to an output.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Output is a physical output as reported by RandR. Geometry is nil when the
// output is not driven by a CRTC.
type Output struct {
	Name      string
	Connected bool
	Geometry  *Geometry
}

type outputInfo struct {
	name      string
	connected bool
	crtc      randr.Crtc
}

// outputQuerier is the slice of the RandR protocol discovery relies on.
type outputQuerier interface {
	init() error
	screenResources() ([]randr.Output, bool, error)
	outputInfo(o randr.Output) (*outputInfo, error)
	crtcGeometry(c randr.Crtc) (*Geometry, error)
}

// Outputs enumerates RandR outputs in server order.
func (c *Connection) Outputs() ([]Output, error) {
	return discover(&randrQuerier{conn: c.XUtil.Conn(), root: c.Root})
}

func discover(q outputQuerier) ([]Output, error) {
	if err := q.init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandRUnavailable, err)
	}

	ids, ok, err := q.screenResources()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoScreenResources, err)
	}
	if !ok {
		return nil, ErrNoScreenResources
	}

	outputs := make([]Output, 0, len(ids))
	for _, id := range ids {
		info, err := q.outputInfo(id)
		if err != nil || info == nil {
			continue
		}

		out := Output{
			Name:      info.name,
			Connected: info.connected,
		}
		if info.crtc != 0 {
			if geom, err := q.crtcGeometry(info.crtc); err == nil && geom != nil {
				out.Geometry = geom
			}
		}
		outputs = append(outputs, out)
	}

	return outputs, nil
}

type randrQuerier struct {
	conn      *xgb.Conn
	root      xproto.Window
	timestamp xproto.Timestamp
}

func (q *randrQuerier) init() error {
	return randr.Init(q.conn)
}

func (q *randrQuerier) screenResources() ([]randr.Output, bool, error) {
	resources, err := randr.GetScreenResources(q.conn, q.root).Reply()
	if err != nil {
		return nil, false, err
	}
	if resources == nil {
		return nil, false, nil
	}
	q.timestamp = resources.ConfigTimestamp
	return resources.Outputs, true, nil
}

func (q *randrQuerier) outputInfo(o randr.Output) (*outputInfo, error) {
	info, err := randr.GetOutputInfo(q.conn, o, q.timestamp).Reply()
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	return &outputInfo{
		name:      string(info.Name),
		connected: info.Connection == randr.ConnectionConnected,
		crtc:      info.Crtc,
	}, nil
}

func (q *randrQuerier) crtcGeometry(c randr.Crtc) (*Geometry, error) {
	crtc, err := randr.GetCrtcInfo(q.conn, c, q.timestamp).Reply()
	if err != nil {
		return nil, err
	}
	if crtc == nil {
		return nil, nil
	}
	return &Geometry{
		X:      int(crtc.X),
		Y:      int(crtc.Y),
		Width:  int(crtc.Width),
		Height: int(crtc.Height),
	}, nil
}
