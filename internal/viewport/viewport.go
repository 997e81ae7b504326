package viewport

import (
	"errors"
	"fmt"
	"image"

	"github.com/1broseidon/wallrender/internal/platform"
)

// Mode selects where the renderer draws.
type Mode int

const (
	ModeWindowed Mode = iota
	ModeRoot
)

func (m Mode) String() string {
	switch m {
	case ModeWindowed:
		return "windowed"
	case ModeRoot:
		return "root"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Target is the surface the render device is created against.
type Target int

const (
	TargetWindow Target = iota
	TargetRoot
)

func (t Target) String() string {
	switch t {
	case TargetWindow:
		return "window"
	case TargetRoot:
		return "root"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// Intent is the startup decision of where to draw. Outputs is ordered and may
// contain duplicates; order defines match order.
type Intent struct {
	Mode    Mode
	Outputs []string
}

// NewIntent derives the intent from the requested output names. Any name
// selects root-window mode.
func NewIntent(outputs []string) Intent {
	if len(outputs) == 0 {
		return Intent{Mode: ModeWindowed}
	}
	names := make([]string, len(outputs))
	copy(names, outputs)
	return Intent{Mode: ModeRoot, Outputs: names}
}

var errEmptyOutputName = errors.New("output name must not be empty")

// Validate checks that every requested output name is usable.
func (i Intent) Validate() error {
	for idx, name := range i.Outputs {
		if name == "" {
			return fmt.Errorf("outputs[%d]: %w", idx, errEmptyOutputName)
		}
	}
	return nil
}

// NeedsDiscovery reports whether outputs must be queried before resolving.
func (i Intent) NeedsDiscovery() bool {
	return i.Mode == ModeRoot && len(i.Outputs) > 0
}

// Viewport is a drawing region in screen coordinates. Rect.Min is the
// upper-left corner and Rect.Max the lower-right corner.
type Viewport struct {
	Output string
	Rect   image.Rectangle
}

// Plan is the resolved drawing plan. It is built once at startup and never
// modified.
type Plan struct {
	Target    Target
	Viewports []Viewport
}

// Rects returns the viewport rectangles in plan order.
func (p Plan) Rects() []image.Rectangle {
	if len(p.Viewports) == 0 {
		return nil
	}
	rects := make([]image.Rectangle, len(p.Viewports))
	for i, vp := range p.Viewports {
		rects[i] = vp.Rect
	}
	return rects
}

// FullSurface reports whether the plan draws a single full-surface frame.
func (p Plan) FullSurface() bool {
	return len(p.Viewports) == 0
}

// Resolve matches the requested output names against outputs. Each
// (requested name, connected output with geometry) pair yields one viewport,
// in requested-name order and then discovery order. No match is not an error:
// the plan falls back to full-surface drawing. Root mode always targets the
// root surface.
func Resolve(intent Intent, outputs []platform.Output) Plan {
	if intent.Mode != ModeRoot {
		return Plan{Target: TargetWindow}
	}

	plan := Plan{Target: TargetRoot}
	for _, name := range intent.Outputs {
		for _, out := range outputs {
			if !out.Connected || out.Geometry == nil || out.Name != name {
				continue
			}
			plan.Viewports = append(plan.Viewports, Viewport{
				Output: out.Name,
				Rect:   out.Geometry.Rectangle(),
			})
		}
	}
	return plan
}

// Unmatched returns the requested names that produced no viewport.
func Unmatched(intent Intent, plan Plan) []string {
	seen := make(map[string]bool, len(plan.Viewports))
	for _, vp := range plan.Viewports {
		seen[vp.Output] = true
	}
	var missing []string
	for _, name := range intent.Outputs {
		if !seen[name] {
			missing = append(missing, name)
			seen[name] = true
		}
	}
	return missing
}
