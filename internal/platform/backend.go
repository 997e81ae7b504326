package platform

import "image"

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Rectangle converts r to an image.Rectangle with Min at the upper-left
// corner and Max at the lower-right corner.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Output describes a physical display output. Geometry is nil when no
// controller (CRTC) drives the output.
type Output struct {
	Name      string
	Connected bool
	Geometry  *Rect
}

// OutputSource enumerates physical outputs.
type OutputSource interface {
	Outputs() ([]Output, error)
}
