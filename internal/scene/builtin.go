package scene

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gg"
)

// Solid fills the viewport with a single color.
type Solid struct {
	Color color.RGBA
}

func (s *Solid) ClearColor() color.RGBA { return s.Color }

func (s *Solid) Draw(dc *gg.Context, bounds image.Rectangle, _ float64) error {
	dc.SetColor(s.Color)
	dc.DrawRectangle(0, 0, float64(bounds.Dx()), float64(bounds.Dy()))
	return dc.Fill()
}

// Gradient is a diagonal two-stop gradient whose hue drifts over time.
type Gradient struct {
	Base color.RGBA
	// Speed is the hue drift in degrees per second.
	Speed float64
}

func (g *Gradient) ClearColor() color.RGBA { return g.Base }

func (g *Gradient) Draw(dc *gg.Context, bounds image.Rectangle, seconds float64) error {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	hue := math.Mod(baseHue(g.Base)+seconds*g.Speed, 360)

	angle := seconds * 0.05
	cx, cy := w/2, h/2
	dx, dy := math.Cos(angle)*w/2, math.Sin(angle)*h/2

	brush := gg.NewLinearGradientBrush(cx-dx, cy-dy, cx+dx, cy+dy).
		AddColorStop(0, gg.HSL(hue, 0.55, 0.18)).
		AddColorStop(1, gg.HSL(hue+70, 0.60, 0.42))
	dc.SetFillBrush(brush)
	dc.DrawRectangle(0, 0, w, h)
	return dc.Fill()
}

// Aurora draws translucent sine bands over the background color.
type Aurora struct {
	Background color.RGBA
	Bands      []Band
}

// Band is one layer of an Aurora.
type Band struct {
	Hue       float64
	Amplitude float64 // fraction of the viewport height
	Offset    float64 // baseline as a fraction of the viewport height
	Frequency float64 // waves across the viewport
	Speed     float64 // radians per second
	Alpha     float64
}

// NewAurora returns the default band layout over background.
func NewAurora(background color.RGBA) *Aurora {
	return &Aurora{
		Background: background,
		Bands: []Band{
			{Hue: 150, Amplitude: 0.08, Offset: 0.45, Frequency: 1.3, Speed: 0.35, Alpha: 0.35},
			{Hue: 190, Amplitude: 0.06, Offset: 0.55, Frequency: 2.1, Speed: -0.25, Alpha: 0.25},
			{Hue: 280, Amplitude: 0.10, Offset: 0.65, Frequency: 0.8, Speed: 0.15, Alpha: 0.20},
		},
	}
}

func (a *Aurora) ClearColor() color.RGBA { return a.Background }

// aurora resolution: one path vertex every this many pixels.
const auroraStep = 8.0

func (a *Aurora) Draw(dc *gg.Context, bounds image.Rectangle, seconds float64) error {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())

	dc.SetColor(a.Background)
	dc.DrawRectangle(0, 0, w, h)
	if err := dc.Fill(); err != nil {
		return err
	}

	for _, b := range a.Bands {
		c := gg.HSL(b.Hue+10*math.Sin(seconds*0.1), 0.7, 0.55)
		dc.SetRGBA(c.R, c.G, c.B, b.Alpha)

		dc.MoveTo(0, h)
		for x := 0.0; x <= w+auroraStep; x += auroraStep {
			dc.LineTo(x, bandY(b, x, w, h, seconds))
		}
		dc.LineTo(w, h)
		dc.ClosePath()
		if err := dc.Fill(); err != nil {
			return err
		}
	}
	return nil
}

// bandY is the top edge of band b at column x.
func bandY(b Band, x, w, h, seconds float64) float64 {
	phase := 2 * math.Pi * b.Frequency * x / math.Max(w, 1)
	return h * (b.Offset + b.Amplitude*math.Sin(phase+seconds*b.Speed))
}

// baseHue is the HSL hue of c in degrees.
func baseHue(c color.RGBA) float64 {
	r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	maxc := math.Max(r, math.Max(g, b))
	minc := math.Min(r, math.Min(g, b))
	d := maxc - minc
	if d == 0 {
		return 0
	}

	var h float64
	switch maxc {
	case r:
		h = math.Mod((g-b)/d, 6)
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	return h
}
