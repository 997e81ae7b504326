// Package scene provides the built-in procedural wallpapers.
package scene

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"github.com/1broseidon/wallrender/internal/render"
)

// Default is the scene used when none is configured.
const Default = "aurora"

type factory func(clear color.RGBA) render.Scene

var registry = map[string]factory{
	"solid":    func(c color.RGBA) render.Scene { return &Solid{Color: c} },
	"gradient": func(c color.RGBA) render.Scene { return &Gradient{Base: c, Speed: 12} },
	"aurora":   func(c color.RGBA) render.Scene { return NewAurora(c) },
}

// Names lists the available scenes in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name is a built-in scene.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// New builds the named scene with the given background color.
func New(name string, clear color.RGBA) (render.Scene, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return f(clear), nil
}

// ParseColor parses "#RRGGBB" or "#RRGGBBAA". The leading '#' is optional.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: expected #RRGGBB or #RRGGBBAA", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// FormatColor is the inverse of ParseColor. Opaque colors omit the alpha byte.
func FormatColor(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
