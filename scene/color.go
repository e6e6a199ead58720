package scene

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a straight (non-premultiplied) RGBA color.
// Each component is in the range [0, 1].
type Color struct {
	R, G, B, A float32
}

// Common colors
var (
	Black       = Color{0, 0, 0, 1}
	White       = Color{1, 1, 1, 1}
	Red         = Color{1, 0, 0, 1}
	Green       = Color{0, 1, 0, 1}
	Blue        = Color{0, 0, 1, 1}
	Transparent = Color{}
)

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float32) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// HSL creates an opaque color from hue [0, 360), saturation and lightness in [0, 1].
func HSL(h, s, l float64) Color {
	c := colorful.Hsl(h, s, l).Clamped()
	return RGB(float32(c.R), float32(c.G), float32(c.B))
}

// ParseHex parses "#RGB", "#RRGGBB" or "#RRGGBBAA". The leading '#' is optional.
func ParseHex(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")

	alpha := float32(1)
	if len(hex) == 8 {
		a, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("scene: invalid alpha in color %q: %w", s, err)
		}
		alpha = float32(a) / 255
		hex = hex[:6]
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return Color{}, fmt.Errorf("scene: invalid color %q: %w", s, err)
	}
	return Color{R: float32(c.R), G: float32(c.G), B: float32(c.B), A: alpha}, nil
}

// Hex formats the color as "#RRGGBBAA".
func (c Color) Hex() string {
	n := c.NRGBA()
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

// NRGBA converts the color to 8-bit straight alpha.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: to8(c.R),
		G: to8(c.G),
		B: to8(c.B),
		A: to8(c.A),
	}
}

// Clamped returns c with every component clamped to [0, 1].
// NaN components become 0.
func (c Color) Clamped() Color {
	return Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B), A: clamp01(c.A)}
}

// Array returns the components as [r, g, b, a], the uniform layout.
func (c Color) Array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

func clamp01(x float32) float32 {
	if !(x > 0) { // also catches NaN
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func to8(x float32) uint8 {
	return uint8(clamp01(x)*255 + 0.5)
}
