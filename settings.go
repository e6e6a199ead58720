package outline

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/outline/internal/jfa"
	"github.com/gogpu/outline/scene"
)

// Color is a straight RGBA color with components in [0, 1].
type Color = scene.Color

// Uniforms is the packed per-frame parameter block shared with the shaders:
// {color: vec4<f32>, width: f32, enabled: f32, pad: vec2<f32>}.
type Uniforms = jfa.Uniforms

// DefaultMaxWidth is the default upper bound on the outline width.
const DefaultMaxWidth = 64

// MaxMaxWidth is the largest MaxWidth Sanitize keeps. Flood steps and
// dilation radii stay far inside the int32 shader parameters.
const MaxMaxWidth = 1 << 16

// Settings is the per-camera outline configuration. The pipeline snapshots
// it at the start of every frame.
type Settings struct {
	// Color of the outline. Alpha scales the blend strength.
	Color Color

	// Width of the outline in pixels.
	Width float32

	// Enabled turns the outline on. A disabled frame is a pass-through.
	Enabled bool

	// MaxWidth bounds Width and sizes the dilation and the flood schedule.
	MaxWidth int
}

// DefaultSettings returns an enabled orange outline 5 pixels wide.
func DefaultSettings() Settings {
	def := scene.DefaultOutline()
	return Settings{
		Color:    def.Color,
		Width:    def.Width,
		Enabled:  true,
		MaxWidth: DefaultMaxWidth,
	}
}

// Sanitize clamps configuration errors to safe values instead of failing:
// a NaN or negative width becomes 0, color components are clamped to [0, 1]
// with NaN as 0, a non-positive MaxWidth disables the outline, a MaxWidth
// above MaxMaxWidth is reduced to MaxMaxWidth and a width above MaxWidth is
// reduced to MaxWidth.
func (s Settings) Sanitize() Settings {
	if math32.IsNaN(s.Width) || s.Width < 0 {
		s.Width = 0
	}
	s.Color = s.Color.Clamped()
	if s.MaxWidth <= 0 {
		s.MaxWidth = 0
		s.Enabled = false
	}
	if s.MaxWidth > MaxMaxWidth {
		s.MaxWidth = MaxMaxWidth
	}
	if s.Width > float32(s.MaxWidth) {
		s.Width = float32(s.MaxWidth)
	}
	return s
}

// Visible reports whether the settings can produce any outline pixel.
func (s Settings) Visible() bool {
	return s.Enabled && s.Width > 0 && s.Color.A > 0
}

// WithOutline returns s with the color and width of a resolved object tag.
// A zero tag (no color, no width) keeps the camera's color and width.
func (s Settings) WithOutline(o scene.Outline) Settings {
	if o == (scene.Outline{}) {
		return s
	}
	s.Color = o.Color
	s.Width = o.Width
	return s
}

// Uniforms packs the settings into the uniform layout.
func (s Settings) Uniforms() Uniforms {
	u := Uniforms{
		Color: s.Color.Array(),
		Width: s.Width,
	}
	if s.Enabled {
		u.Enabled = 1
	}
	return u
}
