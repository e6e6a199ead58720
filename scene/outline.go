package scene

// Outline is the per-object outline tag.
type Outline struct {
	// Color of the outline. Alpha scales the blend strength.
	Color Color

	// Width of the outline in pixels.
	Width float32
}

// DefaultOutline returns an orange outline 5 pixels wide.
func DefaultOutline() Outline {
	return Outline{
		Color: Color{R: 1, G: 0.5, B: 0, A: 1},
		Width: 5,
	}
}

// NewOutline creates an outline with the given color and width.
func NewOutline(c Color, width float32) *Outline {
	return &Outline{Color: c, Width: width}
}

// OutlineWithColor creates an outline with the default width.
func OutlineWithColor(c Color) *Outline {
	o := DefaultOutline()
	o.Color = c
	return &o
}

// OutlineWithWidth creates an outline with the default color.
func OutlineWithWidth(width float32) *Outline {
	o := DefaultOutline()
	o.Width = width
	return &o
}
