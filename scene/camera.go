package scene

// nearW is the smallest clip-space w treated as in front of the camera.
const nearW = 1e-5

// Camera is the view a silhouette is rendered from. Width and Height are the
// viewport size in pixels and must match the scene image.
type Camera struct {
	View       Mat4
	Projection Mat4
	Width      int
	Height     int
}

// NewCamera returns a perspective camera at eye looking at center.
func NewCamera(eye, center Vec3, fovy float32, width, height int) Camera {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return Camera{
		View:       LookAt(eye, center, Vec3{0, 1, 0}),
		Projection: Perspective(fovy, aspect, 0.1, 100),
		Width:      width,
		Height:     height,
	}
}

// ViewProjection returns Projection * View.
func (c Camera) ViewProjection() Mat4 {
	return Mul(c.Projection, c.View)
}

// Project maps a world-space point through mvp to pixel coordinates.
// ok is false when the point is behind the camera.
func (c Camera) Project(mvp Mat4, p Vec3) (x, y float32, ok bool) {
	clip := Transform(mvp, p)
	if clip[3] <= nearW {
		return 0, 0, false
	}
	nx := clip[0] / clip[3]
	ny := clip[1] / clip[3]
	x = (nx*0.5 + 0.5) * float32(c.Width)
	y = (0.5 - ny*0.5) * float32(c.Height)
	return x, y, true
}

// Empty reports whether the viewport covers no pixels.
func (c Camera) Empty() bool {
	return c.Width <= 0 || c.Height <= 0
}
