// Package silhouette rasterizes outline-tagged objects into a coverage mask.
//
// The mask is the only input the outline passes need from the 3D scene: one
// alpha sample per output pixel, treated as "inside a tagged object" when it
// exceeds one half. Objects are drawn unlit and untextured with no depth test,
// into a dedicated image that never shares storage with the scene color target.
package silhouette

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"

	"github.com/gogpu/outline/scene"
)

// Renderer draws silhouettes. The rasterizer's internal buffers grow with the
// target and are reused across frames.
//
// A Renderer is not safe for concurrent use.
type Renderer struct {
	raster *vector.Rasterizer
	w, h   int

	triangles int // drawn by the last Render call
	skipped   int // rejected by the last Render call (behind the camera)
}

// NewRenderer returns a Renderer for a width x height target.
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		raster: vector.NewRasterizer(width, height),
		w:      width,
		h:      height,
	}
}

// Render clears dst to zero and fills the projected triangles of every tagged
// object in objs. Untagged objects are ignored. The rasterizer follows dst's
// size, so a resized target needs no new Renderer.
//
// With no tagged objects the mask stays all zero.
func (r *Renderer) Render(objs scene.Set, cam scene.Camera, dst *image.Alpha) {
	clear(dst.Pix)
	r.triangles, r.skipped = 0, 0

	b := dst.Bounds()
	if b.Empty() || cam.Empty() {
		return
	}
	r.w, r.h = b.Dx(), b.Dy()
	r.raster.Reset(r.w, r.h)

	vp := cam.ViewProjection()
	for i := range objs {
		obj := &objs[i]
		if !obj.Tagged() {
			continue
		}
		mvp := scene.Mul(vp, obj.Transform)
		for t := 0; t < obj.Mesh.Triangles(); t++ {
			if r.addTriangle(cam, mvp, obj.Mesh, t) {
				r.triangles++
			} else {
				r.skipped++
			}
		}
	}

	if r.triangles == 0 {
		return
	}
	r.raster.Draw(dst, b, image.Opaque, image.Point{})
}

// addTriangle projects triangle t and adds it to the rasterizer path.
// All triangles are added with the same winding so that overlapping faces
// accumulate instead of cancelling.
func (r *Renderer) addTriangle(cam scene.Camera, mvp scene.Mat4, m *scene.Mesh, t int) bool {
	a, b, c := m.Triangle(t)
	ax, ay, ok1 := cam.Project(mvp, a)
	bx, by, ok2 := cam.Project(mvp, b)
	cx, cy, ok3 := cam.Project(mvp, c)
	if !ok1 || !ok2 || !ok3 {
		return false
	}

	area := (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
	if area == 0 {
		return true
	}
	if area < 0 {
		bx, by, cx, cy = cx, cy, bx, by
	}

	r.raster.MoveTo(ax, ay)
	r.raster.LineTo(bx, by)
	r.raster.LineTo(cx, cy)
	r.raster.ClosePath()
	return true
}

// Stats returns the triangles drawn and skipped by the last Render call.
func (r *Renderer) Stats() (drawn, skipped int) {
	return r.triangles, r.skipped
}

// Fill draws every object of objs that has a mesh into dst with its flat
// Color, in slice order and without depth testing.
// It is a convenience for hosts and tools that have no renderer of their own;
// the outline passes never call it.
func (r *Renderer) Fill(objs scene.Set, cam scene.Camera, dst draw.Image) {
	b := dst.Bounds()
	if b.Empty() || cam.Empty() {
		return
	}
	mask := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	for i := range objs {
		obj := objs[i]
		if obj.Mesh == nil {
			continue
		}
		obj.Outline = &scene.Outline{}
		r.Render(scene.Set{obj}, cam, mask)
		src := image.NewUniform(obj.Color.NRGBA())
		draw.DrawMask(dst, b, src, image.Point{}, mask, image.Point{}, draw.Over)
	}
}
