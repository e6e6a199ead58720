package jfa

import (
	"image"

	"github.com/chewxy/math32"
)

// Sample counts of the single-pass variant.
const (
	coarseAngles = 16
	fineAngles   = 16
	fineRadii    = 2
)

// coarseRings are the ring radii of the coarse search, as fractions of the
// outline width, outermost first.
var coarseRings = [...]float32{1, 0.75, 0.5, 0.25}

// fineRings are the refinement radii, as fractions of one coarse ring
// spacing subtracted from the coarse hit radius.
var fineRings = [fineRadii]float32{0.25, 0.5}

// CompositeAnalytic is the single-pass alternative to the seed/flood/composite
// chain. Each pixel outside the silhouette samples the mask on 4 rings of 16
// angles, then refines the nearest hit with up to 32 samples between the next
// ring in and the hit ring. The smallest radius with a covered sample is used
// as the distance in the same blend as Composite.
//
// The result is an approximation of Composite: thin features between samples
// can be missed. dst may alias scene.
func CompositeAnalytic(e *Executor, scene *image.RGBA, sil *image.Alpha, u Uniforms, dst *image.RGBA) {
	if !u.IsEnabled() || u.Width <= 0 {
		copyRGBA(scene, dst)
		return
	}
	w, h := e.Width(), e.Height()
	e.run(func(t tile) {
		for y := t.Y0; y < t.Y1; y++ {
			src := scene.Pix[y*scene.Stride:]
			out := dst.Pix[y*dst.Stride:]
			for x := t.X0; x < t.X1; x++ {
				i := x * 4
				if &out[i] != &src[i] {
					copy(out[i:i+4], src[i:i+4])
				}
				if Covered(sil.Pix[y*sil.Stride+x]) {
					continue
				}
				d, ok := nearestCovered(sil, w, h, x, y, u.Width)
				if !ok || d > u.Width {
					continue
				}
				blend(out[i:i+4], u.Color, Strength(d, u.Width)*u.Color[3])
			}
		}
	})
}

// nearestCovered estimates the distance from the center of (x, y) to the
// nearest covered mask pixel, searching no further than width.
func nearestCovered(sil *image.Alpha, w, h, x, y int, width float32) (float32, bool) {
	cx, cy := float32(x)+0.5, float32(y)+0.5

	best := math32.Inf(1)
	for _, ring := range coarseRings {
		r := ring * width
		for a := range coarseAngles {
			if covered(sil, w, h, cx, cy, r, angle(a, coarseAngles, 0)) {
				best = r
				break
			}
		}
	}
	if math32.IsInf(best, 1) {
		return 0, false
	}

	spacing := width * (coarseRings[0] - coarseRings[1])
	refined := best
	for _, f := range fineRings {
		r := best - f*spacing
		if r <= 0 {
			break
		}
		for a := range fineAngles {
			if covered(sil, w, h, cx, cy, r, angle(a, fineAngles, 0.5)) {
				refined = r
				break
			}
		}
	}
	return refined, true
}

func angle(i, n int, offset float32) float32 {
	return (float32(i) + offset) * 2 * math32.Pi / float32(n)
}

// covered reports whether the mask pixel under the point at radius r and
// angle theta from (cx, cy) is covered. Points outside the image are not.
func covered(sil *image.Alpha, w, h int, cx, cy, r, theta float32) bool {
	sin, cos := math32.Sincos(theta)
	px := int(math32.Floor(cx + r*cos))
	py := int(math32.Floor(cy + r*sin))
	if px < 0 || px >= w || py < 0 || py >= h {
		return false
	}
	return Covered(sil.Pix[py*sil.Stride+px])
}
