package jfa

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/gogpu/outline/internal/parallel"
)

// newMask returns a w x h silhouette mask covering the rectangle
// [x0, x1) x [y0, y1).
func newMask(w, h, x0, y0, x1, y1 int) *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.Pix[y*m.Stride+x] = 255
		}
	}
	return m
}

// newScene returns an opaque w x h image filled with c.
func newScene(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// newTestExecutor returns an executor backed by a pool closed at test end.
func newTestExecutor(t testing.TB, w, h int) *Executor {
	t.Helper()
	pool := parallel.NewWorkerPool(4)
	t.Cleanup(pool.Close)
	return NewExecutor(pool, w, h)
}

// flood seeds mask and runs the full schedule for maxWidth.
func flood(t testing.TB, e *Executor, mask *image.Alpha, maxWidth int) *SeedField {
	t.Helper()
	p := NewPropagator(e)
	InitSeeds(e, mask, nil, p.Front())
	f, err := p.Run(t.Context(), StepSchedule(maxWidth))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return f
}

// trueDistance is the brute-force distance from (x, y) to the nearest
// covered pixel of mask, or +Inf when the mask is empty.
func trueDistance(mask *image.Alpha, x, y int) float64 {
	best := math.Inf(1)
	b := mask.Bounds()
	for sy := 0; sy < b.Dy(); sy++ {
		for sx := 0; sx < b.Dx(); sx++ {
			if !Covered(mask.Pix[sy*mask.Stride+sx]) {
				continue
			}
			best = min(best, math.Hypot(float64(sx-x), float64(sy-y)))
		}
	}
	return best
}

var (
	black = color.RGBA{0, 0, 0, 255}
	red   = [4]float32{1, 0, 0, 1}
)
