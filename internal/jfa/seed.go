package jfa

import (
	"image"

	"github.com/chewxy/math32"
)

// Seed is a normalized pixel-center coordinate ((x+0.5)/w, (y+0.5)/h).
//
// Valid seeds always lie in (0, 1). The sentinel (-1, -1) marks "no seed
// known yet". This is the only seed encoding in the module: the CPU passes,
// the WGSL shaders and the tests all go through Sentinel and Valid.
type Seed struct {
	X, Y float32
}

// SentinelValue is the coordinate component stored in both halves of the
// sentinel. The GPU shaders are generated with the same literal.
const SentinelValue = -1

// Sentinel is the "no seed" value.
var Sentinel = Seed{X: SentinelValue, Y: SentinelValue}

// Valid reports whether s holds a coordinate rather than the sentinel.
func (s Seed) Valid() bool {
	return s.X >= 0 && s.Y >= 0
}

// Encode returns the seed for pixel (x, y) of a w x h image.
func Encode(x, y, w, h int) Seed {
	return Seed{
		X: (float32(x) + 0.5) / float32(w),
		Y: (float32(y) + 0.5) / float32(h),
	}
}

// Texel converts a valid seed back to the pixel it was encoded from.
func (s Seed) Texel(w, h int) (x, y int) {
	return int(math32.Floor(s.X * float32(w))), int(math32.Floor(s.Y * float32(h)))
}

// SeedField is a w x h image of seeds.
type SeedField struct {
	W, H int
	Pix  []Seed
}

// NewSeedField returns a field of the given size filled with the sentinel.
func NewSeedField(w, h int) *SeedField {
	f := &SeedField{W: w, H: h, Pix: make([]Seed, max(w, 0)*max(h, 0))}
	f.Fill(Sentinel)
	return f
}

// At returns the seed stored for pixel (x, y), or the sentinel when (x, y)
// is outside the field.
func (f *SeedField) At(x, y int) Seed {
	if x < 0 || x >= f.W || y < 0 || y >= f.H {
		return Sentinel
	}
	return f.Pix[y*f.W+x]
}

// Fill sets every pixel to s.
func (f *SeedField) Fill(s Seed) {
	for i := range f.Pix {
		f.Pix[i] = s
	}
}

// Distance returns the pixel-space distance from (x, y) to the seed stored
// there, and false when the pixel holds the sentinel.
func (f *SeedField) Distance(x, y int) (float32, bool) {
	s := f.At(x, y)
	if !s.Valid() {
		return 0, false
	}
	tx, ty := s.Texel(f.W, f.H)
	return math32.Sqrt(float32(sq(tx-x) + sq(ty-y))), true
}

// InitSeeds writes the initial seed field: each pixel whose silhouette alpha
// exceeds one half (and, when region is non-nil, that lies inside the region)
// stores its own coordinate; every other pixel stores the sentinel.
//
// InitSeeds is a pure function of its inputs.
func InitSeeds(e *Executor, sil *image.Alpha, region *image.Gray, dst *SeedField) {
	w, h := dst.W, dst.H
	e.run(func(t tile) {
		for y := t.Y0; y < t.Y1; y++ {
			silRow := sil.Pix[y*sil.Stride:]
			var regRow []uint8
			if region != nil {
				regRow = region.Pix[y*region.Stride:]
			}
			out := dst.Pix[y*w:]
			for x := t.X0; x < t.X1; x++ {
				if (regRow != nil && regRow[x] == 0) || !Covered(silRow[x]) {
					out[x] = Sentinel
					continue
				}
				out[x] = Encode(x, y, w, h)
			}
		}
	})
}

// CoverageThreshold is the largest 8-bit mask sample that does not count as
// covered. Every stage, the shaders included, tests coverage against it.
const CoverageThreshold = 127

// Covered reports whether a mask sample counts as covered (alpha > 0.5).
func Covered(a uint8) bool {
	return a > CoverageThreshold
}

func sq(v int) int { return v * v }
