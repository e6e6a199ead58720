package jfa

import (
	"encoding/binary"
	"image"
	"math"
)

// UniformSize is the size in bytes of the packed Uniforms block.
const UniformSize = 32

// Uniforms is the per-frame parameter block shared by the CPU passes and the
// GPU shaders. Color is straight (non-premultiplied) RGBA in [0, 1].
// Enabled is 1 or 0; it is a float to keep the std140-compatible layout.
type Uniforms struct {
	Color   [4]float32
	Width   float32
	Enabled float32
	_       [2]float32
}

// IsEnabled reports whether the outline should be drawn at all.
func (u Uniforms) IsEnabled() bool {
	return u.Enabled != 0
}

// Bytes packs u as {color: vec4<f32>, width: f32, enabled: f32, pad: vec2<f32>}.
func (u Uniforms) Bytes() []byte {
	b := make([]byte, UniformSize)
	for i, c := range u.Color {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(c))
	}
	binary.LittleEndian.PutUint32(b[16:], math.Float32bits(u.Width))
	binary.LittleEndian.PutUint32(b[20:], math.Float32bits(u.Enabled))
	return b
}

// Strength returns the outline coverage for a pixel at the given distance
// from the silhouette: 1 - smoothstep(width-1, width, distance).
// It is 0 at and beyond width and 1 at or below width-1.
func Strength(distance, width float32) float32 {
	if distance >= width {
		return 0
	}
	return 1 - smoothstep(width-1, width, distance)
}

func smoothstep(e0, e1, x float32) float32 {
	t := clamp01((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Composite writes the outlined image into dst. For every pixel, in order:
//   - outline disabled: scene color
//   - silhouette interior (alpha > 0.5): scene color
//   - no seed: scene color
//   - distance to the seed greater than the width: scene color
//   - otherwise the scene color blended toward the outline color by
//     Strength(distance, width) * color alpha; the alpha channel blends toward 1.
//
// scene and dst are premultiplied; the outline color is opaque before the
// blend factor is applied, so the blend is the same in either representation.
// dst must not alias scene.
func Composite(e *Executor, scene *image.RGBA, sil *image.Alpha, seeds *SeedField, u Uniforms, dst *image.RGBA) {
	if !u.IsEnabled() {
		copyRGBA(scene, dst)
		return
	}
	e.run(func(t tile) {
		for y := t.Y0; y < t.Y1; y++ {
			silRow := sil.Pix[y*sil.Stride:]
			src := scene.Pix[y*scene.Stride:]
			out := dst.Pix[y*dst.Stride:]
			for x := t.X0; x < t.X1; x++ {
				i := x * 4
				copy(out[i:i+4], src[i:i+4])
				if Covered(silRow[x]) {
					continue
				}
				d, ok := seeds.Distance(x, y)
				if !ok || d > u.Width {
					continue
				}
				blend(out[i:i+4], u.Color, Strength(d, u.Width)*u.Color[3])
			}
		}
	})
}

// blend mixes px toward the opaque outline color by f in place.
func blend(px []uint8, c [4]float32, f float32) {
	if f <= 0 {
		return
	}
	f = clamp01(f)
	px[0] = mix8(px[0], c[0], f)
	px[1] = mix8(px[1], c[1], f)
	px[2] = mix8(px[2], c[2], f)
	px[3] = mix8(px[3], 1, f)
}

func mix8(v uint8, target, f float32) uint8 {
	r := float32(v)/255*(1-f) + clamp01(target)*f
	return uint8(r*255 + 0.5)
}

// copyRGBA copies the visible pixels of src to dst. Both images must have
// the same size.
func copyRGBA(src, dst *image.RGBA) {
	if src == dst {
		return
	}
	if src.Stride == dst.Stride && len(src.Pix) == len(dst.Pix) {
		copy(dst.Pix, src.Pix)
		return
	}
	b := src.Bounds()
	n := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+n], src.Pix[y*src.Stride:y*src.Stride+n])
	}
}
