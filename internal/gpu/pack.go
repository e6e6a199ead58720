//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"image"
)

// packMask widens each 8-bit mask sample to one u32.
func packMask(m *image.Alpha, w, h int) []byte {
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		row := m.Pix[y*m.Stride:]
		for x := 0; x < w; x++ {
			binary.LittleEndian.PutUint32(out[(y*w+x)*4:], uint32(row[x]))
		}
	}
	return out
}

// packPixels packs premultiplied RGBA rows into tightly packed u32 values
// with R in the low byte, the layout of unpack4x8unorm.
func packPixels(img *image.RGBA, w, h int) []byte {
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		copy(out[y*w*4:(y+1)*w*4], img.Pix[y*img.Stride:y*img.Stride+w*4])
	}
	return out
}

// unpackPixels is the inverse of packPixels.
func unpackPixels(packed []byte, dst *image.RGBA, w, h int) {
	for y := 0; y < h; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+w*4], packed[y*w*4:(y+1)*w*4])
	}
}
