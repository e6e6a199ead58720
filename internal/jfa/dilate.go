package jfa

import (
	"image"
	"sync"
)

// Dilate writes the region mask for sil into dst: 255 for every pixel within
// Chebyshev distance radius of a covered silhouette pixel, 0 elsewhere.
//
// The dilation is separable:
//  1. Horizontal pass: scan radius texels left and right in sil (temp)
//  2. Vertical pass: scan radius texels up and down in temp (dst)
//
// Both scans stop at the first covered sample. Samples outside the image are
// skipped. The result is a superset of the true Euclidean region, so a pixel
// the flood can reach within radius is never masked out.
func Dilate(e *Executor, sil *image.Alpha, radius int, dst *image.Gray) {
	w, h := e.Width(), e.Height()
	if w <= 0 || h <= 0 {
		return
	}
	radius = max(radius, 0)

	temp := getMaskBuffer(w * h)
	defer putMaskBuffer(temp)

	// Pass 1: horizontal (sil -> temp)
	e.run(func(t tile) {
		for y := t.Y0; y < t.Y1; y++ {
			row := sil.Pix[y*sil.Stride : y*sil.Stride+w]
			out := temp[y*w:]
			for x := t.X0; x < t.X1; x++ {
				out[x] = scanRow(row, x, radius)
			}
		}
	})

	// Pass 2: vertical (temp -> dst)
	e.run(func(t tile) {
		for y := t.Y0; y < t.Y1; y++ {
			out := dst.Pix[y*dst.Stride:]
			y0, y1 := max(y-radius, 0), min(y+radius, h-1)
			for x := t.X0; x < t.X1; x++ {
				var v uint8
				for ky := y0; ky <= y1; ky++ {
					if temp[ky*w+x] != 0 {
						v = 255
						break
					}
				}
				out[x] = v
			}
		}
	})
}

func scanRow(row []uint8, x, radius int) uint8 {
	x0, x1 := max(x-radius, 0), min(x+radius, len(row)-1)
	for kx := x0; kx <= x1; kx++ {
		if Covered(row[kx]) {
			return 1
		}
	}
	return 0
}

// maskBuffer wraps a slice for sync.Pool to avoid allocation warnings.
type maskBuffer struct {
	data []uint8
}

var maskBufferPool = sync.Pool{
	New: func() any {
		return &maskBuffer{data: make([]uint8, 1024*1024)}
	},
}

// getMaskBuffer returns a buffer of exactly size bytes. Its contents are
// unspecified; the horizontal pass writes every element.
func getMaskBuffer(size int) []uint8 {
	wrapper := maskBufferPool.Get().(*maskBuffer)
	if len(wrapper.data) < size {
		maskBufferPool.Put(wrapper)
		return make([]uint8, size)
	}
	return wrapper.data[:size]
}

func putMaskBuffer(buf []uint8) {
	if cap(buf) <= 16*1024*1024 {
		maskBufferPool.Put(&maskBuffer{data: buf[:cap(buf)]})
	}
}
