package jfa

import (
	"context"
	"math/bits"
)

// StepSchedule returns the jump distances for a flood that must resolve
// distances up to maxWidth pixels.
//
// With n = ceil(log2(maxWidth)) the schedule is 1, 2^(n-1), ..., 2, 1: a
// leading step of one (1+JFA) followed by the halving sequence, n+1 passes in
// total. The halving sequence alone propagates a seed up to 2^n-1 pixels; the
// leading step closes the remaining gap and repairs most of the classic JFA
// misses. A maxWidth of 1 yields [1, 1]; a non-positive maxWidth yields no
// passes.
func StepSchedule(maxWidth int) []int {
	if maxWidth <= 0 {
		return nil
	}
	n := max(ceilLog2(maxWidth), 1)
	steps := make([]int, 0, n+1)
	steps = append(steps, 1)
	for k := n - 1; k >= 0; k-- {
		steps = append(steps, 1<<k)
	}
	return steps
}

// PassCount returns len(StepSchedule(maxWidth)).
func PassCount(maxWidth int) int {
	if maxWidth <= 0 {
		return 0
	}
	return max(ceilLog2(maxWidth), 1) + 1
}

// ceilLog2 returns ceil(log2(v)) for v >= 1.
func ceilLog2(v int) int {
	return bits.Len(uint(v - 1))
}

// offsets lists the 9 candidate directions in scan order, center first.
var offsets = [9][2]int{
	{0, 0},
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Propagator runs jump flood passes over a ping-pong pair of seed fields.
//
// Pass i reads buffer i%2 and writes buffer (i+1)%2; no pass ever writes the
// buffer it reads.
type Propagator struct {
	exec   *Executor
	buf    [2]*SeedField
	front  int
	passes int
}

// NewPropagator allocates both buffers for the executor's image size.
func NewPropagator(e *Executor) *Propagator {
	w, h := e.Width(), e.Height()
	return &Propagator{
		exec: e,
		buf:  [2]*SeedField{NewSeedField(w, h), NewSeedField(w, h)},
	}
}

// Front returns the field holding the result of the latest pass. Before any
// pass it is the field InitSeeds should write to.
func (p *Propagator) Front() *SeedField {
	return p.buf[p.front]
}

// back returns the field the next pass will write.
func (p *Propagator) back() *SeedField {
	return p.buf[1-p.front]
}

// Reset makes buffer 0 the front again and clears the pass counter.
func (p *Propagator) Reset() {
	p.front = 0
	p.passes = 0
}

// Passes returns the number of passes run since the last Reset.
func (p *Propagator) Passes() int {
	return p.passes
}

// Pass runs one flood pass with the given step and swaps the buffers.
func (p *Propagator) Pass(step int) {
	FloodPass(p.exec, p.Front(), p.back(), step)
	p.front = 1 - p.front
	p.passes++
}

// Run executes every step of schedule and returns the final field. The
// context is checked between passes; a cancelled run returns the context
// error and leaves the buffers in an unspecified state.
func (p *Propagator) Run(ctx context.Context, schedule []int) (*SeedField, error) {
	for _, step := range schedule {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.Pass(step)
	}
	return p.Front(), nil
}

// FloodPass reads src and writes dst for one jump distance. For every pixel
// it considers the seeds stored at the 9 pixels {-1,0,1}^2 * step away
// (candidates outside the image are skipped) and keeps the one nearest to
// the pixel's own center. Ties keep the earlier candidate in scan order.
//
// src and dst must be distinct fields of the same size.
func FloodPass(e *Executor, src, dst *SeedField, step int) {
	if src == dst {
		panic("jfa: flood pass reading and writing the same buffer")
	}
	w, h := src.W, src.H
	e.run(func(t tile) {
		for y := t.Y0; y < t.Y1; y++ {
			out := dst.Pix[y*w:]
			for x := t.X0; x < t.X1; x++ {
				best := Sentinel
				bestD := -1
				for _, o := range offsets {
					qx, qy := x+o[0]*step, y+o[1]*step
					if qx < 0 || qx >= w || qy < 0 || qy >= h {
						continue
					}
					s := src.Pix[qy*w+qx]
					if !s.Valid() {
						continue
					}
					tx, ty := s.Texel(w, h)
					d := sq(tx-x) + sq(ty-y)
					if bestD < 0 || d < bestD {
						best, bestD = s, d
					}
				}
				out[x] = best
			}
		}
	})
}
