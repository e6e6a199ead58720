package jfa

import (
	"image"
	"testing"
)

func TestSeedEncodeTexel(t *testing.T) {
	sizes := [][2]int{{1, 1}, {7, 3}, {100, 100}, {1920, 1080}, {4096, 17}}
	for _, sz := range sizes {
		w, h := sz[0], sz[1]
		for _, p := range [][2]int{{0, 0}, {w - 1, h - 1}, {w / 2, h / 3}} {
			s := Encode(p[0], p[1], w, h)
			if !s.Valid() {
				t.Fatalf("Encode(%d, %d, %d, %d) = %v, want valid", p[0], p[1], w, h, s)
			}
			x, y := s.Texel(w, h)
			if x != p[0] || y != p[1] {
				t.Errorf("Encode(%d, %d) on %dx%d round-trips to (%d, %d)", p[0], p[1], w, h, x, y)
			}
		}
	}
}

func TestSentinel(t *testing.T) {
	if Sentinel.Valid() {
		t.Error("Sentinel.Valid() = true")
	}
	f := NewSeedField(3, 2)
	for i, s := range f.Pix {
		if s != Sentinel {
			t.Fatalf("new field pixel %d = %v, want sentinel", i, s)
		}
	}
	if got := f.At(-1, 0); got != Sentinel {
		t.Errorf("At(-1, 0) = %v, want sentinel", got)
	}
	if _, ok := f.Distance(0, 0); ok {
		t.Error("Distance on sentinel reported ok")
	}
}

func TestInitSeeds(t *testing.T) {
	const w, h = 40, 30
	mask := newMask(w, h, 10, 5, 20, 15)
	mask.Pix[0] = 127 // exactly one half rounds down: not covered
	mask.Pix[1] = 128

	e := newTestExecutor(t, w, h)
	f := NewSeedField(w, h)
	InitSeeds(e, mask, nil, f)

	for y := range h {
		for x := range w {
			s := f.At(x, y)
			covered := Covered(mask.Pix[y*mask.Stride+x])
			if covered != s.Valid() {
				t.Fatalf("pixel (%d, %d): valid = %v, covered = %v", x, y, s.Valid(), covered)
			}
			if covered && s != Encode(x, y, w, h) {
				t.Fatalf("pixel (%d, %d) seed = %v, want own coordinate", x, y, s)
			}
		}
	}
	if f.At(0, 0).Valid() {
		t.Error("alpha 127 produced a seed")
	}
	if !f.At(1, 0).Valid() {
		t.Error("alpha 128 produced no seed")
	}
}

func TestInitSeedsRegion(t *testing.T) {
	const w, h = 20, 20
	mask := newMask(w, h, 0, 0, 20, 20)
	region := image.NewGray(image.Rect(0, 0, w, h))
	for x := range w {
		region.Pix[5*region.Stride+x] = 255
	}

	f := NewSeedField(w, h)
	InitSeeds(newTestExecutor(t, w, h), mask, region, f)

	for y := range h {
		for x := range w {
			if got, want := f.At(x, y).Valid(), y == 5; got != want {
				t.Fatalf("pixel (%d, %d): valid = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestInitSeedsDeterministic(t *testing.T) {
	const w, h = 130, 70
	mask := newMask(w, h, 3, 9, 101, 66)
	e := newTestExecutor(t, w, h)

	a, b := NewSeedField(w, h), NewSeedField(w, h)
	InitSeeds(e, mask, nil, a)
	InitSeeds(NewExecutor(nil, w, h), mask, nil, b)

	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("pixel %d differs: %v vs %v", i, a.Pix[i], b.Pix[i])
		}
	}
}

func TestCovered(t *testing.T) {
	tests := []struct {
		a    uint8
		want bool
	}{
		{0, false},
		{CoverageThreshold, false},
		{CoverageThreshold + 1, true},
		{255, true},
	}
	for _, tt := range tests {
		if got := Covered(tt.a); got != tt.want {
			t.Errorf("Covered(%d) = %v, want %v", tt.a, got, tt.want)
		}
	}
}
