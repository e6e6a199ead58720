package jfa

import (
	"bytes"
	"encoding/binary"
	"image"
	"math"
	"testing"
)

func TestStrength(t *testing.T) {
	tests := []struct {
		d, width, want float32
	}{
		{0, 5, 1},
		{3, 5, 1},
		{4, 5, 1},
		{4.5, 5, 0.5},
		{5, 5, 0},
		{6, 5, 0},
		{1, 0, 0},
		{0.25, 0.5, 0.15625},
	}
	for _, tt := range tests {
		got := Strength(tt.d, tt.width)
		if math.Abs(float64(got-tt.want)) > 1e-5 {
			t.Errorf("Strength(%v, %v) = %v, want %v", tt.d, tt.width, got, tt.want)
		}
	}
}

func TestUniformsBytes(t *testing.T) {
	u := Uniforms{Color: [4]float32{1, 0.5, 0, 1}, Width: 5, Enabled: 1}
	b := u.Bytes()
	if len(b) != UniformSize {
		t.Fatalf("len(Bytes()) = %d, want %d", len(b), UniformSize)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b[16:])); got != 5 {
		t.Errorf("width = %v, want 5", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b[4:])); got != 0.5 {
		t.Errorf("color.g = %v, want 0.5", got)
	}
	if !bytes.Equal(b[24:], make([]byte, 8)) {
		t.Errorf("padding = %v, want zeros", b[24:])
	}
}

// squareFixture is a 100x100 frame with a 10x10 square silhouette at
// pixels 45..54, a black opaque scene and a red outline of width 5.
func squareFixture(t *testing.T) (*Executor, *image.RGBA, *image.Alpha, *SeedField, Uniforms) {
	t.Helper()
	const w, h = 100, 100
	mask := newMask(w, h, 45, 45, 55, 55)
	e := newTestExecutor(t, w, h)
	seeds := flood(t, e, mask, 64)
	u := Uniforms{Color: red, Width: 5, Enabled: 1}
	return e, newScene(w, h, black), mask, seeds, u
}

func TestCompositeSquare(t *testing.T) {
	e, scene, mask, seeds, u := squareFixture(t)
	dst := image.NewRGBA(scene.Bounds())
	Composite(e, scene, mask, seeds, u, dst)

	tests := []struct {
		name string
		x, y int
		want [4]uint8
	}{
		{"interior", 50, 50, [4]uint8{0, 0, 0, 255}},
		{"edge", 54, 50, [4]uint8{0, 0, 0, 255}},
		{"distance 1", 55, 50, [4]uint8{255, 0, 0, 255}},
		{"distance 3", 57, 50, [4]uint8{255, 0, 0, 255}},
		{"distance 4", 58, 50, [4]uint8{255, 0, 0, 255}},
		{"distance 5", 59, 50, [4]uint8{0, 0, 0, 255}},
		{"distance 6", 60, 50, [4]uint8{0, 0, 0, 255}},
		{"above", 50, 42, [4]uint8{255, 0, 0, 255}},
		{"far", 5, 5, [4]uint8{0, 0, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := dst.PixOffset(tt.x, tt.y)
			got := [4]uint8(dst.Pix[i : i+4])
			if got != tt.want {
				t.Errorf("pixel (%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}

	// Corner at distance sqrt(18) is partially covered.
	i := dst.PixOffset(57, 57)
	if r := dst.Pix[i]; r < 200 || r > 230 {
		t.Errorf("corner red = %d, want in [200, 230]", r)
	}
}

func TestCompositeDisabled(t *testing.T) {
	e, scene, mask, seeds, u := squareFixture(t)
	u.Enabled = 0
	dst := image.NewRGBA(scene.Bounds())
	Composite(e, scene, mask, seeds, u, dst)
	if !bytes.Equal(dst.Pix, scene.Pix) {
		t.Error("disabled composite changed the scene")
	}
}

func TestCompositeZeroWidth(t *testing.T) {
	e, scene, mask, seeds, u := squareFixture(t)
	u.Width = 0
	dst := image.NewRGBA(scene.Bounds())
	Composite(e, scene, mask, seeds, u, dst)
	if !bytes.Equal(dst.Pix, scene.Pix) {
		t.Error("zero-width composite changed the scene")
	}
}

func TestCompositeTranslucentColor(t *testing.T) {
	e, scene, mask, seeds, u := squareFixture(t)
	u.Color[3] = 0.5
	dst := image.NewRGBA(scene.Bounds())
	Composite(e, scene, mask, seeds, u, dst)

	i := dst.PixOffset(56, 50)
	if got := dst.Pix[i]; got != 128 {
		t.Errorf("red = %d, want 128", got)
	}
	if got := dst.Pix[i+3]; got != 255 {
		t.Errorf("alpha = %d, want 255", got)
	}
}

func TestCompositeTransparentScene(t *testing.T) {
	e, _, mask, seeds, u := squareFixture(t)
	scene := image.NewRGBA(image.Rect(0, 0, 100, 100))
	dst := image.NewRGBA(scene.Bounds())
	Composite(e, scene, mask, seeds, u, dst)

	i := dst.PixOffset(56, 50)
	if got := [4]uint8(dst.Pix[i : i+4]); got != [4]uint8{255, 0, 0, 255} {
		t.Errorf("outline pixel = %v, want opaque red", got)
	}
	i = dst.PixOffset(50, 50)
	if got := dst.Pix[i+3]; got != 0 {
		t.Errorf("interior alpha = %d, want 0", got)
	}
}

func TestCompositeNoSeeds(t *testing.T) {
	const w, h = 30, 30
	e := NewExecutor(nil, w, h)
	scene := newScene(w, h, black)
	mask := image.NewAlpha(scene.Bounds())
	dst := image.NewRGBA(scene.Bounds())
	Composite(e, scene, mask, NewSeedField(w, h), Uniforms{Color: red, Width: 5, Enabled: 1}, dst)
	if !bytes.Equal(dst.Pix, scene.Pix) {
		t.Error("composite without seeds changed the scene")
	}
}
