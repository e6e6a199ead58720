//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"slices"
	"testing"

	"github.com/gogpu/outline"
	"github.com/gogpu/outline/internal/jfa"
)

func TestPlanPasses(t *testing.T) {
	b := &FloodBackend{}
	steps := jfa.StepSchedule(16) // [1 8 4 2 1]

	tests := []struct {
		name       string
		regionMask bool
		wantLabels []string
	}{
		{"no region", false, []string{"init", "flood", "flood", "flood", "flood", "flood", "composite"}},
		{"region", true, []string{
			"dilate", "dilate", "dilate", "dilate", "dilate", "dilate", "dilate", "dilate",
			"init", "flood", "flood", "flood", "flood", "flood", "composite",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &outline.FloodRequest{MaxWidth: 16, Steps: steps, RegionMask: tt.regionMask}
			passes := b.planPasses(req, 32, 32)
			if len(passes) != len(tt.wantLabels) {
				t.Fatalf("got %d passes, want %d", len(passes), len(tt.wantLabels))
			}
			for i, p := range passes {
				if p.label != tt.wantLabels[i] {
					t.Errorf("pass %d = %s, want %s", i, p.label, tt.wantLabels[i])
				}
			}
		})
	}
}

// Sanitized settings never plan a step that overflows the int32 grid field.
func TestPlanPassesMaxMaxWidth(t *testing.T) {
	b := &FloodBackend{}
	s := outline.Settings{Width: 5, Enabled: true, MaxWidth: outline.MaxMaxWidth * 8}.Sanitize()
	req := &outline.FloodRequest{MaxWidth: s.MaxWidth, Steps: jfa.StepSchedule(s.MaxWidth), RegionMask: true}

	var reach [2]int
	for i, p := range b.planPasses(req, 8, 8) {
		g := decodeGrid(p.grid)
		if g.step < 0 || int(g.step) > outline.MaxMaxWidth {
			t.Fatalf("pass %d (%s): step %d out of range", i, p.label, g.step)
		}
		if p.label == "dilate" {
			reach[g.axis] += int(g.step)
		}
	}
	if reach != [2]int{outline.MaxMaxWidth, outline.MaxMaxWidth} {
		t.Errorf("dilation reach = %v, want %d on both axes", reach, outline.MaxMaxWidth)
	}
}

// The seed written by init must be the one read by the first flood pass,
// every flood pass must read what the previous one wrote, and composite
// must read the last write.
func TestPlanPassesPingPong(t *testing.T) {
	b := &FloodBackend{}
	for _, maxWidth := range []int{1, 2, 5, 64} {
		req := &outline.FloodRequest{MaxWidth: maxWidth, Steps: jfa.StepSchedule(maxWidth)}
		passes := b.planPasses(req, 8, 8)

		written := 1 - passes[0].seedIn
		for i, p := range passes[1:] {
			if p.seedIn != written {
				t.Fatalf("maxWidth %d: pass %d (%s) reads buffer %d, last write went to %d",
					maxWidth, i+1, p.label, p.seedIn, written)
			}
			written = 1 - p.seedIn
		}
	}
}

func TestDilationSteps(t *testing.T) {
	tests := []struct {
		radius int
		want   []int
	}{
		{-1, []int{0}},
		{0, []int{0}},
		{1, []int{1}},
		{2, []int{1, 1}},
		{4, []int{1, 3}},
		{16, []int{1, 3, 9, 3}},
		{64, []int{1, 3, 9, 27, 24}},
	}
	for _, tt := range tests {
		got := dilationSteps(tt.radius)
		if !slices.Equal(got, tt.want) {
			t.Errorf("dilationSteps(%d) = %v, want %v", tt.radius, got, tt.want)
		}
	}
}

// Applying the steps to a single covered sample must reach exactly radius
// along the axis and leave no gaps.
func TestDilationStepsContiguous(t *testing.T) {
	for radius := range 100 {
		covered := map[int]bool{0: true}
		for _, s := range dilationSteps(radius) {
			next := make(map[int]bool, len(covered)*3)
			for x := range covered {
				next[x-s], next[x], next[x+s] = true, true, true
			}
			covered = next
		}
		for x := -radius; x <= radius; x++ {
			if !covered[x] {
				t.Fatalf("radius %d: offset %d not covered", radius, x)
			}
		}
		if covered[radius+1] || covered[-radius-1] {
			t.Fatalf("radius %d: dilation reaches past the radius", radius)
		}
	}
}

func TestPlanDilationChain(t *testing.T) {
	b := &FloodBackend{}
	for _, radius := range []int{0, 1, 5, 64} {
		passes := b.planDilation(radius, 16, 16)
		src := uint32(selMask)
		for i, p := range passes {
			g := decodeGrid(p.grid)
			if g.flag != src {
				t.Fatalf("radius %d pass %d reads %d, previous pass wrote %d", radius, i, g.flag, src)
			}
			if g.dst == g.flag || g.dst == selMask {
				t.Fatalf("radius %d pass %d writes %d while reading %d", radius, i, g.dst, g.flag)
			}
			wantAxis := int32(0)
			if i >= len(passes)/2 {
				wantAxis = 1
			}
			if g.axis != wantAxis {
				t.Errorf("radius %d pass %d axis = %d, want %d", radius, i, g.axis, wantAxis)
			}
			src = g.dst
		}
		if src != selRegion {
			t.Errorf("radius %d: last pass writes %d, want region", radius, src)
		}
	}
}

func decodeGrid(b []byte) gridParams {
	return gridParams{
		width:  binary.LittleEndian.Uint32(b[0:]),
		height: binary.LittleEndian.Uint32(b[4:]),
		step:   int32(binary.LittleEndian.Uint32(b[8:])),  //nolint:gosec // test
		axis:   int32(binary.LittleEndian.Uint32(b[12:])), //nolint:gosec // test
		flag:   binary.LittleEndian.Uint32(b[16:]),
		dst:    binary.LittleEndian.Uint32(b[20:]),
	}
}

func TestFloodNotReady(t *testing.T) {
	b := &FloodBackend{}
	req := &outline.FloodRequest{
		Scene: image.NewRGBA(image.Rect(0, 0, 4, 4)),
		Mask:  image.NewAlpha(image.Rect(0, 0, 4, 4)),
		Dst:   image.NewRGBA(image.Rect(0, 0, 4, 4)),
	}
	if err := b.Flood(req); !errors.Is(err, outline.ErrFallbackToCPU) {
		t.Errorf("Flood() = %v, want ErrFallbackToCPU", err)
	}
}

func TestSetDeviceProviderRejectsNonHAL(t *testing.T) {
	b := &FloodBackend{}
	if err := b.SetDeviceProvider(struct{}{}); err == nil {
		t.Error("expected error for provider without HAL accessors")
	}
	if b.Ready() {
		t.Error("backend must not be ready after a rejected provider")
	}
}

func TestFloodMatchesCPU(t *testing.T) {
	b := &FloodBackend{}
	if err := b.Init(); err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	defer b.Close()

	const size = 64
	scene := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 3; i < len(scene.Pix); i += 4 {
		scene.Pix[i] = 255
	}
	mask := image.NewAlpha(scene.Rect)
	for y := 28; y < 36; y++ {
		for x := 28; x < 36; x++ {
			mask.SetAlpha(x, y, color.Alpha{A: 255})
		}
	}
	u := outline.Settings{Color: outline.Color{R: 1, A: 1}, Width: 5, Enabled: true, MaxWidth: 16}.Uniforms()
	steps := jfa.StepSchedule(16)

	gpuOut := image.NewRGBA(scene.Rect)
	req := &outline.FloodRequest{
		Scene: scene, Mask: mask, Dst: gpuOut,
		Uniforms: u, MaxWidth: 16, Steps: steps, RegionMask: true,
	}
	if err := b.Flood(req); err != nil {
		t.Fatalf("Flood: %v", err)
	}

	e := jfa.NewExecutor(nil, size, size)
	prop := jfa.NewPropagator(e)
	jfa.InitSeeds(e, mask, nil, prop.Front())
	final, err := prop.Run(t.Context(), steps)
	if err != nil {
		t.Fatal(err)
	}
	cpuOut := image.NewRGBA(scene.Rect)
	jfa.Composite(e, scene, mask, final, u, cpuOut)

	for i := range cpuOut.Pix {
		d := int(cpuOut.Pix[i]) - int(gpuOut.Pix[i])
		if d < -1 || d > 1 {
			x, y := (i/4)%size, (i/4)/size
			t.Fatalf("pixel (%d,%d) channel %d: gpu %d, cpu %d", x, y, i%4, gpuOut.Pix[i], cpuOut.Pix[i])
		}
	}
}
