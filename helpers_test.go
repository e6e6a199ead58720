package outline

import (
	"image"
	"image/color"
	"log/slog"
	"testing"

	"github.com/gogpu/outline/scene"
)

const frameSize = 100

// orthoCamera maps x and y in [-1, 1] onto a size x size viewport.
func orthoCamera(size int) scene.Camera {
	return scene.Camera{
		View:       scene.Identity(),
		Projection: scene.Orthographic(-1, 1, -1, 1, 0.1, 10),
		Width:      size,
		Height:     size,
	}
}

// squareObject is a quad covering pixels 45..54 of a 100x100 ortho view.
func squareObject(tag *scene.Outline) scene.Object {
	return scene.Object{
		Mesh:      scene.Quad(),
		Transform: scene.Mul(scene.Translate(0, 0, -1), scene.Scale(0.2, 0.2, 1)),
		Color:     scene.White,
		Outline:   tag,
	}
}

// squareFrame is the 10x10 square scenario with a red outline of width 5.
func squareFrame() Frame {
	return Frame{
		Scene:   newScene(frameSize, frameSize, color.RGBA{0, 0, 0, 255}),
		Objects: scene.Set{squareObject(scene.NewOutline(scene.Red, 5))},
		Camera:  orthoCamera(frameSize),
	}
}

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

func newTestPipeline(t *testing.T, w, h int, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(w, h, append([]Option{WithWorkers(4)}, opts...)...)
	if err != nil {
		t.Fatalf("New(%d, %d) error = %v", w, h, err)
	}
	t.Cleanup(p.Close)
	return p
}

func render(t *testing.T, p *Pipeline, f Frame) *image.RGBA {
	t.Helper()
	out, err := p.Render(t.Context(), f)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return out
}

func pixel(img *image.RGBA, x, y int) [4]uint8 {
	i := img.PixOffset(x, y)
	return [4]uint8(img.Pix[i : i+4])
}

func samePixels(a, b *image.RGBA) bool {
	if a.Rect.Size() != b.Rect.Size() {
		return false
	}
	for y := 0; y < a.Rect.Dy(); y++ {
		for x := 0; x < a.Rect.Dx(); x++ {
			if a.RGBAAt(a.Rect.Min.X+x, a.Rect.Min.Y+y) != b.RGBAAt(b.Rect.Min.X+x, b.Rect.Min.Y+y) {
				return false
			}
		}
	}
	return true
}

// mockBackend records calls and either fails or paints Dst magenta.
type mockBackend struct {
	name     string
	initErr  error
	floodErr error
	inits    int
	calls    int
	closed   bool
	logger   *slog.Logger
	provider any
	last     *FloodRequest
}

func (m *mockBackend) Name() string { return m.name }
func (m *mockBackend) Close()       { m.closed = true }

func (m *mockBackend) Init() error {
	m.inits++
	return m.initErr
}

func (m *mockBackend) Flood(req *FloodRequest) error {
	m.calls++
	m.last = req
	if m.floodErr != nil {
		return m.floodErr
	}
	for i := 0; i < len(req.Dst.Pix); i += 4 {
		copy(req.Dst.Pix[i:i+4], []uint8{255, 0, 255, 255})
	}
	return nil
}

func (m *mockBackend) SetLogger(l *slog.Logger) { m.logger = l }

func (m *mockBackend) SetDeviceProvider(p any) error {
	m.provider = p
	return nil
}

// resetBackend clears the global registration for a test.
func resetBackend(t *testing.T) {
	t.Helper()
	UnregisterBackend()
	t.Cleanup(UnregisterBackend)
}
