package cli

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/gogpu/outline"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Scene.Width = 64
	cfg.Scene.Height = 48
	cfg.Outline.MaxWidth = 8
	return cfg
}

func TestRunRender(t *testing.T) {
	out := filepath.Join(t.TempDir(), "frame.png")
	ctx := withLogger(t.Context(), newLogger(&bytes.Buffer{}, log.DebugLevel))

	if err := runRender(ctx, smallConfig(), false, out); err != nil {
		t.Fatalf("runRender: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("size = %v, want 64x48", b)
	}
}

func TestWriteFrames(t *testing.T) {
	r, err := newRenderer(smallConfig(), false)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if err := writeFrames(t.Context(), r, &buf, 3); err != nil {
		t.Fatalf("writeFrames: %v", err)
	}
	if want := 3 * 64 * 48 * 4; buf.Len() != want {
		t.Errorf("wrote %d bytes, want %d", buf.Len(), want)
	}
}

func TestFrameOutlinesTaggedObject(t *testing.T) {
	cfg := smallConfig()
	r, err := newRenderer(cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if _, err := r.frame(t.Context(), 0); err != nil {
		t.Fatal(err)
	}
	st := r.pipe.LastStats()
	if st.PassThrough {
		t.Fatal("default scene should not be a pass-through frame")
	}
	if st.Triangles == 0 {
		t.Error("no triangles rasterized")
	}
}

func TestFFmpegArgs(t *testing.T) {
	in, out := ffmpegArgs(640, 480, 24)
	if in["s"] != "640x480" || in["pix_fmt"] != "rgba" || in["r"] != 24 {
		t.Errorf("input args = %v", in)
	}
	if out["pix_fmt"] != "yuv420p" {
		t.Errorf("output args = %v", out)
	}
}

func TestRootCommandRender(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "outline.toml")
	if err := os.WriteFile(cfgPath, []byte("[outline]\nmax_width = 8\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.png")

	root := newRootCmd()
	root.SetArgs([]string{"render", "--config", cfgPath, "--out", out, "--width", "40", "--height", "30", "--color", "#ff0000"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	if err := root.ExecuteContext(t.Context()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestAnimateRejectsBadFrames(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"animate", "--frames", "0"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	if err := root.ExecuteContext(t.Context()); err == nil {
		t.Error("expected error for zero frames")
	}
}

type fakeBackend struct{ closed bool }

func (f *fakeBackend) Name() string                          { return "fake" }
func (f *fakeBackend) Init() error                           { return nil }
func (f *fakeBackend) Close()                                { f.closed = true }
func (f *fakeBackend) Flood(req *outline.FloodRequest) error { return outline.ErrFallbackToCPU }

func TestSelectBackend(t *testing.T) {
	const warning = "GPU backend not available"
	tests := []struct {
		name       string
		registered bool
		useGPU     bool
		wantWarn   bool
		wantKept   bool
	}{
		{"gpu without backend", false, true, true, false},
		{"gpu with backend", true, true, false, true},
		{"cpu with backend", true, false, false, false},
		{"cpu without backend", false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outline.UnregisterBackend()
			t.Cleanup(outline.UnregisterBackend)
			if tt.registered {
				if err := outline.RegisterBackend(&fakeBackend{}); err != nil {
					t.Fatal(err)
				}
			}

			var buf bytes.Buffer
			selectBackend(newLogger(&buf, log.InfoLevel), tt.useGPU)

			if got := strings.Contains(buf.String(), warning); got != tt.wantWarn {
				t.Errorf("warned = %v, want %v; log:\n%s", got, tt.wantWarn, buf.String())
			}
			if kept := outline.RegisteredBackend() != nil; kept != tt.wantKept {
				t.Errorf("backend kept = %v, want %v", kept, tt.wantKept)
			}
		})
	}
}
