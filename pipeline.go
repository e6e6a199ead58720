package outline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/outline/internal/jfa"
	"github.com/gogpu/outline/internal/parallel"
	"github.com/gogpu/outline/scene"
	"github.com/gogpu/outline/silhouette"
)

// ErrInvalidSize is returned for negative image dimensions.
var ErrInvalidSize = errors.New("outline: invalid size")

// Frame is the input of one Render call.
type Frame struct {
	// Scene is the host's shaded color image (premultiplied RGBA). Its size
	// is the output size. A nil Scene is a zero-size frame.
	Scene *image.RGBA

	// Objects is the renderable set. Objects with an Outline tag are drawn
	// into the silhouette; the first tag with a color or width sets the
	// outline for the whole frame.
	Objects scene.Set

	// Camera is the view the silhouette is rendered from.
	Camera scene.Camera

	// Settings overrides the pipeline settings for this frame when non-nil.
	Settings *Settings
}

// Stats describes the last rendered frame.
type Stats struct {
	// Backend is the executor that produced the frame ("cpu", "analytic" or
	// a backend name).
	Backend string

	// Passes is the number of image passes run after the silhouette pass.
	Passes int

	// FloodPasses is the number of jump flood passes.
	FloodPasses int

	// Triangles is the number of silhouette triangles rasterized.
	Triangles int

	// PassThrough is true when the frame returned the scene unchanged
	// without running any pass.
	PassThrough bool

	// Settings is the sanitized snapshot the frame used.
	Settings Settings

	// Duration is the wall time of Render.
	Duration time.Duration
}

// Pipeline owns the transient images of the outline passes and runs them
// once per frame.
//
// Thread safety: Render, Resize and Close may be called from any goroutine;
// calls are serialized.
type Pipeline struct {
	mu   sync.Mutex
	opts options

	pool *parallel.WorkerPool
	exec *jfa.Executor

	width, height int

	sil    *silhouette.Renderer
	mask   *image.Alpha
	region *image.Gray
	prop   *jfa.Propagator
	out    *image.RGBA

	stats Stats
}

// New creates a pipeline for width x height frames. A zero size is valid and
// makes every frame a pass-through until the pipeline is resized.
func New(width, height int, opts ...Option) (*Pipeline, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("outline: new pipeline %dx%d: %w", width, height, ErrInvalidSize)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if b := o.backend; b != nil && !o.cpuOnly && !o.analytic {
		if err := b.Init(); err != nil {
			return nil, fmt.Errorf("outline: backend %s: %w", b.Name(), err)
		}
		propagateLogger(b, Logger())
	}

	p := &Pipeline{
		opts: o,
		pool: parallel.NewWorkerPool(o.workers),
		sil:  silhouette.NewRenderer(width, height),
	}
	p.allocate(width, height)

	Logger().Debug("outline: pipeline created",
		"width", width, "height", height,
		"workers", p.pool.Workers(),
		"regionMask", o.regionMask,
		"analytic", o.analytic)
	return p, nil
}

// allocate (re)creates every transient image for the given size.
func (p *Pipeline) allocate(width, height int) {
	r := image.Rect(0, 0, width, height)
	p.width, p.height = width, height
	p.exec = jfa.NewExecutor(p.pool, width, height)
	p.mask = image.NewAlpha(r)
	p.region = image.NewGray(r)
	p.prop = jfa.NewPropagator(p.exec)
	p.out = image.NewRGBA(r)
}

// Resize reallocates the transient images for a new output size. Resizing
// to the current size is a no-op.
func (p *Pipeline) Resize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("outline: resize to %dx%d: %w", width, height, ErrInvalidSize)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resize(width, height)
	return nil
}

func (p *Pipeline) resize(width, height int) {
	if width == p.width && height == p.height {
		return
	}
	Logger().Debug("outline: resize", "from", image.Pt(p.width, p.height), "to", image.Pt(width, height))
	p.allocate(width, height)
}

// Size returns the current output size.
func (p *Pipeline) Size() (width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// Settings returns the settings used by frames that carry none.
func (p *Pipeline) Settings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts.settings
}

// SetSettings replaces the settings used by frames that carry none. The
// change takes effect at the next Render.
func (p *Pipeline) SetSettings(s Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts.settings = s
}

// LastStats returns the statistics of the last Render call.
func (p *Pipeline) LastStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Close stops the worker pool once any Render in progress has returned.
// Closing twice is a no-op. A closed pipeline still renders, on the calling
// goroutine only.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pool.Close()
}

// Render runs all passes for f and returns the composited image. The image
// is owned by the pipeline and is overwritten by the next Render or Resize.
//
// Render follows the size of f.Scene, resizing the pipeline when needed.
// Disabled settings, an empty tagged set, a zero-size viewport or an
// invisible outline return the scene unchanged. Settings errors are clamped
// and logged, never returned. The only error is a cancellation of ctx
// observed between passes.
func (p *Pipeline) Render(ctx context.Context, f Frame) (*image.RGBA, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var w, h int
	if f.Scene != nil {
		w, h = f.Scene.Rect.Dx(), f.Scene.Rect.Dy()
	}
	p.resize(w, h)

	s := p.snapshot(f)
	st := Stats{Backend: "cpu", Settings: s}
	defer func() {
		st.Duration = time.Since(start)
		p.stats = st
	}()

	if !s.Visible() || w == 0 || h == 0 || f.Camera.Empty() {
		p.passThrough(f.Scene, &st)
		return p.out, nil
	}

	p.sil.Render(f.Objects, f.Camera, p.mask)
	st.Triangles, _ = p.sil.Stats()
	if st.Triangles == 0 {
		p.passThrough(f.Scene, &st)
		return p.out, nil
	}

	if sharesPix(f.Scene, p.out) {
		f.Scene = cloneRGBA(f.Scene)
	}

	u := s.Uniforms()
	if p.opts.analytic {
		st.Backend = "analytic"
		st.Passes = 1
		jfa.CompositeAnalytic(p.exec, f.Scene, p.mask, u, p.out)
		return p.out, nil
	}

	steps := jfa.StepSchedule(s.MaxWidth)
	if b := p.backend(); b != nil {
		err := b.Flood(&FloodRequest{
			Scene:      f.Scene,
			Mask:       p.mask,
			Dst:        p.out,
			Uniforms:   u,
			MaxWidth:   s.MaxWidth,
			Steps:      steps,
			RegionMask: p.opts.regionMask,
		})
		if err == nil {
			st.Backend = b.Name()
			st.FloodPasses = jfa.PassCount(s.MaxWidth)
			st.Passes = p.passCount(st.FloodPasses)
			return p.out, nil
		}
		if errors.Is(err, ErrFallbackToCPU) {
			Logger().Debug("outline: backend declined frame", "backend", b.Name())
		} else {
			Logger().Warn("outline: backend failed, using CPU", "backend", b.Name(), "err", err)
		}
	}

	var region *image.Gray
	if p.opts.regionMask {
		jfa.Dilate(p.exec, p.mask, s.MaxWidth, p.region)
		region = p.region
	}

	p.prop.Reset()
	jfa.InitSeeds(p.exec, p.mask, region, p.prop.Front())
	seeds, err := p.prop.Run(ctx, steps)
	if err != nil {
		return nil, err
	}
	jfa.Composite(p.exec, f.Scene, p.mask, seeds, u, p.out)

	st.FloodPasses = p.prop.Passes()
	st.Passes = p.passCount(st.FloodPasses)
	Logger().Debug("outline: frame", "passes", st.Passes, "flood", st.FloodPasses, "triangles", st.Triangles)
	return p.out, nil
}

// snapshot resolves the settings of one frame: the frame override or the
// pipeline default, the first object tag, then sanitization.
func (p *Pipeline) snapshot(f Frame) Settings {
	s := p.opts.settings
	if f.Settings != nil {
		s = *f.Settings
	}
	if group, ok := scene.ResolveGroup(f.Objects); ok {
		s = s.WithOutline(group)
	} else {
		s.Enabled = false
	}
	clean := s.Sanitize()
	if clean != s {
		Logger().Warn("outline: settings clamped",
			"width", s.Width, "maxWidth", s.MaxWidth, "color", s.Color.Hex())
	}
	return clean
}

// passCount returns the passes run after the silhouette for a flood of n
// passes: optional dilation (2), seed, flood and composite.
func (p *Pipeline) passCount(n int) int {
	passes := 1 + n + 1
	if p.opts.regionMask {
		passes += 2
	}
	return passes
}

func (p *Pipeline) backend() Backend {
	if p.opts.cpuOnly {
		return nil
	}
	if p.opts.backend != nil {
		return p.opts.backend
	}
	return RegisteredBackend()
}

func (p *Pipeline) passThrough(src *image.RGBA, st *Stats) {
	st.PassThrough = true
	if src == nil {
		return
	}
	b := src.Rect
	n := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		copy(p.out.Pix[y*p.out.Stride:y*p.out.Stride+n], src.Pix[y*src.Stride:y*src.Stride+n])
	}
}

// sharesPix reports whether a and b start at the same pixel storage, as when
// a host feeds the previous Render result back in as the scene.
func sharesPix(a, b *image.RGBA) bool {
	return len(a.Pix) > 0 && len(b.Pix) > 0 && &a.Pix[0] == &b.Pix[0]
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, src.Rect.Dx(), src.Rect.Dy()))
	n := src.Rect.Dx() * 4
	for y := 0; y < src.Rect.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+n], src.Pix[y*src.Stride:y*src.Stride+n])
	}
	return dst
}
