package cli

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/outline"
	"github.com/gogpu/outline/scene"
	"github.com/gogpu/outline/silhouette"
)

// frameFlags override the config file for a single run.
type frameFlags struct {
	width, height int
	color         string
	outlineWidth  float32
	analytic      bool
}

func (f *frameFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.width, "width", 0, "image width (overrides config)")
	cmd.Flags().IntVar(&f.height, "height", 0, "image height (overrides config)")
	cmd.Flags().StringVar(&f.color, "color", "", "outline color as hex (overrides config)")
	cmd.Flags().Float32Var(&f.outlineWidth, "outline-width", 0, "outline width in pixels (overrides config)")
	cmd.Flags().BoolVar(&f.analytic, "analytic", false, "use the single-pass analytic composite")
}

// apply copies the flags the user set onto cfg.
func (f *frameFlags) apply(cmd *cobra.Command, cfg *Config) error {
	fl := cmd.Flags()
	if fl.Changed("width") {
		cfg.Scene.Width = f.width
	}
	if fl.Changed("height") {
		cfg.Scene.Height = f.height
	}
	if fl.Changed("color") {
		cfg.Outline.Color = f.color
	}
	if fl.Changed("outline-width") {
		cfg.Outline.Width = f.outlineWidth
	}
	if fl.Changed("analytic") {
		cfg.Outline.Analytic = f.analytic
	}
	return cfg.Validate()
}

func newRenderCmd(g *globalFlags) *cobra.Command {
	var (
		ff  frameFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one outlined frame to a PNG file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if err := ff.apply(cmd, &cfg); err != nil {
				return err
			}
			return runRender(cmd.Context(), cfg, g.useGPU, out)
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "outline.png", "output PNG file")
	return cmd
}

func runRender(ctx context.Context, cfg Config, useGPU bool, out string) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	r, err := newRenderer(cfg, useGPU)
	if err != nil {
		return err
	}
	defer r.Close()

	img, err := r.frame(ctx, 0)
	if err != nil {
		return err
	}
	if err := savePNG(out, img); err != nil {
		return err
	}
	st := r.pipe.LastStats()
	prog.done("rendered "+out, "backend", st.Backend, "passes", st.Passes)
	return nil
}

// renderer draws frames of a configured scene.
type renderer struct {
	cfg   Config
	cam   scene.Camera
	sil   *silhouette.Renderer
	pipe  *outline.Pipeline
	scene *image.RGBA
}

func newRenderer(cfg Config, useGPU bool) (*renderer, error) {
	w, h := cfg.Scene.Width, cfg.Scene.Height
	pipe, err := outline.New(w, h, cfg.Options(useGPU)...)
	if err != nil {
		return nil, err
	}
	return &renderer{
		cfg:   cfg,
		cam:   cfg.Camera(),
		sil:   silhouette.NewRenderer(w, h),
		pipe:  pipe,
		scene: image.NewRGBA(image.Rect(0, 0, w, h)),
	}, nil
}

// frame shades the scene turned by spin radians and outlines it. The
// returned image is owned by the pipeline until the next call.
func (r *renderer) frame(ctx context.Context, spin float32) (*image.RGBA, error) {
	objs, err := r.cfg.Objects(spin)
	if err != nil {
		return nil, err
	}
	r.cfg.shade(r.sil, objs, r.cam, r.scene)
	return r.pipe.Render(ctx, outline.Frame{Scene: r.scene, Objects: objs, Camera: r.cam})
}

func (r *renderer) Close() { r.pipe.Close() }

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
