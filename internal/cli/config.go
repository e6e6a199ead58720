package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/outline"
	"github.com/gogpu/outline/scene"
)

// Config is the TOML file layout:
//
//	[outline]
//	color = "#ff8000"
//	width = 5
//	max_width = 64
//	enabled = true
//	region_mask = true
//	analytic = false
//	workers = 0
//
//	[scene]
//	width = 640
//	height = 480
//	background = "#1e1e28"
//	eye = [3, 2, 4]
//	target = [0, 0, 0]
//	fov = 45
//
//	[[scene.objects]]
//	mesh = "cube"
//	position = [-1, 0, 0]
//	color = "#4a90d9"
//	outline = true
type Config struct {
	Outline OutlineConfig `toml:"outline"`
	Scene   SceneConfig   `toml:"scene"`
}

// OutlineConfig maps onto outline.Settings and the pipeline options.
type OutlineConfig struct {
	Color      string  `toml:"color"`
	Width      float32 `toml:"width"`
	MaxWidth   int     `toml:"max_width"`
	Enabled    bool    `toml:"enabled"`
	RegionMask bool    `toml:"region_mask"`
	Analytic   bool    `toml:"analytic"`
	Workers    int     `toml:"workers"`
}

// SceneConfig describes the viewport, camera and objects.
type SceneConfig struct {
	Width      int            `toml:"width"`
	Height     int            `toml:"height"`
	Background string         `toml:"background"`
	Eye        [3]float32     `toml:"eye"`
	Target     [3]float32     `toml:"target"`
	FOV        float32        `toml:"fov"`
	Objects    []ObjectConfig `toml:"objects"`
}

// ObjectConfig is one mesh instance. OutlineColor and OutlineWidth, when
// set, override the [outline] values for the frame.
type ObjectConfig struct {
	Mesh         string     `toml:"mesh"`
	Position     [3]float32 `toml:"position"`
	Scale        float32    `toml:"scale"`
	RotateY      float32    `toml:"rotate_y"`
	Color        string     `toml:"color"`
	Outline      bool       `toml:"outline"`
	OutlineColor string     `toml:"outline_color"`
	OutlineWidth float32    `toml:"outline_width"`
}

// DefaultConfig returns an orange outline around a cube next to a sphere.
func DefaultConfig() Config {
	def := outline.DefaultSettings()
	return Config{
		Outline: OutlineConfig{
			Color:      def.Color.Hex(),
			Width:      def.Width,
			MaxWidth:   def.MaxWidth,
			Enabled:    true,
			RegionMask: true,
		},
		Scene: SceneConfig{
			Width:      640,
			Height:     480,
			Background: "#1e1e28",
			Eye:        [3]float32{3, 2, 4},
			FOV:        45,
			Objects: []ObjectConfig{
				{Mesh: "cube", Position: [3]float32{-0.9, 0, 0}, Scale: 1, RotateY: 30, Color: "#4a90d9", Outline: true},
				{Mesh: "sphere", Position: [3]float32{1, 0, 0}, Scale: 0.8, Color: "#9ad94a"},
			},
		},
	}
}

// LoadConfig decodes path on top of DefaultConfig, so keys missing from the
// file keep their default. A file that lists objects replaces the default
// object list.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfig for in-memory TOML.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	cfg.Scene.Objects = nil
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("parse config: unknown key %q", undecoded[0].String())
	}
	if !md.IsDefined("scene", "objects") {
		cfg.Scene.Objects = DefaultConfig().Scene.Objects
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration the pipeline cannot clamp on its own.
func (c Config) Validate() error {
	if c.Scene.Width < 0 || c.Scene.Height < 0 {
		return fmt.Errorf("scene size %dx%d: %w", c.Scene.Width, c.Scene.Height, outline.ErrInvalidSize)
	}
	if _, err := scene.ParseHex(c.Outline.Color); err != nil {
		return fmt.Errorf("outline color: %w", err)
	}
	if _, err := scene.ParseHex(c.Scene.Background); err != nil {
		return fmt.Errorf("scene background: %w", err)
	}
	for i, o := range c.Scene.Objects {
		if _, err := meshByName(o.Mesh); err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		if _, err := scene.ParseHex(o.Color); o.Color != "" && err != nil {
			return fmt.Errorf("object %d color: %w", i, err)
		}
		if _, err := scene.ParseHex(o.OutlineColor); o.OutlineColor != "" && err != nil {
			return fmt.Errorf("object %d outline color: %w", i, err)
		}
	}
	return nil
}

// Settings converts the [outline] table. Validate must have passed.
func (c Config) Settings() outline.Settings {
	col, _ := scene.ParseHex(c.Outline.Color)
	return outline.Settings{
		Color:    col,
		Width:    c.Outline.Width,
		Enabled:  c.Outline.Enabled,
		MaxWidth: c.Outline.MaxWidth,
	}
}

// Options converts the [outline] table into pipeline options.
func (c Config) Options(useGPU bool) []outline.Option {
	opts := []outline.Option{
		outline.WithSettings(c.Settings()),
		outline.WithRegionMask(c.Outline.RegionMask),
		outline.WithWorkers(c.Outline.Workers),
	}
	if c.Outline.Analytic {
		opts = append(opts, outline.WithAnalytic())
	}
	if !useGPU {
		opts = append(opts, outline.WithCPU())
	}
	return opts
}
