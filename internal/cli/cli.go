// Package cli implements the outline command-line interface.
//
// The CLI builds a small mesh scene, flat-shades it into a scene image and
// runs the outline pipeline over it.
//
// # Commands
//
//   - render: write one outlined frame as PNG
//   - animate: pipe a turntable of outlined frames into ffmpeg
//
// # Configuration
//
// Every command reads an optional TOML file (--config). Flags given on the
// command line override the file.
//
// # Logging
//
// --verbose (-v) switches to debug level. The charmbracelet logger is also
// installed as the slog handler of the outline library, so pass counts and
// backend fallbacks show up in the same stream.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gogpu/outline"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	verbose    bool
	useGPU     bool
	configPath string
}

// Execute runs the outline CLI.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:          "outline",
		Short:        "Render jump-flood silhouette outlines",
		Version:      outline.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if g.verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(os.Stderr, level)
			outline.SetLogger(slog.New(logger))
			cmd.SetContext(withLogger(cmd.Context(), logger))

			selectBackend(logger, g.useGPU)
		},
	}

	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&g.useGPU, "gpu", false, "run the outline passes on the GPU when available")
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "TOML config file")

	root.AddCommand(newRenderCmd(&g))
	root.AddCommand(newAnimateCmd(&g))
	return root
}

// selectBackend drops the registered backend unless the GPU was asked for.
// The backend registers at program start, before any logger is installed,
// so a failed registration is reported here.
func selectBackend(logger *charmlog.Logger, useGPU bool) {
	if !useGPU {
		outline.UnregisterBackend()
		return
	}
	if b := outline.RegisteredBackend(); b != nil {
		logger.Debug("outline backend", "name", b.Name())
		return
	}
	logger.Warn("GPU backend not available, rendering on CPU")
}

// loadConfig reads the config file named by the global flags, or returns
// the defaults when none was given.
func loadConfig(g *globalFlags) (Config, error) {
	if g.configPath == "" {
		return DefaultConfig(), nil
	}
	cfg, err := LoadConfig(g.configPath)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
