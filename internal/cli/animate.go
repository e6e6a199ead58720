package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/spf13/cobra"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type animateFlags struct {
	frames     int
	fps        int
	out        string
	ffmpegPath string
}

func newAnimateCmd(g *globalFlags) *cobra.Command {
	var (
		ff frameFlags
		af animateFlags
	)
	cmd := &cobra.Command{
		Use:   "animate",
		Short: "Render a turntable of outlined frames into a video with ffmpeg",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if err := ff.apply(cmd, &cfg); err != nil {
				return err
			}
			if af.frames <= 0 || af.fps <= 0 {
				return fmt.Errorf("frames and fps must be positive (got %d, %d)", af.frames, af.fps)
			}
			return runAnimate(cmd.Context(), cfg, g.useGPU, af)
		},
	}
	ff.register(cmd)
	cmd.Flags().IntVar(&af.frames, "frames", 120, "number of frames for one full turn")
	cmd.Flags().IntVar(&af.fps, "fps", 30, "frames per second")
	cmd.Flags().StringVarP(&af.out, "out", "o", "outline.mp4", "output video file")
	cmd.Flags().StringVar(&af.ffmpegPath, "ffmpeg", "", "path to the ffmpeg binary")
	return cmd
}

// ffmpegArgs returns the input and output arguments for raw RGBA frames of
// the given size.
func ffmpegArgs(width, height, fps int) (inputArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"format":  "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", width, height),
		"r":       fps,
	}
	outputArgs = ffmpeg.KwArgs{
		"pix_fmt": "yuv420p",
		"c:v":     "libx264",
	}
	return inputArgs, outputArgs
}

func runAnimate(ctx context.Context, cfg Config, useGPU bool, af animateFlags) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	r, err := newRenderer(cfg, useGPU)
	if err != nil {
		return err
	}
	defer r.Close()

	pipeReader, pipeWriter := io.Pipe()
	inputArgs, outputArgs := ffmpegArgs(cfg.Scene.Width, cfg.Scene.Height, af.fps)
	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(af.out, outputArgs).
		OverWriteOutput().WithInput(pipeReader)
	if af.ffmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(af.ffmpegPath)
	}

	errc := make(chan error, 1)
	go func() {
		err := ffmpegCmd.Run()
		// Unblock the frame writer if ffmpeg exits early.
		_ = pipeReader.CloseWithError(fmt.Errorf("ffmpeg exited: %w", err))
		errc <- err
	}()

	writeErr := writeFrames(ctx, r, pipeWriter, af.frames)
	_ = pipeWriter.CloseWithError(writeErr)
	runErr := <-errc
	if writeErr != nil {
		return writeErr
	}
	if runErr != nil {
		return fmt.Errorf("ffmpeg: %w", runErr)
	}
	prog.done("wrote "+af.out, "frames", af.frames, "backend", r.pipe.LastStats().Backend)
	return nil
}

// writeFrames renders frames turntable frames and writes their rows to w.
func writeFrames(ctx context.Context, r *renderer, w io.Writer, frames int) error {
	logger := loggerFromContext(ctx)
	for i := range frames {
		spin := 2 * math32.Pi * float32(i) / float32(frames)
		img, err := r.frame(ctx, spin)
		if err != nil {
			return err
		}
		rowLen := img.Rect.Dx() * 4
		for y := range img.Rect.Dy() {
			off := y * img.Stride
			if _, err := w.Write(img.Pix[off : off+rowLen]); err != nil {
				return fmt.Errorf("write frame %d: %w", i, err)
			}
		}
		logger.Debug("frame", "index", i, "duration", r.pipe.LastStats().Duration)
	}
	return nil
}
