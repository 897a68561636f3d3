package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/richinsley/goshaderhero/config"
	"github.com/richinsley/goshaderhero/encoder"
	"github.com/richinsley/goshaderhero/glcore"
	"github.com/richinsley/goshaderhero/glfwcontext"
	"github.com/richinsley/goshaderhero/graphics"
	"github.com/richinsley/goshaderhero/headless"
	"github.com/richinsley/goshaderhero/loop"
	"github.com/richinsley/goshaderhero/pointer"
	"github.com/richinsley/goshaderhero/recorder"
	"github.com/richinsley/goshaderhero/renderer"
	"github.com/richinsley/goshaderhero/shader"
)

func (a *app) recordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Render the hero offline to a video file",
		Long: `Renders a fixed number of frames without a visible window and pipes them
to ffmpeg. A pointer_path in the configuration scripts contacts so the glow
response appears in the video.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRecord(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.Float64Var(&a.record.Duration, "duration", 10, "Duration to record in seconds")
	f.IntVar(&a.record.FPS, "fps", 60, "Frames per second for recording")
	f.IntVar(&a.record.Width, "width", 1280, "Logical width of the output")
	f.IntVar(&a.record.Height, "height", 720, "Logical height of the output")
	f.Float64Var(&a.record.DevicePixelRatio, "dpr", 1, "Device pixel ratio to render at")
	f.StringVar(&a.record.Output, "output", "hero.mp4", "Output file name for recording")
	f.StringVar(&a.record.Codec, "codec", "h264", "Video codec: h264 or hevc")
	f.StringVar(&a.record.FFmpegPath, "ffmpeg", "", "Path to ffmpeg executable")
	return cmd
}

func (a *app) overrideRecord(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("duration") {
		cfg.Record.Duration = a.record.Duration
	}
	if flags.Changed("fps") {
		cfg.Record.FPS = a.record.FPS
	}
	if flags.Changed("width") {
		cfg.Record.Width = a.record.Width
	}
	if flags.Changed("height") {
		cfg.Record.Height = a.record.Height
	}
	if flags.Changed("dpr") {
		cfg.Record.DevicePixelRatio = a.record.DevicePixelRatio
	}
	if flags.Changed("output") {
		cfg.Record.Output = a.record.Output
	}
	if flags.Changed("codec") {
		cfg.Record.Codec = a.record.Codec
	}
	if flags.Changed("ffmpeg") {
		cfg.Record.FFmpegPath = a.record.FFmpegPath
	}
}

// offscreenHost is a GL context that is also its own drawable surface.
type offscreenHost interface {
	graphics.Context
	graphics.Surface
}

// hostOpener creates an offscreen host and the func that releases it.
type hostOpener func(width, height int, logger *zap.Logger) (offscreenHost, func(), error)

// openOffscreen prefers an EGL pbuffer and falls back to a hidden GLFW
// window when EGL is unsupported or fails to come up.
func openOffscreen(width, height int, logger *zap.Logger) (offscreenHost, func(), error) {
	return openOffscreenWith(openEGL, openHiddenWindow, width, height, logger)
}

func openOffscreenWith(primary, fallback hostOpener, width, height int, logger *zap.Logger) (offscreenHost, func(), error) {
	host, release, err := primary(width, height, logger)
	if err == nil {
		return host, release, nil
	}
	if !errors.Is(err, headless.ErrUnsupported) {
		logger.Warn("EGL headless context unavailable, using a hidden window", zap.Error(err))
	}
	return fallback(width, height, logger)
}

func openEGL(width, height int, logger *zap.Logger) (offscreenHost, func(), error) {
	h, err := headless.NewHeadless(width, height, logger)
	if err != nil {
		return nil, nil, err
	}
	return h, h.Shutdown, nil
}

func openHiddenWindow(width, height int, logger *zap.Logger) (offscreenHost, func(), error) {
	if err := glfwcontext.InitGraphics(logger); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	win, err := glfwcontext.New(config.WindowConfig{Width: width, Height: height, Title: "goshaderhero", Visible: false}, logger)
	if err != nil {
		glfwcontext.TerminateGraphics(logger)
		return nil, nil, fmt.Errorf("failed to create hidden window: %w", err)
	}
	return win, func() {
		win.Shutdown()
		glfwcontext.TerminateGraphics(logger)
	}, nil
}

func (a *app) runRecord(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	rc := cfg.Record

	host, closeHost, err := openOffscreen(rc.Width, rc.Height, logger)
	if err != nil {
		return err
	}
	defer closeHost()

	backend, err := glcore.NewBackend(host)
	if err != nil {
		return err
	}
	defer backend.Destroy()

	fragment, err := loadFragment(cfg.Render.ShaderFile)
	if err != nil {
		return err
	}
	prog, err := shader.Prepare(fragment, host.IsGLES())
	if err != nil {
		return err
	}
	r := renderer.New(backend, host, prog, renderer.WithLogger(logger))
	if err := r.Setup(); err != nil {
		return fmt.Errorf("hero shader unavailable: %w", err)
	}
	if err := r.Init(); err != nil {
		return err
	}
	defer r.Release()

	sched := loop.NewStepScheduler()
	agg := pointer.New(host, 1, pointer.WithCapacity(cfg.Render.MaxPointers))
	ctrl := loop.New(sched, host, loop.WithLogger(logger), loop.WithMinScale(cfg.Render.MinScale))
	ctrl.Attach(r, agg)
	ctrl.Resize(rc.Width, rc.Height, rc.DevicePixelRatio)
	defer ctrl.Teardown()

	target, err := glcore.NewTarget(backend, host, host.IsGLES())
	if err != nil {
		return err
	}
	defer target.Destroy()

	width, height := target.Size()
	opts := encoder.Options{
		Width:      width,
		Height:     height,
		FPS:        rc.FPS,
		Codec:      rc.Codec,
		Output:     rc.Output,
		FFmpegPath: rc.FFmpegPath,
	}
	sink, err := encoder.NewFFmpegSink(opts, logger)
	if err != nil {
		return err
	}
	enc := encoder.New(sink, opts, logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := recorder.New(ctrl, sched, target, agg, recorder.Options{
		Duration:    rc.Duration,
		FPS:         rc.FPS,
		PointerPath: rc.PointerPath,
		Logger:      logger,
	})
	if err := rec.Record(ctx, enc); err != nil {
		return fmt.Errorf("offscreen rendering failed: %w", err)
	}
	logger.Info("Successfully rendered", zap.String("output", rc.Output), zap.Int("width", width), zap.Int("height", height))
	return nil
}
