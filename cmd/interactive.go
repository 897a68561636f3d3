package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/richinsley/goshaderhero/glcore"
	"github.com/richinsley/goshaderhero/glfwcontext"
	"github.com/richinsley/goshaderhero/graphics"
	"github.com/richinsley/goshaderhero/loop"
	"github.com/richinsley/goshaderhero/pointer"
	"github.com/richinsley/goshaderhero/renderer"
	"github.com/richinsley/goshaderhero/shader"
	"github.com/richinsley/goshaderhero/watch"
)

func (a *app) runInteractive(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	if err := glfwcontext.InitGraphics(logger); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	defer glfwcontext.TerminateGraphics(logger)

	win, err := glfwcontext.New(cfg.Window, logger)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Shutdown()

	backend, err := glcore.NewBackend(win)
	if err != nil {
		return err
	}
	defer backend.Destroy()

	target, err := glcore.NewTarget(backend, win, win.IsGLES())
	if err != nil {
		return err
	}
	defer target.Destroy()

	fragment, err := loadFragment(cfg.Render.ShaderFile)
	if err != nil {
		return err
	}
	r := newHeroRenderer(backend, win, fragment, win.IsGLES(), logger)
	defer r.Release()

	agg := pointer.New(win, 1, pointer.WithCapacity(cfg.Render.MaxPointers))
	ctrl := loop.New(win, win, loop.WithLogger(logger), loop.WithMinScale(cfg.Render.MinScale))
	ctrl.Attach(r, agg)
	defer ctrl.Teardown()

	win.SetPointerSink(agg)
	defer win.SetPointerSink(nil)
	win.OnResize(ctrl.Resize)
	defer win.OnResize(nil)

	if cfg.Render.Watch {
		debounce, _ := cfg.Render.Debounce()
		w, err := watch.New(cfg.Render.ShaderFile, debounce, logger)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
		ctrl.OnTick(func(float64) {
			if src, ok := w.Drain(); ok {
				reloadShader(r, src, win.IsGLES(), logger)
			}
		})
	}

	ctrl.Start()
	logger.Info("Starting interactive render loop...")
	win.Run(func() {
		if err := target.Bind(); err != nil {
			logger.Error("Failed to bind render target", zap.Error(err))
		}
	}, func() {
		fbWidth, fbHeight := win.GetFramebufferSize()
		target.Present(fbWidth, fbHeight)
	})
	return nil
}

// newHeroRenderer builds the renderer for fragment. A source that fails to
// translate, compile or link is logged and yields a renderer whose draws
// are no-ops; the window stays up with a blank background and a watched
// file can still fix the shader.
func newHeroRenderer(gl graphics.GL, surface graphics.Surface, fragment string, isGLES bool, logger *zap.Logger) *renderer.Renderer {
	prog, err := shader.Prepare(fragment, isGLES)
	if err != nil {
		logger.Error("Hero shader unavailable", zap.Error(err))
		return renderer.New(gl, surface, shader.Program{}, renderer.WithLogger(logger))
	}

	r := renderer.New(gl, surface, prog, renderer.WithLogger(logger))
	if err := r.Setup(); err != nil {
		logger.Error("Hero shader unavailable", zap.Error(err))
		return r
	}
	if err := r.Init(); err != nil {
		logger.Error("Hero shader unavailable", zap.Error(err))
	}
	return r
}

// reloadShader swaps in a new fragment source. A source that fails to
// translate leaves the running program untouched.
func reloadShader(r *renderer.Renderer, src string, isGLES bool, logger *zap.Logger) {
	prog, err := shader.Prepare(src, isGLES)
	if err != nil {
		logger.Error("Shader reload rejected", zap.Error(err))
		return
	}
	if err := r.Reload(prog); err != nil {
		logger.Error("Shader reload failed", zap.Error(err))
		return
	}
	logger.Info("Shader reloaded")
}
