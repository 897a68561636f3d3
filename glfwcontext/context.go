package glfwcontext

import (
	"runtime"
	"slices"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"github.com/richinsley/goshaderhero/config"
	"github.com/richinsley/goshaderhero/graphics"
	"github.com/richinsley/goshaderhero/pointer"
)

// mouseContactID is the contact id reported for the mouse; GLFW exposes a
// single cursor.
const mouseContactID = 1

// PointerSink receives contact events in window (logical pixel)
// coordinates.
type PointerSink = pointer.Sink

// ResizeFunc is called with the logical window size and the device pixel
// ratio after the window or its content scale changes.
type ResizeFunc func(width, height int, devicePixelRatio float64)

type frameRequest struct {
	id uint64
	fn graphics.FrameFunc
}

// Context is a GLFW window acting as the hero's host: it is the GL context,
// the drawable surface, the frame scheduler and the source of pointer and
// resize events. Every callback runs on the thread that calls Run.
type Context struct {
	window *glfw.Window
	logger *zap.Logger

	cursor   *pointer.Cursor
	onResize ResizeFunc

	drawableW, drawableH int

	nextFrame uint64
	pending   []frameRequest
	startTime float64
}

// New creates and initializes a new GLFW window and returns a Context object.
func New(cfg config.WindowConfig, logger *zap.Logger) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ScaleToMonitor, glfw.True)

	if cfg.Visible {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Context{
		window:    win,
		logger:    logger,
		cursor:    pointer.NewCursor(mouseContactID),
		startTime: glfw.GetTime(),
	}
	c.drawableW, c.drawableH = win.GetFramebufferSize()

	win.SetKeyCallback(c.glfwKeyCallback)
	win.SetMouseButtonCallback(c.glfwMouseButtonCallback)
	win.SetCursorPosCallback(c.glfwCursorPosCallback)
	win.SetCursorEnterCallback(c.glfwCursorEnterCallback)
	win.SetFramebufferSizeCallback(func(w *glfw.Window, _, _ int) { c.notifyResize() })
	win.SetContentScaleCallback(func(w *glfw.Window, _, _ float32) { c.notifyResize() })

	return c, nil
}

// SetPointerSink routes pointer events to sink.
func (c *Context) SetPointerSink(sink PointerSink) { c.cursor.SetSink(sink) }

// OnResize registers fn and calls it once with the current size.
func (c *Context) OnResize(fn ResizeFunc) {
	c.onResize = fn
	c.notifyResize()
}

// glfwKeyCallback is the function that will be called by GLFW on a key event.
func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
}

func (c *Context) glfwMouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}
	switch action {
	case glfw.Press:
		c.cursor.Press(w.GetCursorPos())
	case glfw.Release:
		c.cursor.Release()
	}
}

func (c *Context) glfwCursorPosCallback(w *glfw.Window, x, y float64) {
	c.cursor.MoveTo(x, y)
}

func (c *Context) glfwCursorEnterCallback(w *glfw.Window, entered bool) {
	if !entered {
		c.cursor.Leave()
	}
}

// DevicePixelRatio returns the framebuffer-to-window ratio.
func (c *Context) DevicePixelRatio() float64 {
	fbWidth, _ := c.window.GetFramebufferSize()
	winWidth, _ := c.window.GetSize()
	if winWidth <= 0 {
		return 1
	}
	return float64(fbWidth) / float64(winWidth)
}

func (c *Context) notifyResize() {
	if c.onResize == nil {
		return
	}
	w, h := c.window.GetSize()
	if w <= 0 || h <= 0 {
		// Minimised.
		return
	}
	dpr := c.DevicePixelRatio()
	c.logger.Debug("Window resized", zap.Int("width", w), zap.Int("height", h), zap.Float64("dpr", dpr))
	c.onResize(w, h, dpr)
}

// Size implements graphics.Surface with the logical window size.
func (c *Context) Size() (int, int) { return c.window.GetSize() }

func (c *Context) SetDrawableSize(width, height int) {
	c.drawableW, c.drawableH = width, height
}

func (c *Context) DrawableSize() (int, int) { return c.drawableW, c.drawableH }

// RequestFrame implements graphics.Scheduler. Callbacks run on the next
// DispatchFrame.
func (c *Context) RequestFrame(fn graphics.FrameFunc) uint64 {
	c.nextFrame++
	c.pending = append(c.pending, frameRequest{id: c.nextFrame, fn: fn})
	return c.nextFrame
}

func (c *Context) CancelFrame(handle uint64) {
	c.pending = slices.DeleteFunc(c.pending, func(r frameRequest) bool { return r.id == handle })
}

// DispatchFrame runs the pending frame callbacks with the milliseconds
// elapsed since the window was created.
func (c *Context) DispatchFrame() int {
	batch := c.pending
	c.pending = nil
	now := (glfw.GetTime() - c.startTime) * 1000
	for _, r := range batch {
		r.fn(now)
	}
	return len(batch)
}

// Run dispatches frames until the window is closed. before and after
// bracket each frame's callbacks; events are polled after every swap.
func (c *Context) Run(before, after func()) {
	for !c.ShouldClose() {
		if before != nil {
			before()
		}
		c.DispatchFrame()
		if after != nil {
			after()
		}
		c.EndFrame()
	}
}

func (c *Context) IsGLES() bool {
	// GLFW does not provide a direct way to check if the context is GLES.
	return false
}

// MakeCurrent makes the context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

// Shutdown destroys the window.
func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

// InitGraphics initializes the main graphics subsystem (GLFW). Must be called from the main thread.
func InitGraphics(logger *zap.Logger) error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	logger.Info("GLFW Initialized")
	return nil
}

// TerminateGraphics shuts down the graphics subsystem. Must be called from the main thread.
func TerminateGraphics(logger *zap.Logger) {
	glfw.Terminate()
	logger.Info("GLFW Terminated")
}

var (
	_ graphics.Context   = (*Context)(nil)
	_ graphics.Surface   = (*Context)(nil)
	_ graphics.Scheduler = (*Context)(nil)
)
