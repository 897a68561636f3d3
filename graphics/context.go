package graphics

// Context defines the interface for an OpenGL context owned by a host
// (a GLFW window or a headless EGL pbuffer).
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
	IsGLES() bool
}

// Surface is the drawable the hero renders into. Size reports the logical
// (window/CSS pixel) size, SetDrawableSize records the pixel size chosen
// for the current device pixel ratio.
type Surface interface {
	Size() (width, height int)
	SetDrawableSize(width, height int)
	DrawableSize() (width, height int)
}

// FrameFunc is a host frame callback. now is a monotonic timestamp in
// milliseconds.
type FrameFunc func(now float64)

// Scheduler is the host's per-frame callback primitive.
type Scheduler interface {
	// RequestFrame schedules fn to run on the next frame and returns a
	// handle that can be passed to CancelFrame.
	RequestFrame(fn FrameFunc) uint64
	CancelFrame(handle uint64)
}
