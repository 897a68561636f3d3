package renderer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/richinsley/goshaderhero/graphics"
	"github.com/richinsley/goshaderhero/pointer"
	"github.com/richinsley/goshaderhero/shader"
)

// ErrNotLinked is returned by Init when Setup did not produce a linked
// program.
var ErrNotLinked = errors.New("shader program is not linked")

// Renderer owns the hero program and its vertex buffer and draws one frame
// per Render call. All methods must be called on the thread that owns the
// GL context.
type Renderer struct {
	gl      graphics.GL
	surface graphics.Surface
	prog    shader.Program
	logger  *zap.Logger

	vs, fs  uint32
	program uint32
	linked  bool
	buffer  uint32

	scale         float64
	width, height int32

	resolutionLoc   int32
	timeLoc         int32
	moveLoc         int32
	touchLoc        int32
	pointerCountLoc int32
	pointersLoc     int32
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for compile and link diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithScale sets the initial device pixel scale factor.
func WithScale(scale float64) Option {
	return func(r *Renderer) { r.scale = scale }
}

// New creates a renderer for prog drawing onto surface. The viewport is
// sized immediately; Setup and Init must follow before anything is drawn.
func New(gl graphics.GL, surface graphics.Surface, prog shader.Program, opts ...Option) *Renderer {
	r := &Renderer{
		gl:      gl,
		surface: surface,
		prog:    prog,
		logger:  zap.NewNop(),
		scale:   1,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resetLocations()
	r.UpdateScale(r.scale)
	return r
}

func (r *Renderer) resetLocations() {
	r.resolutionLoc = -1
	r.timeLoc = -1
	r.moveLoc = -1
	r.touchLoc = -1
	r.pointerCountLoc = -1
	r.pointersLoc = -1
}

// Setup compiles both stages and links the program. Failures are logged and
// returned for information only: the renderer stays usable and every
// Render becomes a no-op until a later Reload succeeds.
func (r *Renderer) Setup() error {
	r.vs = r.gl.CreateShader(graphics.VertexStage)
	r.fs = r.gl.CreateShader(graphics.FragmentStage)

	var errs []error
	if err := r.gl.CompileShader(r.vs, r.prog.Vertex); err != nil {
		r.logger.Error("Shader compilation error", zap.String("stage", "vertex"), zap.Error(err))
		errs = append(errs, fmt.Errorf("vertex shader: %w", err))
	}
	if err := r.gl.CompileShader(r.fs, r.prog.Fragment); err != nil {
		r.logger.Error("Shader compilation error", zap.String("stage", "fragment"), zap.Error(err))
		errs = append(errs, fmt.Errorf("fragment shader: %w", err))
	}

	r.program = r.gl.CreateProgram()
	r.gl.AttachShader(r.program, r.vs)
	r.gl.AttachShader(r.program, r.fs)
	if err := r.gl.LinkProgram(r.program); err != nil {
		r.logger.Error("Program link error", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to link program: %w", err))
	}

	r.linked = len(errs) == 0
	return errors.Join(errs...)
}

// Init uploads the full-screen quad and resolves attribute and uniform
// locations. The vertex buffer is created once and reused across reloads.
func (r *Renderer) Init() error {
	if !r.linked {
		return ErrNotLinked
	}

	if r.buffer == 0 {
		r.buffer = r.gl.CreateBuffer()
	}
	r.gl.BufferVertices(r.buffer, shader.QuadVertices)

	if loc := r.gl.AttribLocation(r.program, shader.AttribPosition); loc >= 0 {
		r.gl.VertexAttrib(loc, 2)
	}

	r.resolutionLoc = r.uniformLocation(shader.UniformResolution)
	r.timeLoc = r.uniformLocation(shader.UniformTime)
	r.moveLoc = r.uniformLocation(shader.UniformMove)
	r.touchLoc = r.uniformLocation(shader.UniformTouch)
	r.pointerCountLoc = r.uniformLocation(shader.UniformPointerCount)
	r.pointersLoc = r.uniformLocation(shader.UniformPointers)
	if r.pointersLoc < 0 {
		r.pointersLoc = r.uniformLocation(shader.UniformPointers + "[0]")
	}
	return nil
}

func (r *Renderer) uniformLocation(name string) int32 {
	return r.gl.UniformLocation(r.program, r.prog.UniformName(name))
}

// UpdateScale recomputes the viewport as the surface's logical size times
// scale. Call it whenever the surface is resized or its pixel ratio changes.
func (r *Renderer) UpdateScale(scale float64) {
	r.scale = scale
	w, h := r.surface.Size()
	r.width = int32(float64(w) * scale)
	r.height = int32(float64(h) * scale)
	r.gl.Viewport(0, 0, r.width, r.height)
}

// Render draws one frame. timestamp is in milliseconds. Without a live,
// linked program this does nothing.
func (r *Renderer) Render(timestamp float64, snap pointer.Snapshot) {
	if !r.Linked() {
		return
	}

	r.gl.Viewport(0, 0, r.width, r.height)
	r.gl.ClearColor(0, 0, 0, 1)
	r.gl.Clear()
	r.gl.UseProgram(r.program)
	r.gl.BindBuffer(r.buffer)

	if r.resolutionLoc >= 0 {
		r.gl.Uniform2f(r.resolutionLoc, float32(r.width), float32(r.height))
	}
	if r.timeLoc >= 0 {
		r.gl.Uniform1f(r.timeLoc, float32(timestamp*1e-3))
	}
	if r.moveLoc >= 0 {
		r.gl.Uniform2f(r.moveLoc, snap.Move.X, snap.Move.Y)
	}
	if r.touchLoc >= 0 {
		r.gl.Uniform2f(r.touchLoc, snap.Primary.X, snap.Primary.Y)
	}
	if r.pointerCountLoc >= 0 {
		r.gl.Uniform1i(r.pointerCountLoc, int32(min(snap.Count, pointer.MaxPointers)))
	}
	if r.pointersLoc >= 0 && len(snap.Coords) > 0 {
		coords := snap.Coords
		if len(coords) > 2*pointer.MaxPointers {
			coords = coords[:2*pointer.MaxPointers]
		}
		r.gl.Uniform2fv(r.pointersLoc, coords)
	}

	r.gl.DrawTriangleStrip(0, 4)
}

// Reset detaches and deletes both stages and the program. It is safe to
// call repeatedly.
func (r *Renderer) Reset() {
	if r.program != 0 && !r.gl.ProgramDeleted(r.program) {
		if r.vs != 0 {
			r.gl.DetachShader(r.program, r.vs)
			r.gl.DeleteShader(r.vs)
		}
		if r.fs != 0 {
			r.gl.DetachShader(r.program, r.fs)
			r.gl.DeleteShader(r.fs)
		}
		r.gl.DeleteProgram(r.program)
	}
	r.vs, r.fs, r.program = 0, 0, 0
	r.linked = false
	r.resetLocations()
}

// Release resets the program and deletes the vertex buffer.
func (r *Renderer) Release() {
	r.Reset()
	if r.buffer != 0 {
		r.gl.DeleteBuffer(r.buffer)
		r.buffer = 0
	}
}

// Reload tears the current program down completely and builds prog in its
// place. On failure the renderer is left in the no-op state.
func (r *Renderer) Reload(prog shader.Program) error {
	r.Reset()
	r.prog = prog
	if err := r.Setup(); err != nil {
		return err
	}
	return r.Init()
}

// Test compiles fragment as a standalone fragment shader and returns the
// compile error, if any. The test shader is always deleted.
func (r *Renderer) Test(fragment string) error {
	s := r.gl.CreateShader(graphics.FragmentStage)
	defer r.gl.DeleteShader(s)
	return r.gl.CompileShader(s, fragment)
}

// Linked reports whether a live, linked program is in place.
func (r *Renderer) Linked() bool {
	return r.program != 0 && r.linked && !r.gl.ProgramDeleted(r.program)
}

// Viewport returns the current drawable size in pixels.
func (r *Renderer) Viewport() (int, int) {
	return int(r.width), int(r.height)
}

// Program returns the sources the renderer was last built from.
func (r *Renderer) Program() shader.Program { return r.prog }

// Scale returns the current scale factor.
func (r *Renderer) Scale() float64 { return r.scale }
