// Package glcore implements graphics.GL on top of the go-gl OpenGL 4.1
// core bindings. A Backend must only be used on the thread that holds the
// context current.
package glcore

import (
	"fmt"
	"strings"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/goshaderhero/graphics"
)

var glInitOnce sync.Once

// Backend is a graphics.GL over the current OpenGL context.
type Backend struct {
	vao uint32
}

// NewBackend initialises the GL function pointers (once per process) and
// binds a vertex array object, which the core profile requires for any
// draw.
func NewBackend(ctx graphics.Context) (*Backend, error) {
	ctx.MakeCurrent()

	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}

	b := &Backend{}
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)
	return b, nil
}

// Destroy deletes the vertex array object.
func (b *Backend) Destroy() {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
}

func (b *Backend) CreateShader(stage graphics.ShaderStage) uint32 {
	if stage == graphics.VertexStage {
		return gl.CreateShader(gl.VERTEX_SHADER)
	}
	return gl.CreateShader(gl.FRAGMENT_SHADER)
}

func (b *Backend) CompileShader(shader uint32, source string) error {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		return fmt.Errorf("failed to compile shader: %v", strings.TrimRight(logText, "\x00"))
	}
	return nil
}

func (b *Backend) DeleteShader(shader uint32) { gl.DeleteShader(shader) }

func (b *Backend) CreateProgram() uint32 { return gl.CreateProgram() }

func (b *Backend) AttachShader(program, shader uint32) { gl.AttachShader(program, shader) }

func (b *Backend) DetachShader(program, shader uint32) { gl.DetachShader(program, shader) }

func (b *Backend) LinkProgram(program uint32) error {
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return fmt.Errorf("failed to link program: %v", strings.TrimRight(log, "\x00"))
	}
	return nil
}

func (b *Backend) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

// ProgramDeleted reports true once the name no longer refers to a program.
// A program still in use stays a program with DELETE_STATUS set.
func (b *Backend) ProgramDeleted(program uint32) bool {
	if program == 0 || !gl.IsProgram(program) {
		return true
	}
	var status int32
	gl.GetProgramiv(program, gl.DELETE_STATUS, &status)
	return status == gl.TRUE
}

func (b *Backend) UseProgram(program uint32) { gl.UseProgram(program) }

func (b *Backend) CreateBuffer() uint32 {
	var buffer uint32
	gl.GenBuffers(1, &buffer)
	return buffer
}

func (b *Backend) BufferVertices(buffer uint32, data []float32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
}

func (b *Backend) BindBuffer(buffer uint32) {
	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
}

func (b *Backend) DeleteBuffer(buffer uint32) { gl.DeleteBuffers(1, &buffer) }

func (b *Backend) AttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

func (b *Backend) VertexAttrib(loc int32, components int32) {
	gl.BindVertexArray(b.vao)
	gl.EnableVertexAttribArray(uint32(loc))
	gl.VertexAttribPointer(uint32(loc), components, gl.FLOAT, false, 0, gl.PtrOffset(0))
}

func (b *Backend) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (b *Backend) Uniform1f(loc int32, v float32)    { gl.Uniform1f(loc, v) }
func (b *Backend) Uniform2f(loc int32, x, y float32) { gl.Uniform2f(loc, x, y) }
func (b *Backend) Uniform1i(loc int32, v int32)      { gl.Uniform1i(loc, v) }

func (b *Backend) Uniform2fv(loc int32, v []float32) {
	if len(v) < 2 {
		return
	}
	gl.Uniform2fv(loc, int32(len(v)/2), &v[0])
}

func (b *Backend) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }

func (b *Backend) ClearColor(r, g, bl, a float32) { gl.ClearColor(r, g, bl, a) }

func (b *Backend) Clear() { gl.Clear(gl.COLOR_BUFFER_BIT) }

func (b *Backend) DrawTriangleStrip(first, count int32) {
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.TRIANGLE_STRIP, first, count)
}

var _ graphics.GL = (*Backend)(nil)
