package glcore

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/goshaderhero/graphics"
	"github.com/richinsley/goshaderhero/shader"
)

// Target is an offscreen colour buffer sized to the surface's drawable. The
// hero renders into it; the window presents it scaled to the framebuffer
// and the recorder reads it back.
type Target struct {
	backend     *Backend
	surface     graphics.Surface
	fbo         uint32
	textureID   uint32
	width       int
	height      int
	blitProgram uint32
	blitTexLoc  int32
	blitVAO     uint32
	blitVBO     uint32
}

// NewTarget creates the framebuffer and the blit program.
func NewTarget(b *Backend, surface graphics.Surface, isGLES bool) (*Target, error) {
	t := &Target{backend: b, surface: surface}

	gl.GenFramebuffers(1, &t.fbo)
	gl.GenTextures(1, &t.textureID)
	w, h := surface.DrawableSize()
	if err := t.allocate(w, h); err != nil {
		t.Destroy()
		return nil, err
	}

	vs, fs := shader.GetBlitShaders(isGLES)
	program, err := newProgram(b, vs, fs)
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("failed to create blit program: %w", err)
	}
	t.blitProgram = program
	t.blitTexLoc = b.UniformLocation(program, "u_texture")

	gl.GenVertexArrays(1, &t.blitVAO)
	gl.GenBuffers(1, &t.blitVBO)
	gl.BindVertexArray(t.blitVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, t.blitVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(shader.QuadVertices)*4, gl.Ptr(shader.QuadVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(b.vao)

	return t, nil
}

func (t *Target) allocate(width, height int) error {
	width, height = max(width, 1), max(height, 1)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.BindTexture(gl.TEXTURE_2D, t.textureID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.textureID, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("offscreen fbo is not complete: 0x%x", status)
	}
	t.width, t.height = width, height
	return nil
}

// Bind makes the target the draw framebuffer, reallocating it first if the
// surface's drawable size changed.
func (t *Target) Bind() error {
	w, h := t.surface.DrawableSize()
	if max(w, 1) != t.width || max(h, 1) != t.height {
		if err := t.allocate(w, h); err != nil {
			return err
		}
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	return nil
}

// Unbind restores the default framebuffer.
func (t *Target) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Present draws the target's texture over the default framebuffer of size
// fbWidth x fbHeight.
func (t *Target) Present(fbWidth, fbHeight int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.UseProgram(t.blitProgram)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, t.textureID)
	if t.blitTexLoc >= 0 {
		gl.Uniform1i(t.blitTexLoc, 0)
	}
	gl.BindVertexArray(t.blitVAO)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindVertexArray(t.backend.vao)
}

// Size returns the allocated size in pixels.
func (t *Target) Size() (int, int) { return t.width, t.height }

// ReadPixels copies the target into dst as tightly packed RGBA rows, bottom
// row first. dst must hold at least width*height*4 bytes.
func (t *Target) ReadPixels(dst []byte) error {
	need := t.width * t.height * 4
	if len(dst) < need {
		return fmt.Errorf("pixel buffer too small: have %d, need %d", len(dst), need)
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(t.width), int32(t.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&dst[0]))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	return nil
}

// Destroy releases the framebuffer, texture and blit resources.
func (t *Target) Destroy() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
	}
	if t.textureID != 0 {
		gl.DeleteTextures(1, &t.textureID)
	}
	if t.blitProgram != 0 {
		gl.DeleteProgram(t.blitProgram)
	}
	if t.blitVBO != 0 {
		gl.DeleteBuffers(1, &t.blitVBO)
	}
	if t.blitVAO != 0 {
		gl.DeleteVertexArrays(1, &t.blitVAO)
	}
	*t = Target{}
}

func newProgram(b *Backend, vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader := b.CreateShader(graphics.VertexStage)
	defer b.DeleteShader(vertexShader)
	if err := b.CompileShader(vertexShader, vertexShaderSource); err != nil {
		return 0, err
	}
	fragmentShader := b.CreateShader(graphics.FragmentStage)
	defer b.DeleteShader(fragmentShader)
	if err := b.CompileShader(fragmentShader, fragmentShaderSource); err != nil {
		return 0, err
	}

	program := b.CreateProgram()
	b.AttachShader(program, vertexShader)
	b.AttachShader(program, fragmentShader)
	if err := b.LinkProgram(program); err != nil {
		b.DeleteProgram(program)
		return 0, err
	}
	return program, nil
}
