package renderer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/richinsley/goshaderhero/graphics"
	"github.com/richinsley/goshaderhero/graphics/graphicstest"
	"github.com/richinsley/goshaderhero/pointer"
	"github.com/richinsley/goshaderhero/shader"
)

func newRenderer(t *testing.T, gl *graphicstest.GL, opts ...Option) *Renderer {
	t.Helper()
	surface := graphicstest.NewSurface(800, 600)
	return New(gl, surface, shader.Raw(shader.HeroFragment, true), opts...)
}

func readyRenderer(t *testing.T, gl *graphicstest.GL, opts ...Option) *Renderer {
	t.Helper()
	r := newRenderer(t, gl, opts...)
	require.NoError(t, r.Setup())
	require.NoError(t, r.Init())
	return r
}

func TestRenderPushesUniformsAndDrawsOnce(t *testing.T) {
	gl := graphicstest.NewGL()
	r := readyRenderer(t, gl)

	snap := pointer.Snapshot{
		Count:   2,
		Coords:  []float32{1, 2, 3, 4},
		Primary: pointer.Point{X: 1, Y: 2},
		Move:    pointer.Point{X: 4, Y: 3},
	}
	r.Render(2500, snap)

	require.Len(t, gl.Draws, 1)
	d := gl.Draws[0]
	assert.Equal(t, int32(0), d.First)
	assert.Equal(t, int32(4), d.Count)
	assert.Equal(t, [4]int32{0, 0, 800, 600}, d.Viewport)
	assert.Equal(t, []float32{800, 600}, d.Uniforms["resolution"])
	assert.Equal(t, []float32{2.5}, d.Uniforms["time"])
	assert.Equal(t, []float32{4, 3}, d.Uniforms["move"])
	assert.Equal(t, []float32{1, 2}, d.Uniforms["touch"])
	assert.Equal(t, []float32{2}, d.Uniforms["pointerCount"])
	assert.Equal(t, []float32{1, 2, 3, 4}, d.Uniforms["pointers"])
	assert.Equal(t, [4]float32{0, 0, 0, 1}, gl.ClearedWith())
}

func TestRenderSkipsEmptyPointerArray(t *testing.T) {
	gl := graphicstest.NewGL()
	r := readyRenderer(t, gl)
	r.Render(0, pointer.Snapshot{Coords: []float32{}})

	d, ok := gl.LastDraw()
	require.True(t, ok)
	assert.NotContains(t, d.Uniforms, "pointers")
	assert.Equal(t, []float32{0}, d.Uniforms["pointerCount"])
}

func TestRenderTruncatesPointerArray(t *testing.T) {
	gl := graphicstest.NewGL()
	r := readyRenderer(t, gl)

	coords := make([]float32, 2*(pointer.MaxPointers+2))
	r.Render(0, pointer.Snapshot{Count: pointer.MaxPointers + 2, Coords: coords})

	d, _ := gl.LastDraw()
	assert.Len(t, d.Uniforms["pointers"], 2*pointer.MaxPointers)
	assert.Equal(t, []float32{pointer.MaxPointers}, d.Uniforms["pointerCount"])
}

func TestInitUploadsQuad(t *testing.T) {
	gl := graphicstest.NewGL()
	r := readyRenderer(t, gl)
	assert.Equal(t, shader.QuadVertices, gl.Buffer(r.buffer))
	assert.Contains(t, gl.Calls, "VertexAttrib(0,2)")
}

func TestSetupFailureIsNonFatal(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	gl := graphicstest.NewGL()
	gl.CompileError = func(stage graphics.ShaderStage, _ string) string {
		if stage == graphics.FragmentStage {
			return "ERROR: 0:3: 'x' : undeclared identifier"
		}
		return ""
	}
	r := newRenderer(t, gl, WithLogger(zap.New(core)))

	err := r.Setup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared identifier")
	assert.False(t, r.Linked())
	assert.ErrorIs(t, r.Init(), ErrNotLinked)
	assert.Equal(t, 1, logs.FilterMessage("Shader compilation error").Len())

	assert.NotPanics(t, func() { r.Render(16, pointer.Snapshot{}) })
	assert.Empty(t, gl.Draws)
}

func TestLinkFailureIsNonFatal(t *testing.T) {
	gl := graphicstest.NewGL()
	gl.LinkError = "link failed"
	r := newRenderer(t, gl)

	assert.Error(t, r.Setup())
	r.Render(16, pointer.Snapshot{})
	assert.Empty(t, gl.Draws)
}

func TestRenderWithoutSetupIsNoop(t *testing.T) {
	gl := graphicstest.NewGL()
	r := newRenderer(t, gl)
	assert.NotPanics(t, func() { r.Render(0, pointer.Snapshot{}) })
	assert.Empty(t, gl.Draws)
}

func TestResetTwiceIsSafe(t *testing.T) {
	gl := graphicstest.NewGL()
	r := readyRenderer(t, gl)

	r.Reset()
	assert.Equal(t, 0, gl.LivePrograms())
	assert.Equal(t, 0, gl.LiveShaders())

	assert.NotPanics(t, r.Reset)
	deletes := 0
	for _, c := range gl.Calls {
		if strings.HasPrefix(c, "DeleteProgram") {
			deletes++
		}
	}
	assert.Equal(t, 1, deletes)

	r.Render(0, pointer.Snapshot{})
	assert.Empty(t, gl.Draws)
}

func TestRenderAfterExternalDeleteIsNoop(t *testing.T) {
	gl := graphicstest.NewGL()
	r := readyRenderer(t, gl)
	gl.DeleteProgram(r.program)

	r.Render(0, pointer.Snapshot{})
	assert.Empty(t, gl.Draws)
	assert.NotPanics(t, r.Reset)
}

func TestUpdateScale(t *testing.T) {
	gl := graphicstest.NewGL()
	r := readyRenderer(t, gl, WithScale(1))
	r.UpdateScale(1.5)

	w, h := r.Viewport()
	assert.Equal(t, 1200, w)
	assert.Equal(t, 900, h)
	assert.Equal(t, "Viewport(0,0,1200,900)", gl.Calls[len(gl.Calls)-1])

	r.Render(0, pointer.Snapshot{})
	d, _ := gl.LastDraw()
	assert.Equal(t, []float32{1200, 900}, d.Uniforms["resolution"])
}

func TestInactiveUniformsAreSkipped(t *testing.T) {
	gl := graphicstest.NewGL()
	gl.Inactive["move"] = true
	gl.Inactive["pointers"] = true
	r := readyRenderer(t, gl)

	r.Render(0, pointer.Snapshot{Count: 1, Coords: []float32{1, 1}})
	d, _ := gl.LastDraw()
	assert.NotContains(t, d.Uniforms, "move")
	assert.NotContains(t, d.Uniforms, "pointers")
	assert.Contains(t, d.Uniforms, "touch")
}

func TestReloadRebuildsFromScratch(t *testing.T) {
	gl := graphicstest.NewGL()
	r := readyRenderer(t, gl)
	oldProgram, oldBuffer := r.program, r.buffer

	require.NoError(t, r.Reload(shader.Raw(shader.HeroFragment, true)))
	assert.NotEqual(t, oldProgram, r.program)
	assert.Equal(t, oldBuffer, r.buffer, "vertex buffer is reused")
	assert.True(t, gl.ProgramDeleted(oldProgram))
	assert.Equal(t, 1, gl.LivePrograms())
	assert.Equal(t, 2, gl.LiveShaders())

	r.Render(0, pointer.Snapshot{})
	assert.Len(t, gl.Draws, 1)
}

func TestReloadFailureLeavesNoopRenderer(t *testing.T) {
	gl := graphicstest.NewGL()
	r := readyRenderer(t, gl)

	gl.CompileError = func(graphics.ShaderStage, string) string { return "bad" }
	assert.Error(t, r.Reload(shader.Raw("broken", true)))
	assert.False(t, r.Linked())

	r.Render(0, pointer.Snapshot{})
	assert.Empty(t, gl.Draws)
}

func TestRelease(t *testing.T) {
	gl := graphicstest.NewGL()
	r := readyRenderer(t, gl)
	buffer := r.buffer
	r.Release()
	assert.Nil(t, gl.Buffer(buffer))
	assert.Equal(t, uint32(0), r.buffer)
	assert.NotPanics(t, r.Release)
}

func TestTestCompilesFragmentOnly(t *testing.T) {
	gl := graphicstest.NewGL()
	r := newRenderer(t, gl)
	assert.NoError(t, r.Test(shader.HeroFragment))

	gl.CompileError = func(_ graphics.ShaderStage, src string) string {
		if strings.Contains(src, "oops") {
			return "syntax error"
		}
		return ""
	}
	assert.EqualError(t, r.Test("oops"), "syntax error")
	assert.Equal(t, 0, gl.LiveShaders())
}

func TestTranslatedHeroResolvesMappedUniforms(t *testing.T) {
	prog, err := shader.Prepare(shader.HeroFragment, false)
	require.NoError(t, err)

	gl := graphicstest.NewGL()
	surface := graphicstest.NewSurface(800, 600)
	r := New(gl, surface, prog, WithScale(1))
	require.NoError(t, r.Setup())
	require.NoError(t, r.Init())

	r.Render(1000, pointer.Snapshot{Count: 1, Coords: []float32{100, 500}, Primary: pointer.Point{X: 100, Y: 500}})
	d, ok := gl.LastDraw()
	require.True(t, ok)

	assert.Equal(t, []float32{800, 600}, d.Uniforms[prog.UniformName(shader.UniformResolution)])
	assert.Equal(t, []float32{1}, d.Uniforms[prog.UniformName(shader.UniformTime)])
	assert.Equal(t, []float32{100, 500}, d.Uniforms[prog.UniformName(shader.UniformTouch)])
	assert.Equal(t, []float32{1}, d.Uniforms[prog.UniformName(shader.UniformPointerCount)])
	assert.Equal(t, []float32{100, 500}, d.Uniforms[prog.UniformName(shader.UniformPointers)])
	assert.NotContains(t, d.Uniforms, shader.UniformTime, "source names are not looked up")
}
