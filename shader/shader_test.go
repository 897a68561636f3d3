package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeroFragmentUniformContract(t *testing.T) {
	for _, decl := range []string{
		"uniform vec2 resolution;",
		"uniform float time;",
		"uniform vec2 move;",
		"uniform vec2 touch;",
		"uniform int pointerCount;",
		"uniform vec2 pointers[10];",
	} {
		assert.Contains(t, HeroFragment, decl)
	}
	assert.True(t, strings.HasPrefix(HeroFragment, "#version 300 es\n"))
}

func TestQuadIsTriangleStrip(t *testing.T) {
	assert.Len(t, QuadVertices, 8)
}

func TestRawPicksProfileVertexShader(t *testing.T) {
	es := Raw(HeroFragment, true)
	assert.Contains(t, es.Vertex, "#version 300 es")
	assert.Equal(t, HeroFragment, es.Fragment)

	core := Raw("frag", false)
	assert.Contains(t, core.Vertex, "#version 410 core")
	assert.Contains(t, core.Vertex, "in vec2 "+AttribPosition)
}

func TestUniformNameFallsBackToSourceName(t *testing.T) {
	p := Raw(HeroFragment, true)
	assert.Equal(t, UniformTime, p.UniformName(UniformTime))

	p.names = map[string]string{UniformTime: "_utime"}
	assert.Equal(t, "_utime", p.UniformName(UniformTime))
	assert.Equal(t, UniformMove, p.UniformName(UniformMove))
}

func TestBlitShadersPerProfile(t *testing.T) {
	vs, fs := GetBlitShaders(false)
	assert.Contains(t, vs, "410 core")
	assert.Contains(t, fs, "u_texture")

	vs, fs = GetBlitShaders(true)
	assert.Contains(t, vs, "300 es")
	assert.Contains(t, fs, "precision highp float")
}

func TestPrepareMapsHeroUniforms(t *testing.T) {
	p, err := Prepare(HeroFragment, false)
	require.NoError(t, err)

	assert.Contains(t, p.Vertex, "#version 410 core")
	for _, uniform := range []string{
		UniformResolution,
		UniformTime,
		UniformMove,
		UniformTouch,
		UniformPointerCount,
		UniformPointers,
	} {
		mapped := p.UniformName(uniform)
		assert.NotEmpty(t, mapped, uniform)
		assert.NotEqual(t, uniform, mapped, uniform)
		assert.Contains(t, p.Fragment, mapped, uniform)
	}
}

func TestPrepareRejectsBrokenSource(t *testing.T) {
	_, err := Prepare(`#version 300 es
precision highp float;
out vec4 O;
void main(){ O = vec4(x); }
`, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "translation failed")
}
