package shader

import (
	"fmt"

	gst "github.com/richinsley/goshadertranslator"

	xlate "github.com/richinsley/goshaderhero/translator"
)

// ────────────────────────────────── Desktop GL ──────────────────────────────────

const vertexShaderSourceGL = `#version 410 core
layout (location = 0) in vec2 position;
void main() {
    gl_Position = vec4(position, 0.0, 1.0);
}
`

const blitVertexShaderSourceGL = `#version 410 core
layout (location = 0) in vec2 in_vert;
out vec2 frag_uv;
void main() {
    frag_uv = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const blitFragmentShaderSourceGL = `#version 410 core
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
void main() { fragColor = texture(u_texture, frag_uv); }
`

// ──────────────────────────────────── GLES ──────────────────────────────────────

const vertexShaderSourceGLES = `#version 300 es
precision highp float;
layout (location = 0) in vec2 position;
void main() {
    gl_Position = vec4(position, 0.0, 1.0);
}
`

const blitVertexShaderSourceGLES = `#version 300 es
layout (location = 0) in vec2 in_vert;
out vec2 frag_uv;
void main() {
    frag_uv = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const blitFragmentShaderSourceGLES = `#version 300 es
precision highp float;
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
void main() { fragColor = texture(u_texture, frag_uv); }
`

func GenerateVertexShader(isGLES bool) string {
	if isGLES {
		return vertexShaderSourceGLES
	}
	return vertexShaderSourceGL
}

// GetBlitShaders returns the vertex and fragment sources of the pass that
// copies the offscreen drawable onto the window.
func GetBlitShaders(isGLES bool) (vertex, fragment string) {
	if isGLES {
		return blitVertexShaderSourceGLES, blitFragmentShaderSourceGLES
	}
	return blitVertexShaderSourceGL, blitFragmentShaderSourceGL
}

// Program is a vertex/fragment source pair ready for the driver, with the
// names its uniforms were given by translation.
type Program struct {
	Vertex   string
	Fragment string
	names    map[string]string
}

// UniformName returns the name uniform was mapped to in Fragment.
func (p Program) UniformName(uniform string) string {
	if mapped, ok := p.names[uniform]; ok {
		return mapped
	}
	return uniform
}

// Raw pairs fragment with the profile's vertex shader without translation.
// fragment must already be valid for the target profile.
func Raw(fragment string, isGLES bool) Program {
	return Program{
		Vertex:   GenerateVertexShader(isGLES),
		Fragment: fragment,
	}
}

// Prepare translates a WebGL2 fragment source to the target profile.
func Prepare(fragment string, isGLES bool) (Program, error) {
	translator, err := xlate.GetTranslator()
	if err != nil {
		return Program{}, fmt.Errorf("shader translator unavailable: %w", err)
	}

	outputFormat := gst.OutputFormatGLSL410
	if isGLES {
		outputFormat = gst.OutputFormatESSL
	}
	fsShader, err := translator.TranslateShader(fragment, "fragment", gst.ShaderSpecWebGL2, outputFormat)
	if err != nil {
		return Program{}, fmt.Errorf("fragment shader translation failed: %w", err)
	}

	p := Raw(fsShader.Code, isGLES)
	p.names = make(map[string]string, len(fsShader.Variables))
	for name, v := range fsShader.Variables {
		p.names[name] = v.MappedName
	}
	return p, nil
}
