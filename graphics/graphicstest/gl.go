// Package graphicstest provides in-memory fakes of the graphics host
// contracts. GL records every call so tests can assert on draw calls and
// uniform uploads without a GPU.
package graphicstest

import (
	"fmt"
	"strings"

	"github.com/richinsley/goshaderhero/graphics"
)

// Draw is one recorded DrawTriangleStrip call together with the uniform
// values that were current when it was issued.
type Draw struct {
	Program  uint32
	First    int32
	Count    int32
	Viewport [4]int32
	Uniforms map[string][]float32
}

type shaderObj struct {
	stage    graphics.ShaderStage
	source   string
	compiled bool
	deleted  bool
}

type programObj struct {
	attached map[uint32]bool
	linked   bool
	deleted  bool
	uniforms map[string]int32
	values   map[int32][]float32
}

// GL is a recording fake of graphics.GL.
type GL struct {
	// CompileError, when set, is consulted for every compile. A non-empty
	// return value fails the compile with that info log.
	CompileError func(stage graphics.ShaderStage, source string) string
	// LinkError fails every link with the given info log when non-empty.
	LinkError string
	// Inactive lists uniform names that resolve to location -1.
	Inactive map[string]bool

	Calls []string
	Draws []Draw

	next       uint32
	shaders    map[uint32]*shaderObj
	programs   map[uint32]*programObj
	buffers    map[uint32][]float32
	current    uint32
	bound      uint32
	viewport   [4]int32
	clearColor [4]float32
	attribs    map[int32]int32
}

// NewGL returns an empty recording GL.
func NewGL() *GL {
	return &GL{
		Inactive: map[string]bool{},
		shaders:  map[uint32]*shaderObj{},
		programs: map[uint32]*programObj{},
		buffers:  map[uint32][]float32{},
		attribs:  map[int32]int32{},
	}
}

func (g *GL) record(format string, args ...any) {
	g.Calls = append(g.Calls, fmt.Sprintf(format, args...))
}

func (g *GL) name() uint32 {
	g.next++
	return g.next
}

func (g *GL) CreateShader(stage graphics.ShaderStage) uint32 {
	id := g.name()
	g.shaders[id] = &shaderObj{stage: stage}
	g.record("CreateShader(%s)=%d", stage, id)
	return id
}

func (g *GL) CompileShader(shader uint32, source string) error {
	g.record("CompileShader(%d)", shader)
	s, ok := g.shaders[shader]
	if !ok || s.deleted {
		return fmt.Errorf("invalid shader %d", shader)
	}
	s.source = source
	if g.CompileError != nil {
		if msg := g.CompileError(s.stage, source); msg != "" {
			return fmt.Errorf("%s", msg)
		}
	}
	s.compiled = true
	return nil
}

func (g *GL) DeleteShader(shader uint32) {
	g.record("DeleteShader(%d)", shader)
	if s, ok := g.shaders[shader]; ok {
		s.deleted = true
	}
}

func (g *GL) CreateProgram() uint32 {
	id := g.name()
	g.programs[id] = &programObj{
		attached: map[uint32]bool{},
		uniforms: map[string]int32{},
		values:   map[int32][]float32{},
	}
	g.record("CreateProgram()=%d", id)
	return id
}

func (g *GL) AttachShader(program, shader uint32) {
	g.record("AttachShader(%d,%d)", program, shader)
	if p, ok := g.programs[program]; ok {
		p.attached[shader] = true
	}
}

func (g *GL) DetachShader(program, shader uint32) {
	g.record("DetachShader(%d,%d)", program, shader)
	if p, ok := g.programs[program]; ok {
		delete(p.attached, shader)
	}
}

func (g *GL) LinkProgram(program uint32) error {
	g.record("LinkProgram(%d)", program)
	p, ok := g.programs[program]
	if !ok || p.deleted {
		return fmt.Errorf("invalid program %d", program)
	}
	if g.LinkError != "" {
		return fmt.Errorf("%s", g.LinkError)
	}
	for id := range p.attached {
		if !g.shaders[id].compiled {
			return fmt.Errorf("attached shader %d is not compiled", id)
		}
	}
	p.linked = true
	return nil
}

func (g *GL) DeleteProgram(program uint32) {
	g.record("DeleteProgram(%d)", program)
	if p, ok := g.programs[program]; ok {
		p.deleted = true
	}
	if g.current == program {
		g.current = 0
	}
}

func (g *GL) ProgramDeleted(program uint32) bool {
	p, ok := g.programs[program]
	return !ok || p.deleted
}

func (g *GL) UseProgram(program uint32) {
	g.record("UseProgram(%d)", program)
	g.current = program
}

func (g *GL) CreateBuffer() uint32 {
	id := g.name()
	g.buffers[id] = nil
	g.record("CreateBuffer()=%d", id)
	return id
}

func (g *GL) BufferVertices(buffer uint32, data []float32) {
	g.record("BufferVertices(%d,%d)", buffer, len(data))
	g.bound = buffer
	g.buffers[buffer] = append([]float32(nil), data...)
}

func (g *GL) BindBuffer(buffer uint32) {
	g.record("BindBuffer(%d)", buffer)
	g.bound = buffer
}

func (g *GL) DeleteBuffer(buffer uint32) {
	g.record("DeleteBuffer(%d)", buffer)
	delete(g.buffers, buffer)
	if g.bound == buffer {
		g.bound = 0
	}
}

func (g *GL) AttribLocation(program uint32, name string) int32 {
	if name == "position" {
		return 0
	}
	return -1
}

func (g *GL) VertexAttrib(loc int32, components int32) {
	g.record("VertexAttrib(%d,%d)", loc, components)
	g.attribs[loc] = components
}

func (g *GL) UniformLocation(program uint32, name string) int32 {
	p, ok := g.programs[program]
	if !ok || !p.linked || g.Inactive[strings.TrimSuffix(name, "[0]")] {
		return -1
	}
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := int32(len(p.uniforms))
	p.uniforms[name] = loc
	return loc
}

func (g *GL) setUniform(call string, loc int32, v []float32) {
	g.record("%s(%d)", call, loc)
	if loc < 0 {
		return
	}
	if p, ok := g.programs[g.current]; ok {
		p.values[loc] = v
	}
}

func (g *GL) Uniform1f(loc int32, v float32)    { g.setUniform("Uniform1f", loc, []float32{v}) }
func (g *GL) Uniform2f(loc int32, x, y float32) { g.setUniform("Uniform2f", loc, []float32{x, y}) }
func (g *GL) Uniform1i(loc int32, v int32)      { g.setUniform("Uniform1i", loc, []float32{float32(v)}) }
func (g *GL) Uniform2fv(loc int32, v []float32) {
	g.setUniform("Uniform2fv", loc, append([]float32(nil), v...))
}

func (g *GL) Viewport(x, y, width, height int32) {
	g.record("Viewport(%d,%d,%d,%d)", x, y, width, height)
	g.viewport = [4]int32{x, y, width, height}
}

func (g *GL) ClearColor(r, gr, b, a float32) {
	g.clearColor = [4]float32{r, gr, b, a}
}

func (g *GL) Clear() { g.record("Clear()") }

func (g *GL) DrawTriangleStrip(first, count int32) {
	g.record("DrawTriangleStrip(%d,%d)", first, count)
	d := Draw{
		Program:  g.current,
		First:    first,
		Count:    count,
		Viewport: g.viewport,
		Uniforms: map[string][]float32{},
	}
	if p, ok := g.programs[g.current]; ok {
		for name, loc := range p.uniforms {
			if v, ok := p.values[loc]; ok {
				d.Uniforms[strings.TrimSuffix(name, "[0]")] = v
			}
		}
	}
	g.Draws = append(g.Draws, d)
}

// LastDraw returns the most recent draw, or false if none was issued.
func (g *GL) LastDraw() (Draw, bool) {
	if len(g.Draws) == 0 {
		return Draw{}, false
	}
	return g.Draws[len(g.Draws)-1], true
}

// LiveShaders counts shader objects that have not been deleted.
func (g *GL) LiveShaders() int {
	n := 0
	for _, s := range g.shaders {
		if !s.deleted {
			n++
		}
	}
	return n
}

// LivePrograms counts program objects that have not been deleted.
func (g *GL) LivePrograms() int {
	n := 0
	for _, p := range g.programs {
		if !p.deleted {
			n++
		}
	}
	return n
}

// Buffer returns the data uploaded to buffer.
func (g *GL) Buffer(buffer uint32) []float32 { return g.buffers[buffer] }

// ClearedWith returns the last clear colour.
func (g *GL) ClearedWith() [4]float32 { return g.clearColor }

var _ graphics.GL = (*GL)(nil)
