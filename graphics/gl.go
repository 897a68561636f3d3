package graphics

// ShaderStage selects the pipeline stage of a shader object.
type ShaderStage int

const (
	VertexStage ShaderStage = iota
	FragmentStage
)

func (s ShaderStage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	default:
		return "unknown"
	}
}

// GL is the subset of the graphics API the hero renderer needs: shader
// compilation and linking, one static vertex buffer, scalar/vector/array
// uniforms and a single triangle-strip draw.
//
// Object names are opaque non-zero handles; zero means "none". Uniform and
// attribute locations are -1 when the name is not active in the program.
type GL interface {
	CreateShader(stage ShaderStage) uint32
	// CompileShader uploads source and compiles it. A non-nil error
	// carries the driver's info log.
	CompileShader(shader uint32, source string) error
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	DetachShader(program, shader uint32)
	// LinkProgram links program. A non-nil error carries the info log.
	LinkProgram(program uint32) error
	DeleteProgram(program uint32)
	// ProgramDeleted reports whether program has been deleted (or was
	// never a program object).
	ProgramDeleted(program uint32) bool
	UseProgram(program uint32)

	CreateBuffer() uint32
	// BufferVertices binds buffer as the array buffer and uploads data
	// with static usage.
	BufferVertices(buffer uint32, data []float32)
	BindBuffer(buffer uint32)
	DeleteBuffer(buffer uint32)

	AttribLocation(program uint32, name string) int32
	// VertexAttrib enables loc and points it at tightly packed float
	// components of the bound array buffer.
	VertexAttrib(loc int32, components int32)
	UniformLocation(program uint32, name string) int32

	Uniform1f(loc int32, v float32)
	Uniform2f(loc int32, x, y float32)
	Uniform1i(loc int32, v int32)
	Uniform2fv(loc int32, v []float32)

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear()
	DrawTriangleStrip(first, count int32)
}
