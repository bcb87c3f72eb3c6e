// Package glapi describes the subset of OpenGL the renderer calls.
//
// The renderer never imports a GL binding directly; it receives a
// Functions table from a Loader when it initializes. gl41 binds the table
// to go-gl's 4.1 core profile and gltest provides a recording fake.
package glapi

import "errors"

// OpenGL enum values used by the renderer. They match the values in the
// GL headers so bindings can pass them through unchanged.
const (
	DEPTH_BUFFER_BIT    uint32 = 0x00000100
	COLOR_BUFFER_BIT    uint32 = 0x00004000
	TRIANGLES           uint32 = 0x0004
	SRC_ALPHA           uint32 = 0x0302
	ONE_MINUS_SRC_ALPHA uint32 = 0x0303
	BLEND               uint32 = 0x0BE2
	TEXTURE_2D          uint32 = 0x0DE1
	FLOAT               uint32 = 0x1406
	TEXTURE0            uint32 = 0x84C0
	ARRAY_BUFFER        uint32 = 0x8892
	STATIC_DRAW         uint32 = 0x88E4
	FRAGMENT_SHADER     uint32 = 0x8B30
	VERTEX_SHADER       uint32 = 0x8B31
)

// ErrNoContext is returned by loaders when no GL context is current on the
// calling thread.
var ErrNoContext = errors.New("no current OpenGL context")

// Loader acquires the function table for the context current on the
// calling thread.
type Loader func() (Functions, error)

// Functions is the GL function table. Methods follow the GL entry points of
// the same name; pointer/length pairs are replaced by Go strings and slices.
type Functions interface {
	// Version returns GL_VERSION.
	Version() string

	CreateProgram() uint32
	DeleteProgram(program uint32)
	AttachShader(program, shader uint32)
	DetachShader(program, shader uint32)
	LinkProgram(program uint32)
	// ProgramLinked reports GL_LINK_STATUS.
	ProgramLinked(program uint32) bool
	ProgramInfoLog(program uint32) string
	UseProgram(program uint32)

	CreateShader(shaderType uint32) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	// ShaderCompiled reports GL_COMPILE_STATUS.
	ShaderCompiled(shader uint32) bool
	ShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	GenVertexArray() uint32
	BindVertexArray(vao uint32)
	DeleteVertexArray(vao uint32)
	GenBuffer() uint32
	BindBuffer(target, buffer uint32)
	BufferData(target uint32, data []float32, usage uint32)
	DeleteBuffer(buffer uint32)

	GetAttribLocation(program uint32, name string) int32
	EnableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr)

	GetUniformLocation(program uint32, name string) int32
	Uniform1f(location int32, v0 float32)
	Uniform3f(location int32, v0, v1, v2 float32)
	Uniform1fv(location int32, values []float32)
	Uniform1iv(location int32, values []int32)
	// Uniform3fv uploads len(values)/3 vec3 elements.
	Uniform3fv(location int32, values []float32)

	ActiveTexture(texture uint32)
	BindTexture(target, texture uint32)

	BlendFunc(sfactor, dfactor uint32)
	Enable(capability uint32)
	ClearColor(r, g, b, a float32)
	Clear(mask uint32)
	Viewport(x, y, width, height int32)
	DrawArrays(mode uint32, first, count int32)
}
