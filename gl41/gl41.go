// Package gl41 binds glapi.Functions to go-gl's OpenGL 4.1 core profile,
// and adds the texture upload and framebuffer readback the host needs.
//
// Everything here must run on the thread that owns the current context.
package gl41

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/goshaderbridge/glapi"
)

// Load resolves the GL entry points for the current context. It is a
// glapi.Loader and may be called again after a context change.
func Load() (glapi.Functions, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL bindings: %w", err)
	}
	if gl.GetString(gl.VERSION) == nil {
		return nil, glapi.ErrNoContext
	}
	return functions{}, nil
}

type functions struct{}

var _ glapi.Functions = functions{}

func (functions) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

func (functions) CreateProgram() uint32                 { return gl.CreateProgram() }
func (functions) DeleteProgram(program uint32)          { gl.DeleteProgram(program) }
func (functions) AttachShader(program, shader uint32)   { gl.AttachShader(program, shader) }
func (functions) DetachShader(program, shader uint32)   { gl.DetachShader(program, shader) }
func (functions) LinkProgram(program uint32)            { gl.LinkProgram(program) }
func (functions) UseProgram(program uint32)             { gl.UseProgram(program) }
func (functions) CreateShader(shaderType uint32) uint32 { return gl.CreateShader(shaderType) }
func (functions) CompileShader(shader uint32)           { gl.CompileShader(shader) }
func (functions) DeleteShader(shader uint32)            { gl.DeleteShader(shader) }

func (functions) ProgramLinked(program uint32) bool {
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	return status != gl.FALSE
}

func (functions) ProgramInfoLog(program uint32) string {
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (functions) ShaderSource(shader uint32, source string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
}

func (functions) ShaderCompiled(shader uint32) bool {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	return status != gl.FALSE
}

func (functions) ShaderInfoLog(shader uint32) string {
	var logLength int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	logText := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
	return strings.TrimRight(logText, "\x00")
}

func (functions) GenVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (functions) BindVertexArray(vao uint32) { gl.BindVertexArray(vao) }

func (functions) DeleteVertexArray(vao uint32) { gl.DeleteVertexArrays(1, &vao) }

func (functions) GenBuffer() uint32 {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	return vbo
}

func (functions) BindBuffer(target, buffer uint32) { gl.BindBuffer(target, buffer) }

func (functions) BufferData(target uint32, data []float32, usage uint32) {
	if len(data) == 0 {
		gl.BufferData(target, 0, nil, usage)
		return
	}
	gl.BufferData(target, len(data)*4, gl.Ptr(data), usage)
}

func (functions) DeleteBuffer(buffer uint32) { gl.DeleteBuffers(1, &buffer) }

func (functions) GetAttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

func (functions) EnableVertexAttribArray(index uint32) { gl.EnableVertexAttribArray(index) }

func (functions) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr) {
	gl.VertexAttribPointerWithOffset(index, size, xtype, normalized, stride, offset)
}

func (functions) GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (functions) Uniform1f(location int32, v0 float32) { gl.Uniform1f(location, v0) }

func (functions) Uniform3f(location int32, v0, v1, v2 float32) { gl.Uniform3f(location, v0, v1, v2) }

func (functions) Uniform1fv(location int32, values []float32) {
	if len(values) > 0 {
		gl.Uniform1fv(location, int32(len(values)), &values[0])
	}
}

func (functions) Uniform1iv(location int32, values []int32) {
	if len(values) > 0 {
		gl.Uniform1iv(location, int32(len(values)), &values[0])
	}
}

func (functions) Uniform3fv(location int32, values []float32) {
	if len(values) >= 3 {
		gl.Uniform3fv(location, int32(len(values)/3), &values[0])
	}
}

func (functions) ActiveTexture(texture uint32)               { gl.ActiveTexture(texture) }
func (functions) BindTexture(target, texture uint32)         { gl.BindTexture(target, texture) }
func (functions) BlendFunc(sfactor, dfactor uint32)          { gl.BlendFunc(sfactor, dfactor) }
func (functions) Enable(capability uint32)                   { gl.Enable(capability) }
func (functions) ClearColor(r, g, b, a float32)              { gl.ClearColor(r, g, b, a) }
func (functions) Clear(mask uint32)                          { gl.Clear(mask) }
func (functions) Viewport(x, y, width, height int32)         { gl.Viewport(x, y, width, height) }
func (functions) DrawArrays(mode uint32, first, count int32) { gl.DrawArrays(mode, first, count) }
