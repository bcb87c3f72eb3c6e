package renderer

import (
	"github.com/richinsley/goshaderbridge/glapi"
	"github.com/richinsley/goshaderbridge/shader"
	"github.com/richinsley/goshaderbridge/uniforms"
)

// Two triangles covering clip space, vec3 positions.
var quadVertices = []float32{
	-1.0, -1.0, 0.0,
	1.0, -1.0, 0.0,
	-1.0, 1.0, 0.0,
	1.0, -1.0, 0.0,
	1.0, 1.0, 0.0,
	-1.0, 1.0, 0.0,
}

const quadVertexCount = 6

// samplerUnits maps textures[i] to texture unit i.
var samplerUnits = func() (units [uniforms.TextureCount]int32) {
	for i := range units {
		units[i] = int32(i)
	}
	return units
}()

// Render draws the full-screen quad with the current uniform values. It is
// a no-op until both Init and CompileShaders have succeeded, so hosts may
// call it every frame.
func (r *Renderer) Render() {
	if !r.contextReady || !r.shaderReady {
		return
	}
	gl := r.gl
	gl.UseProgram(r.program)

	vao := gl.GenVertexArray()
	gl.BindVertexArray(vao)
	vbo := gl.GenBuffer()
	gl.BindBuffer(glapi.ARRAY_BUFFER, vbo)
	gl.BufferData(glapi.ARRAY_BUFFER, quadVertices, glapi.STATIC_DRAW)

	if loc := gl.GetAttribLocation(r.program, shader.PositionAttribute); loc != -1 {
		gl.EnableVertexAttribArray(uint32(loc))
		gl.VertexAttribPointer(uint32(loc), 3, glapi.FLOAT, false, 3*4, 0)
	}

	r.updateUniforms()

	width, height := r.store.Resolution()
	gl.BlendFunc(glapi.SRC_ALPHA, glapi.ONE_MINUS_SRC_ALPHA)
	gl.Enable(glapi.BLEND)
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(glapi.COLOR_BUFFER_BIT | glapi.DEPTH_BUFFER_BIT)
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.DrawArrays(glapi.TRIANGLES, 0, quadVertexCount)

	gl.BindBuffer(glapi.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	gl.DeleteBuffer(vbo)
	gl.DeleteVertexArray(vao)
}

// updateUniforms sets every uniform the program declares. Each one is
// resolved on its own; an unused uniform resolves to -1 and is skipped.
func (r *Renderer) updateUniforms() {
	gl := r.gl
	s := r.store

	if loc := r.uniformLocation(shader.ResolutionUniform); loc != -1 {
		res := s.ResolutionVec()
		gl.Uniform3f(loc, res[0], res[1], res[2])
	}
	if loc := r.uniformLocation(shader.TimeUniform); loc != -1 {
		gl.Uniform1f(loc, s.Time())
	}
	if loc := r.uniformLocation(shader.InletsUniform); loc != -1 {
		inlets := s.Inlets()
		gl.Uniform1fv(loc, inlets[:])
	}

	for i, handle := range s.Handles() {
		gl.ActiveTexture(glapi.TEXTURE0 + uint32(i))
		gl.BindTexture(glapi.TEXTURE_2D, handle)
	}
	if loc := r.uniformLocation(shader.TexturesUniform); loc != -1 {
		gl.Uniform1iv(loc, samplerUnits[:])
	}
	if loc := r.uniformLocation(shader.TextureResolutionsUniform); loc != -1 {
		res := s.TextureResolutions()
		gl.Uniform3fv(loc, res[:])
	}
}

// uniformLocation resolves a contract name, following the translator's
// renaming when the source was translated.
func (r *Renderer) uniformLocation(name string) int32 {
	if r.names != nil {
		if mapped, ok := r.names[name]; ok {
			name = mapped
		} else if mapped, ok := r.names[name+"[0]"]; ok {
			name = mapped
		}
	}
	return r.gl.GetUniformLocation(r.program, name)
}
