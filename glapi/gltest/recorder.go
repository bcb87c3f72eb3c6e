// Package gltest provides a recording glapi.Functions for tests that run
// without a GPU.
//
// The Recorder keeps just enough object state to behave like a driver:
// shader compile status comes from CompileCheck, linking fails when an
// attached shader failed or LinkLog is set, and uniform/attribute locations
// are assigned from the declarations found in the linked sources, so a
// shader that omits a uniform resolves it to -1.
package gltest

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/richinsley/goshaderbridge/glapi"
)

// Call is one recorded GL entry point invocation.
type Call struct {
	Name string
	Args []any
}

func (c Call) String() string { return fmt.Sprintf("%s%v", c.Name, c.Args) }

type shaderObject struct {
	shaderType uint32
	source     string
	compiled   bool
	log        string
}

type programObject struct {
	attached map[uint32]bool
	linked   bool
	log      string
	uniforms map[string]int32
	attribs  map[string]int32
	names    map[int32]string
}

// Recorder implements glapi.Functions by recording every call.
// The zero value is not usable; call New.
type Recorder struct {
	// VersionString is returned by Version.
	VersionString string
	// LoadErr, when set, makes the Loader fail.
	LoadErr error
	// CompileCheck returns the info log for a compile; an empty log means
	// success. Nil compiles everything.
	CompileCheck func(shaderType uint32, source string) string
	// LinkLog, when non-empty, makes every link fail with this log.
	LinkLog string

	calls    []Call
	next     uint32
	current  uint32
	shaders  map[uint32]*shaderObject
	programs map[uint32]*programObject
	buffers  map[uint32]bool
	vaos     map[uint32]bool
	loads    int
}

func New() *Recorder {
	return &Recorder{
		VersionString: "4.1 gltest",
		shaders:       make(map[uint32]*shaderObject),
		programs:      make(map[uint32]*programObject),
		buffers:       make(map[uint32]bool),
		vaos:          make(map[uint32]bool),
	}
}

// Loader returns a glapi.Loader that hands out r, or fails with LoadErr.
func (r *Recorder) Loader() glapi.Loader {
	return func() (glapi.Functions, error) {
		r.loads++
		if r.LoadErr != nil {
			return nil, r.LoadErr
		}
		return r, nil
	}
}

// Loads returns how many times the Loader ran.
func (r *Recorder) Loads() int { return r.loads }

func (r *Recorder) record(name string, args ...any) {
	r.calls = append(r.calls, Call{Name: name, Args: args})
}

// Calls returns a copy of every recorded call in order.
func (r *Recorder) Calls() []Call {
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset forgets recorded calls but keeps object state.
func (r *Recorder) Reset() { r.calls = nil }

// Find returns the recorded calls to the named entry point.
func (r *Recorder) Find(name string) []Call {
	var out []Call
	for _, c := range r.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func (r *Recorder) Count(name string) int { return len(r.Find(name)) }

func (r *Recorder) LivePrograms() int     { return len(r.programs) }
func (r *Recorder) LiveShaders() int      { return len(r.shaders) }
func (r *Recorder) LiveBuffers() int      { return len(r.buffers) }
func (r *Recorder) LiveVertexArrays() int { return len(r.vaos) }

// Uniform returns the last setter call that targeted the named uniform of
// the program in use at the time. Array uniforms are addressed by their
// base name.
func (r *Recorder) Uniform(name string) (Call, bool) {
	for i := len(r.calls) - 1; i >= 0; i-- {
		c := r.calls[i]
		if !isUniformSetter(c.Name) {
			continue
		}
		if n, ok := c.Args[len(c.Args)-1].(string); ok && n == name {
			return Call{Name: c.Name, Args: c.Args[:len(c.Args)-1]}, true
		}
	}
	return Call{}, false
}

func isUniformSetter(name string) bool {
	switch name {
	case "Uniform1f", "Uniform3f", "Uniform1fv", "Uniform1iv", "Uniform3fv":
		return true
	}
	return false
}

func (r *Recorder) alloc() uint32 {
	r.next++
	return r.next
}

func (r *Recorder) Version() string {
	r.record("Version")
	return r.VersionString
}

func (r *Recorder) CreateProgram() uint32 {
	id := r.alloc()
	r.programs[id] = &programObject{attached: make(map[uint32]bool)}
	r.record("CreateProgram", id)
	return id
}

func (r *Recorder) DeleteProgram(program uint32) {
	r.record("DeleteProgram", program)
	delete(r.programs, program)
}

func (r *Recorder) AttachShader(program, shader uint32) {
	r.record("AttachShader", program, shader)
	if p, ok := r.programs[program]; ok {
		p.attached[shader] = true
	}
}

func (r *Recorder) DetachShader(program, shader uint32) {
	r.record("DetachShader", program, shader)
	if p, ok := r.programs[program]; ok {
		delete(p.attached, shader)
	}
}

var (
	uniformDecl = regexp.MustCompile(`uniform\s+(?:(?:lowp|mediump|highp)\s+)?\w+\s+(\w+)\s*(?:\[\s*(\d+)\s*\])?`)
	attribDecl  = regexp.MustCompile(`(?m)(?:^|;)\s*(?:layout\s*\([^)]*\)\s*)?in\s+\w+\s+(\w+)\s*;`)
	indexedName = regexp.MustCompile(`^(\w+)\[(\d+)\]$`)
)

func (r *Recorder) LinkProgram(program uint32) {
	r.record("LinkProgram", program)
	p, ok := r.programs[program]
	if !ok {
		return
	}
	p.linked = false
	p.log = ""
	p.uniforms = make(map[string]int32)
	p.attribs = make(map[string]int32)
	p.names = make(map[int32]string)

	if r.LinkLog != "" {
		p.log = r.LinkLog
		return
	}
	var next, nextAttrib int32
	for id := range p.attached {
		s, ok := r.shaders[id]
		if !ok || !s.compiled {
			p.log = fmt.Sprintf("error: shader %d is not compiled", id)
			return
		}
		for _, m := range uniformDecl.FindAllStringSubmatch(s.source, -1) {
			name := m[1]
			if _, dup := p.uniforms[name]; dup {
				continue
			}
			size := int32(1)
			if m[2] != "" {
				n, _ := strconv.Atoi(m[2])
				size = int32(n)
			}
			p.uniforms[name] = next
			for i := int32(0); i < size; i++ {
				p.names[next+i] = name
			}
			next += size
		}
		if s.shaderType == glapi.VERTEX_SHADER {
			for _, m := range attribDecl.FindAllStringSubmatch(s.source, -1) {
				p.attribs[m[1]] = nextAttrib
				nextAttrib++
			}
		}
	}
	p.linked = true
}

func (r *Recorder) ProgramLinked(program uint32) bool {
	r.record("ProgramLinked", program)
	p, ok := r.programs[program]
	return ok && p.linked
}

func (r *Recorder) ProgramInfoLog(program uint32) string {
	r.record("ProgramInfoLog", program)
	if p, ok := r.programs[program]; ok {
		return p.log
	}
	return ""
}

func (r *Recorder) UseProgram(program uint32) {
	r.record("UseProgram", program)
	r.current = program
}

func (r *Recorder) CreateShader(shaderType uint32) uint32 {
	id := r.alloc()
	r.shaders[id] = &shaderObject{shaderType: shaderType}
	r.record("CreateShader", shaderType, id)
	return id
}

func (r *Recorder) ShaderSource(shader uint32, source string) {
	r.record("ShaderSource", shader, source)
	if s, ok := r.shaders[shader]; ok {
		s.source = source
	}
}

func (r *Recorder) CompileShader(shader uint32) {
	r.record("CompileShader", shader)
	s, ok := r.shaders[shader]
	if !ok {
		return
	}
	s.log = ""
	if r.CompileCheck != nil {
		s.log = r.CompileCheck(s.shaderType, s.source)
	}
	s.compiled = s.log == ""
}

func (r *Recorder) ShaderCompiled(shader uint32) bool {
	r.record("ShaderCompiled", shader)
	s, ok := r.shaders[shader]
	return ok && s.compiled
}

func (r *Recorder) ShaderInfoLog(shader uint32) string {
	r.record("ShaderInfoLog", shader)
	if s, ok := r.shaders[shader]; ok {
		return s.log
	}
	return ""
}

func (r *Recorder) DeleteShader(shader uint32) {
	r.record("DeleteShader", shader)
	delete(r.shaders, shader)
}

func (r *Recorder) GenVertexArray() uint32 {
	id := r.alloc()
	r.vaos[id] = true
	r.record("GenVertexArray", id)
	return id
}

func (r *Recorder) BindVertexArray(vao uint32) { r.record("BindVertexArray", vao) }

func (r *Recorder) DeleteVertexArray(vao uint32) {
	r.record("DeleteVertexArray", vao)
	delete(r.vaos, vao)
}

func (r *Recorder) GenBuffer() uint32 {
	id := r.alloc()
	r.buffers[id] = true
	r.record("GenBuffer", id)
	return id
}

func (r *Recorder) BindBuffer(target, buffer uint32) { r.record("BindBuffer", target, buffer) }

func (r *Recorder) BufferData(target uint32, data []float32, usage uint32) {
	r.record("BufferData", target, append([]float32(nil), data...), usage)
}

func (r *Recorder) DeleteBuffer(buffer uint32) {
	r.record("DeleteBuffer", buffer)
	delete(r.buffers, buffer)
}

func (r *Recorder) GetAttribLocation(program uint32, name string) int32 {
	loc := int32(-1)
	if p, ok := r.programs[program]; ok && p.linked {
		if l, ok := p.attribs[name]; ok {
			loc = l
		}
	}
	r.record("GetAttribLocation", program, name, loc)
	return loc
}

func (r *Recorder) EnableVertexAttribArray(index uint32) {
	r.record("EnableVertexAttribArray", index)
}

func (r *Recorder) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr) {
	r.record("VertexAttribPointer", index, size, xtype, normalized, stride, offset)
}

func (r *Recorder) GetUniformLocation(program uint32, name string) int32 {
	loc := int32(-1)
	if p, ok := r.programs[program]; ok && p.linked {
		if l, ok := p.uniforms[name]; ok {
			loc = l
		} else if m := indexedName.FindStringSubmatch(name); m != nil {
			if base, ok := p.uniforms[m[1]]; ok {
				i, _ := strconv.Atoi(m[2])
				if p.names[base+int32(i)] == m[1] {
					loc = base + int32(i)
				}
			}
		}
	}
	r.record("GetUniformLocation", program, name, loc)
	return loc
}

// uniformName resolves a location of the current program back to the
// declared base name, for Uniform lookups.
func (r *Recorder) uniformName(location int32) string {
	if p, ok := r.programs[r.current]; ok && p.names != nil {
		return p.names[location]
	}
	return ""
}

func (r *Recorder) Uniform1f(location int32, v0 float32) {
	r.record("Uniform1f", location, v0, r.uniformName(location))
}

func (r *Recorder) Uniform3f(location int32, v0, v1, v2 float32) {
	r.record("Uniform3f", location, v0, v1, v2, r.uniformName(location))
}

func (r *Recorder) Uniform1fv(location int32, values []float32) {
	r.record("Uniform1fv", location, append([]float32(nil), values...), r.uniformName(location))
}

func (r *Recorder) Uniform1iv(location int32, values []int32) {
	r.record("Uniform1iv", location, append([]int32(nil), values...), r.uniformName(location))
}

func (r *Recorder) Uniform3fv(location int32, values []float32) {
	r.record("Uniform3fv", location, append([]float32(nil), values...), r.uniformName(location))
}

func (r *Recorder) ActiveTexture(texture uint32) { r.record("ActiveTexture", texture) }

func (r *Recorder) BindTexture(target, texture uint32) { r.record("BindTexture", target, texture) }

func (r *Recorder) BlendFunc(sfactor, dfactor uint32) { r.record("BlendFunc", sfactor, dfactor) }

func (r *Recorder) Enable(capability uint32) { r.record("Enable", capability) }

func (r *Recorder) ClearColor(cr, cg, cb, ca float32) { r.record("ClearColor", cr, cg, cb, ca) }

func (r *Recorder) Clear(mask uint32) { r.record("Clear", mask) }

func (r *Recorder) Viewport(x, y, width, height int32) {
	r.record("Viewport", x, y, width, height)
}

func (r *Recorder) DrawArrays(mode uint32, first, count int32) {
	r.record("DrawArrays", mode, first, count)
}

var _ glapi.Functions = (*Recorder)(nil)
