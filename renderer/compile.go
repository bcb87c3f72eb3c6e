package renderer

import (
	"errors"
	"fmt"

	"github.com/richinsley/goshaderbridge/glapi"
	"github.com/richinsley/goshaderbridge/shader"
)

const (
	msgInitFailed     = "Failed to initialize shader bridge."
	msgInitialized    = "Shader bridge initialized."
	msgNotInitialized = "Shader bridge not initialized. Cannot compile shaders."
	msgCompiled       = "Shader compilation successful."
)

// ErrNotInitialized is returned by Compile before a successful Init.
var ErrNotInitialized = errors.New("shader bridge not initialized")

// Stage names the step of a compile that failed.
type Stage int

const (
	StageTranslate Stage = iota
	StageVertex
	StageFragment
	StageLink
)

func (s Stage) String() string {
	switch s {
	case StageTranslate:
		return "translate"
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageLink:
		return "link"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// CompileError carries the translator, compiler or linker log of the
// stage that failed.
type CompileError struct {
	Stage Stage
	Log   string
}

func (e *CompileError) Error() string {
	if e.Log == "" {
		return fmt.Sprintf("%s stage failed", e.Stage)
	}
	return fmt.Sprintf("%s stage failed: %s", e.Stage, e.Log)
}

// Init acquires the GL function table and replaces the owned program with a
// new, empty one. It always leaves the shader unready. When the loader
// fails the previous program is abandoned, since there is no function
// table to delete it with.
func (r *Renderer) Init() {
	r.shaderReady = false
	r.names = nil

	var fns glapi.Functions
	err := glapi.ErrNoContext
	if r.load != nil {
		fns, err = r.load()
	}
	if err != nil {
		r.contextReady = false
		r.gl = nil
		r.program = 0
		r.emit(msgInitFailed)
		r.emit(err.Error())
		return
	}

	r.gl = fns
	if r.program != 0 {
		fns.DeleteProgram(r.program)
		r.program = 0
	}
	r.program = fns.CreateProgram()
	if r.program == 0 {
		r.contextReady = false
		r.emit(msgInitFailed)
		r.emit("glCreateProgram returned 0")
		return
	}

	r.contextReady = true
	r.emit(msgInitialized)
	r.emit(fns.Version())
}

// CompileShaders compiles and links the current fragment source into the
// owned program, reporting the outcome to the diagnostics receiver.
func (r *Renderer) CompileShaders() {
	err := r.Compile()
	var cerr *CompileError
	switch {
	case err == nil:
		r.emit(msgCompiled)
	case errors.Is(err, ErrNotInitialized):
		r.emit(msgNotInitialized)
	case errors.As(err, &cerr) && cerr.Log != "":
		r.emit(cerr.Log)
	default:
		r.emit(err.Error())
	}
}

// Compile is CompileShaders without diagnostics. Failures are
// ErrNotInitialized or a *CompileError.
func (r *Renderer) Compile() error {
	r.shaderReady = false
	if !r.contextReady {
		return ErrNotInitialized
	}

	src := r.fragmentSource
	if r.prepare {
		src = shader.Prepare(src, r.preDialect)
	}

	var names map[string]string
	if r.tr != nil {
		code, mapped, err := r.tr.Translate(src)
		if err != nil {
			return &CompileError{Stage: StageTranslate, Log: err.Error()}
		}
		src, names = code, mapped
	}

	if err := r.link(shader.VertexSource, src); err != nil {
		r.log.Debug("compile failed", "error", err)
		return err
	}
	r.names = names
	r.shaderReady = true
	return nil
}

// link compiles both stages and links them into r.program. The shader
// objects are released on every path.
func (r *Renderer) link(vertexSource, fragmentSource string) error {
	gl := r.gl
	vs := compileShader(gl, vertexSource, glapi.VERTEX_SHADER)
	fs := compileShader(gl, fragmentSource, glapi.FRAGMENT_SHADER)

	if !gl.ShaderCompiled(vs) {
		err := &CompileError{Stage: StageVertex, Log: gl.ShaderInfoLog(vs)}
		gl.DeleteShader(vs)
		gl.DeleteShader(fs)
		return err
	}
	if !gl.ShaderCompiled(fs) {
		err := &CompileError{Stage: StageFragment, Log: gl.ShaderInfoLog(fs)}
		gl.DeleteShader(vs)
		gl.DeleteShader(fs)
		return err
	}

	gl.AttachShader(r.program, vs)
	gl.AttachShader(r.program, fs)
	gl.LinkProgram(r.program)
	gl.DetachShader(r.program, vs)
	gl.DetachShader(r.program, fs)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	if !gl.ProgramLinked(r.program) {
		return &CompileError{Stage: StageLink, Log: gl.ProgramInfoLog(r.program)}
	}
	return nil
}

func compileShader(gl glapi.Functions, source string, shaderType uint32) uint32 {
	s := gl.CreateShader(shaderType)
	gl.ShaderSource(s, source)
	gl.CompileShader(s)
	return s
}
