// Package renderer runs the shader lifecycle for one fragment program: it
// initializes against the current GL context, compiles the host's fragment
// source, and draws a full-screen quad with the uniform inputs bound.
//
// A Renderer is driven by its host through three commands (Init,
// CompileShaders, Render), usually once per frame from the thread that
// owns the GL context. Status and errors go to the registered diagnostics
// receiver; none of the commands return an error.
package renderer

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/richinsley/goshaderbridge/diag"
	"github.com/richinsley/goshaderbridge/glapi"
	"github.com/richinsley/goshaderbridge/shader"
	"github.com/richinsley/goshaderbridge/uniforms"
)

// Translator rewrites a fragment source before it is compiled. The returned
// map gives, for each uniform declared in src, its name in code.
type Translator interface {
	Translate(src string) (code string, names map[string]string, err error)
}

// Renderer owns at most one GL program. It is not safe for concurrent use:
// commands and setters must be serialized by the host, normally on the GL
// thread.
type Renderer struct {
	id   uuid.UUID
	load glapi.Loader
	tr   Translator
	log  *slog.Logger
	sink diag.Sink

	prepare    bool
	preDialect shader.Dialect

	gl             glapi.Functions
	program        uint32
	names          map[string]string
	fragmentSource string
	store          *uniforms.Store

	contextReady bool
	shaderReady  bool
}

type Option func(*Renderer)

// WithTranslator routes every fragment source through t before compiling.
func WithTranslator(t Translator) Option {
	return func(r *Renderer) { r.tr = t }
}

// WithPrepare completes version-less fragment sources with the preamble
// of dialect d before they are translated or compiled. Without it the
// source is handed to the driver exactly as set.
func WithPrepare(d shader.Dialect) Option {
	return func(r *Renderer) {
		r.prepare = true
		r.preDialect = d
	}
}

// WithLogger sets the logger; the default is diag.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// New returns an uninitialized Renderer. loader is called by every Init to
// acquire the GL function table of the context current at that time.
func New(loader glapi.Loader, opts ...Option) *Renderer {
	r := &Renderer{
		id:             uuid.New(),
		load:           loader,
		log:            diag.Logger(),
		fragmentSource: shader.DefaultFragmentSource,
		store:          uniforms.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With("instance", r.id.String())
	return r
}

func (r *Renderer) ID() uuid.UUID { return r.id }

// SetDiagnostics replaces the diagnostics receiver. nil unregisters it.
func (r *Renderer) SetDiagnostics(fn func(msg string)) {
	r.sink.Register(fn)
}

// SetFragmentSource replaces the fragment source used by the next
// CompileShaders. The linked program is unaffected until then.
func (r *Renderer) SetFragmentSource(src string) {
	r.fragmentSource = src
}

func (r *Renderer) FragmentSource() string { return r.fragmentSource }

func (r *Renderer) SetTime(t float32) {
	r.store.SetTime(t)
}

// SetInlet sets scalar input i. Indices outside [0, 8) are rejected with
// uniforms.ErrIndexOutOfRange and reported to the diagnostics receiver.
func (r *Renderer) SetInlet(i int, v float32) error {
	if err := r.store.SetInlet(i, v); err != nil {
		r.rejected(err)
		return err
	}
	return nil
}

// SetTexture binds an externally owned 2D texture to slot i. The handle is
// only referenced, never created or deleted.
func (r *Renderer) SetTexture(i int, handle uint32, width, height float32) error {
	err := r.store.SetTexture(i, uniforms.Texture{Handle: handle, Width: width, Height: height})
	if err != nil {
		r.rejected(err)
		return err
	}
	return nil
}

// SetResolution sets the viewport and iResolution used by the next Render.
func (r *Renderer) SetResolution(width, height int) {
	r.store.SetResolution(width, height)
}

// Uniforms exposes the values bound on every frame.
func (r *Renderer) Uniforms() *uniforms.Store { return r.store }

func (r *Renderer) ContextReady() bool { return r.contextReady }
func (r *Renderer) ShaderReady() bool  { return r.contextReady && r.shaderReady }

// Program returns the owned program handle, or 0 before a successful Init.
func (r *Renderer) Program() uint32 { return r.program }

// State reports the dispatcher state derived from the readiness flags.
func (r *Renderer) State() State {
	switch {
	case r.contextReady && r.shaderReady:
		return StateShaderReady
	case r.contextReady:
		return StateContextReady
	}
	return StateUninitialized
}

// Shutdown deletes the owned program and returns to StateUninitialized.
// The GL context must still be current.
func (r *Renderer) Shutdown() {
	if r.gl != nil && r.program != 0 {
		r.gl.DeleteProgram(r.program)
	}
	r.program = 0
	r.names = nil
	r.contextReady = false
	r.shaderReady = false
	r.log.Debug("renderer shut down")
}

func (r *Renderer) emit(msg string) {
	r.log.Info("diagnostic", "message", msg)
	r.sink.Emit(msg)
}

func (r *Renderer) rejected(err error) {
	r.log.Warn("rejected input", "error", err)
	r.sink.Emit(err.Error())
}
