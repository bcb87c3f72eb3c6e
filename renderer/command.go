package renderer

import "fmt"

// Command is one host-issued event. The numeric values are the event ids
// of the C render-event interface.
type Command int

const (
	CommandInit           Command = 0
	CommandCompileShaders Command = 1
	CommandRender         Command = 2
)

func (c Command) String() string {
	switch c {
	case CommandInit:
		return "Init"
	case CommandCompileShaders:
		return "CompileShaders"
	case CommandRender:
		return "Render"
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// State is the dispatcher state. A successful Init always moves to
// StateContextReady, whatever the previous state; failures leave the
// readiness flags as the failed command set them.
type State int

const (
	StateUninitialized State = iota
	StateContextReady
	StateShaderReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateContextReady:
		return "ContextReady"
	case StateShaderReady:
		return "ShaderReady"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Dispatch runs the operation for c on r. Unknown commands are ignored.
func Dispatch(r *Renderer, c Command) {
	switch c {
	case CommandInit:
		r.log.Debug("dispatch", "command", c)
		r.Init()
	case CommandCompileShaders:
		r.log.Debug("dispatch", "command", c)
		r.CompileShaders()
	case CommandRender:
		r.Render()
	default:
		r.log.Debug("ignoring unknown command", "command", int(c))
	}
}

func (r *Renderer) Dispatch(c Command) { Dispatch(r, c) }
