// Package control lets a remote client drive a renderer over MQTT: set
// inlets and time, replace and recompile the shader, and query status.
//
// Messages arrive on the MQTT client's goroutines and are queued; the host
// applies them with Handler.Drain on its render thread between frames.
package control

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/richinsley/goshaderbridge/renderer"
	"github.com/richinsley/goshaderbridge/uniforms"
)

// Command is one JSON control message.
type Command struct {
	Command string                 `json:"command"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// Response acknowledges a Command on the status topic.
type Response struct {
	CommandAck string                 `json:"command_ack"`
	Status     string                 `json:"status"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Timestamp  string                 `json:"timestamp"`
}

// Target is the renderer surface commands act on. *renderer.Renderer
// satisfies it.
type Target interface {
	SetInlet(i int, v float32) error
	SetTime(t float32)
	SetResolution(width, height int)
	SetFragmentSource(src string)
	FragmentSource() string
	CompileShaders()
	State() renderer.State
	Uniforms() *uniforms.Store
}

var _ Target = (*renderer.Renderer)(nil)

// ParseCommand decodes a control message payload.
func ParseCommand(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("invalid control message: %w", err)
	}
	if cmd.Command == "" {
		return Command{}, fmt.Errorf("invalid control message: missing command")
	}
	return cmd, nil
}

// Apply runs cmd against t and builds the acknowledgement. It must run on
// the thread that owns t's GL context.
func Apply(t Target, cmd Command) Response {
	resp := Response{CommandAck: cmd.Command}
	fail := func(format string, args ...interface{}) Response {
		resp.Status = "error"
		resp.Error = fmt.Sprintf(format, args...)
		return resp
	}

	switch cmd.Command {
	case "set_inlet":
		index, ok := intParam(cmd.Params, "index")
		if !ok {
			return fail("missing or invalid 'index' parameter (expected integer 0-%d)", uniforms.InletCount-1)
		}
		value, ok := cmd.Params["value"].(float64)
		if !ok {
			return fail("missing or invalid 'value' parameter (expected number)")
		}
		if err := t.SetInlet(index, float32(value)); err != nil {
			return fail("%v", err)
		}
		resp.Data = map[string]interface{}{"index": index, "value": value}

	case "set_inlets":
		raw, ok := cmd.Params["values"].([]interface{})
		if !ok {
			return fail("missing or invalid 'values' parameter (expected array of numbers)")
		}
		if len(raw) > uniforms.InletCount {
			return fail("'values' has %d entries, at most %d allowed", len(raw), uniforms.InletCount)
		}
		values := make([]float32, len(raw))
		for i, v := range raw {
			f, ok := v.(float64)
			if !ok {
				return fail("values[%d] is not a number", i)
			}
			values[i] = float32(f)
		}
		for i, v := range values {
			if err := t.SetInlet(i, v); err != nil {
				return fail("%v", err)
			}
		}
		resp.Data = map[string]interface{}{"count": len(values)}

	case "set_time":
		value, ok := cmd.Params["time"].(float64)
		if !ok {
			return fail("missing or invalid 'time' parameter (expected number)")
		}
		t.SetTime(float32(value))

	case "set_resolution":
		width, okW := intParam(cmd.Params, "width")
		height, okH := intParam(cmd.Params, "height")
		if !okW || !okH || width <= 0 || height <= 0 {
			return fail("missing or invalid 'width'/'height' parameters (expected positive integers)")
		}
		t.SetResolution(width, height)

	case "set_shader":
		src, ok := cmd.Params["source"].(string)
		if !ok || src == "" {
			return fail("missing or invalid 'source' parameter (expected non-empty string)")
		}
		t.SetFragmentSource(src)
		if compile, _ := cmd.Params["compile"].(bool); compile {
			return compileResponse(t, resp)
		}

	case "compile":
		return compileResponse(t, resp)

	case "release":
		r, ok := t.(releaser)
		if !ok {
			return fail("time and resolution are not held by this target")
		}
		r.Release()

	case "get_status":
		resp.Data = status(t)

	default:
		return fail("unknown command: %s", cmd.Command)
	}

	resp.Status = "success"
	return resp
}

func compileResponse(t Target, resp Response) Response {
	t.CompileShaders()
	resp.Data = map[string]interface{}{"state": t.State().String()}
	if t.State() != renderer.StateShaderReady {
		resp.Status = "error"
		resp.Error = "shader compilation failed"
		return resp
	}
	resp.Status = "success"
	return resp
}

func status(t Target) map[string]interface{} {
	s := t.Uniforms()
	width, height := s.Resolution()
	inlets := s.Inlets()
	data := map[string]interface{}{
		"state":  t.State().String(),
		"time":   s.Time(),
		"width":  width,
		"height": height,
		"inlets": inlets[:],
		"source": t.FragmentSource(),
	}
	if p, ok := t.(*Pinned); ok {
		pinTime, pinResolution := p.Pins()
		data["time_pinned"] = pinTime
		data["resolution_pinned"] = pinResolution
	}
	return data
}

// intParam reads a JSON number that must be integral.
func intParam(params map[string]interface{}, key string) (int, bool) {
	f, ok := params[key].(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
