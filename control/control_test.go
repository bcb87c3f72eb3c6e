package control

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/richinsley/goshaderbridge/glapi"
	"github.com/richinsley/goshaderbridge/glapi/gltest"
	"github.com/richinsley/goshaderbridge/renderer"
	"github.com/richinsley/goshaderbridge/uniforms"
)

func newTarget(t *testing.T) *renderer.Renderer {
	t.Helper()
	gl := gltest.New()
	gl.CompileCheck = func(shaderType uint32, src string) string {
		if shaderType == glapi.FRAGMENT_SHADER && strings.Contains(src, "@@") {
			return "ERROR: 0:1: '@@' : syntax error"
		}
		return ""
	}
	r := renderer.New(gl.Loader())
	r.Init()
	t.Cleanup(r.Shutdown)
	return r
}

func mustParse(t *testing.T, payload string) Command {
	t.Helper()
	cmd, err := ParseCommand([]byte(payload))
	if err != nil {
		t.Fatalf("ParseCommand(%s): %v", payload, err)
	}
	return cmd
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		payload string
		wantErr bool
	}{
		{`{"command":"compile"}`, false},
		{`{"command":"set_inlet","params":{"index":1,"value":0.5}}`, false},
		{`{"params":{}}`, true},
		{`not json`, true},
	}
	for _, tt := range tests {
		_, err := ParseCommand([]byte(tt.payload))
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCommand(%s) error = %v, wantErr %v", tt.payload, err, tt.wantErr)
		}
	}
}

func TestApplySetters(t *testing.T) {
	r := newTarget(t)

	tests := []struct {
		payload string
		status  string
	}{
		{`{"command":"set_inlet","params":{"index":3,"value":0.25}}`, "success"},
		{`{"command":"set_inlet","params":{"index":8,"value":1}}`, "error"},
		{`{"command":"set_inlet","params":{"index":1.5,"value":1}}`, "error"},
		{`{"command":"set_inlet","params":{"index":0}}`, "error"},
		{`{"command":"set_inlets","params":{"values":[1,2]}}`, "success"},
		{`{"command":"set_inlets","params":{"values":[1,2,3,4,5,6,7,8,9]}}`, "error"},
		{`{"command":"set_inlets","params":{"values":[1,"x"]}}`, "error"},
		{`{"command":"set_time","params":{"time":12.5}}`, "success"},
		{`{"command":"set_time"}`, "error"},
		{`{"command":"set_resolution","params":{"width":640,"height":360}}`, "success"},
		{`{"command":"set_resolution","params":{"width":0,"height":360}}`, "error"},
		{`{"command":"reboot"}`, "error"},
	}
	for _, tt := range tests {
		resp := Apply(r, mustParse(t, tt.payload))
		if resp.Status != tt.status {
			t.Errorf("Apply(%s) status = %q (%s), want %q", tt.payload, resp.Status, resp.Error, tt.status)
		}
	}

	s := r.Uniforms()
	inlets := s.Inlets()
	if inlets[0] != 1 || inlets[1] != 2 || inlets[3] != 0.25 {
		t.Errorf("inlets = %v", inlets)
	}
	if s.Time() != 12.5 {
		t.Errorf("time = %v, want 12.5", s.Time())
	}
	if w, h := s.Resolution(); w != 640 || h != 360 {
		t.Errorf("resolution = %dx%d, want 640x360", w, h)
	}
}

func TestApplySetShader(t *testing.T) {
	r := newTarget(t)

	resp := Apply(r, mustParse(t, `{"command":"set_shader","params":{"source":"void main() { @@ }","compile":true}}`))
	if resp.Status != "error" || r.State() != renderer.StateContextReady {
		t.Errorf("broken shader: status %q, state %v", resp.Status, r.State())
	}

	resp = Apply(r, mustParse(t, `{"command":"set_shader","params":{"source":"out vec4 c; void main() { c = vec4(1.0); }"}}`))
	if resp.Status != "success" || r.State() != renderer.StateContextReady {
		t.Errorf("set_shader without compile: status %q, state %v", resp.Status, r.State())
	}

	resp = Apply(r, mustParse(t, `{"command":"compile"}`))
	if resp.Status != "success" || r.State() != renderer.StateShaderReady {
		t.Errorf("compile: status %q (%s), state %v", resp.Status, resp.Error, r.State())
	}
	if resp.Data["state"] != "ShaderReady" {
		t.Errorf("compile data = %v", resp.Data)
	}

	if resp := Apply(r, mustParse(t, `{"command":"set_shader","params":{"source":""}}`)); resp.Status != "error" {
		t.Error("empty source accepted")
	}
}

func TestApplyStatus(t *testing.T) {
	r := newTarget(t)
	r.SetInlet(2, 0.5)

	resp := Apply(r, mustParse(t, `{"command":"get_status"}`))
	if resp.Status != "success" {
		t.Fatalf("get_status failed: %s", resp.Error)
	}
	if resp.Data["state"] != "ContextReady" {
		t.Errorf("state = %v", resp.Data["state"])
	}
	if inlets := resp.Data["inlets"].([]float32); inlets[2] != 0.5 {
		t.Errorf("inlets = %v", inlets)
	}
	if resp.Data["width"] != 3840 || resp.Data["height"] != 2160 {
		t.Errorf("resolution = %vx%v", resp.Data["width"], resp.Data["height"])
	}
	if resp.Data["source"] != r.FragmentSource() {
		t.Errorf("source = %v", resp.Data["source"])
	}
}

// fakeTarget keeps the inputs commands set without a GL context.
type fakeTarget struct {
	store  *uniforms.Store
	source string
}

func newFakeTarget() *fakeTarget { return &fakeTarget{store: uniforms.New()} }

func (f *fakeTarget) SetInlet(i int, v float32) error { return f.store.SetInlet(i, v) }
func (f *fakeTarget) SetTime(t float32)               { f.store.SetTime(t) }
func (f *fakeTarget) SetResolution(width, height int) { f.store.SetResolution(width, height) }
func (f *fakeTarget) SetFragmentSource(src string)    { f.source = src }
func (f *fakeTarget) FragmentSource() string          { return f.source }
func (f *fakeTarget) CompileShaders()                 {}
func (f *fakeTarget) State() renderer.State           { return renderer.StateContextReady }
func (f *fakeTarget) Uniforms() *uniforms.Store       { return f.store }

func TestPinnedKeepsRemoteOverrides(t *testing.T) {
	target := newFakeTarget()
	p := NewPinned(target)

	steps := []struct {
		command    string
		clock      float32
		width      int
		height     int
		wantTime   float32
		wantWidth  int
		wantHeight int
	}{
		{"", 1, 800, 600, 1, 800, 600},
		{`{"command":"set_time","params":{"time":42}}`, 2, 1024, 768, 42, 1024, 768},
		{`{"command":"set_resolution","params":{"width":640,"height":360}}`, 3, 1024, 768, 42, 640, 360},
		{"", 4, 1280, 720, 42, 640, 360},
		{`{"command":"release"}`, 5, 1280, 720, 5, 1280, 720},
	}
	for i, s := range steps {
		if s.command != "" {
			if resp := Apply(p, mustParse(t, s.command)); resp.Status != "success" {
				t.Fatalf("step %d: %s failed: %s", i, s.command, resp.Error)
			}
		}
		p.Frame(s.clock, s.width, s.height)

		if got := target.store.Time(); got != s.wantTime {
			t.Errorf("step %d: time = %v, want %v", i, got, s.wantTime)
		}
		if w, h := target.store.Resolution(); w != s.wantWidth || h != s.wantHeight {
			t.Errorf("step %d: resolution = %dx%d, want %dx%d", i, w, h, s.wantWidth, s.wantHeight)
		}
	}
}

func TestPinnedStatus(t *testing.T) {
	p := NewPinned(newFakeTarget())
	Apply(p, mustParse(t, `{"command":"set_time","params":{"time":3}}`))

	resp := Apply(p, mustParse(t, `{"command":"get_status"}`))
	if resp.Data["time_pinned"] != true || resp.Data["resolution_pinned"] != false {
		t.Errorf("pins = %v/%v, want true/false", resp.Data["time_pinned"], resp.Data["resolution_pinned"])
	}

	if resp := Apply(newFakeTarget(), mustParse(t, `{"command":"release"}`)); resp.Status != "error" {
		t.Error("release accepted by a target without pins")
	}
}

type fakeToken struct {
	mqtt.Token
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

type fakeClient struct {
	mqtt.Client

	mu        sync.Mutex
	handler   mqtt.MessageHandler
	subTopic  string
	published []Response
	pubTopics []string
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	c.subTopic = topic
	c.handler = cb
	return &fakeToken{}
}

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	var resp Response
	json.Unmarshal(payload.([]byte), &resp)
	c.mu.Lock()
	c.published = append(c.published, resp)
	c.pubTopics = append(c.pubTopics, topic)
	c.mu.Unlock()
	return &fakeToken{}
}

func (c *fakeClient) deliver(payload string) {
	c.handler(c, &fakeMessage{topic: c.subTopic, payload: []byte(payload)})
}

func TestHandlerQueuesUntilDrained(t *testing.T) {
	client := &fakeClient{}
	h := NewHandler(Config{Topic: "studio/bridge"}, client)
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}
	if client.subTopic != "studio/bridge/control" {
		t.Errorf("subscribed to %q", client.subTopic)
	}

	r := newTarget(t)
	client.deliver(`{"command":"set_inlet","params":{"index":0,"value":0.75}}`)
	client.deliver(`{"command":"set_time","params":{"time":3}}`)

	if v, _ := r.Uniforms().Inlet(0); v != 0 {
		t.Fatal("command applied before Drain")
	}
	if n := h.Drain(r); n != 2 {
		t.Errorf("Drain = %d, want 2", n)
	}
	if v, _ := r.Uniforms().Inlet(0); v != 0.75 {
		t.Errorf("inlet 0 = %v, want 0.75", v)
	}
	if n := h.Drain(r); n != 0 {
		t.Errorf("second Drain = %d, want 0", n)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.published) != 2 {
		t.Fatalf("published %d responses, want 2", len(client.published))
	}
	for i, resp := range client.published {
		if resp.Status != "success" || resp.Timestamp == "" {
			t.Errorf("response %d = %+v", i, resp)
		}
		if client.pubTopics[i] != "studio/bridge/status" {
			t.Errorf("response %d on %q", i, client.pubTopics[i])
		}
	}
}

func TestHandlerRejectsInvalidJSON(t *testing.T) {
	client := &fakeClient{}
	h := NewHandler(Config{Topic: "t"}, client)
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}
	client.deliver(`{bad`)

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.published) != 1 {
		t.Fatalf("published %d responses, want 1", len(client.published))
	}
	if resp := client.published[0]; resp.CommandAck != "unknown" || resp.Status != "error" {
		t.Errorf("response = %+v", resp)
	}
}

func TestBrokerURL(t *testing.T) {
	tests := map[string]string{
		"localhost:1883":      "tcp://localhost:1883",
		"ssl://broker:8883":   "ssl://broker:8883",
		"ws://broker:80/mqtt": "ws://broker:80/mqtt",
	}
	for in, want := range tests {
		if got := (Config{Broker: in}).brokerURL(); got != want {
			t.Errorf("brokerURL(%q) = %q, want %q", in, got, want)
		}
	}
}
