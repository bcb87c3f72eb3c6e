package options

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func parse(t *testing.T, args ...string) (*ShaderOptions, *flag.FlagSet) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	o := Register(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%q): %v", args, err)
	}
	return o, fs
}

func writeSession(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSlotFlags(t *testing.T) {
	o, _ := parse(t, "-texture", "0=noise.png", "-texture", "7=a=b.png", "-inlet", "3=0.5", "-inlet", " 1 = -2 ")
	if o.Textures[0] != "noise.png" || o.Textures[7] != "a=b.png" {
		t.Errorf("textures = %v", o.Textures)
	}
	if o.Inlets[3] != 0.5 || o.Inlets[1] != -2 {
		t.Errorf("inlets = %v", o.Inlets)
	}
	if got := o.Inlets.String(); got != "1=-2,3=0.5" {
		t.Errorf("Inlets.String() = %q", got)
	}
}

func TestSlotFlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"texture slot too high", []string{"-texture", "8=x.png"}},
		{"negative texture slot", []string{"-texture", "-1=x.png"}},
		{"texture without path", []string{"-texture", "2="}},
		{"texture without separator", []string{"-texture", "x.png"}},
		{"inlet not a number", []string{"-inlet", "0=loud"}},
		{"inlet slot too high", []string{"-inlet", "8=1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			Register(fs)
			if err := fs.Parse(tt.args); err == nil {
				t.Errorf("Parse(%q) succeeded", tt.args)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"defaults", nil, false},
		{"bad dialect", []string{"-dialect", "hlsl"}, true},
		{"zero width", []string{"-width", "0"}, true},
		{"audio overflow", []string{"-audio-inlet", "6", "-audio-bands", "4"}, true},
		{"audio fits", []string{"-audio-inlet", "4", "-audio-bands", "4"}, false},
		{"record without fps", []string{"-record", "out.mp4", "-fps", "0"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _ := parse(t, tt.args...)
			if err := o.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadSession(t *testing.T) {
	path := writeSession(t, `
shader: scene.frag
dialect: webgl2
width: 1920
height: 1080
refresh: 500ms
inlets:
  0: 0.25
  5: 1
textures:
  2: noise.png
audio:
  enabled: true
  inlet: 4
  bands: 4
mqtt:
  broker: localhost:1883
  topic: studio/a
`)
	s, err := LoadSession(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Shader != "scene.frag" || s.Width != 1920 || s.Refresh != 500*time.Millisecond {
		t.Errorf("session = %+v", s)
	}
	if s.Inlets[5] != 1 || s.Textures[2] != "noise.png" || !s.Audio.Enabled || s.MQTT.Topic != "studio/a" {
		t.Errorf("session = %+v", s)
	}
}

func TestLoadSessionErrors(t *testing.T) {
	tests := map[string]string{
		"inlet slot":   "inlets:\n  8: 1\n",
		"texture slot": "textures:\n  -1: a.png\n",
		"empty path":   "textures:\n  1: \"\"\n",
		"dialect":      "dialect: metal\n",
		"audio bands":  "audio:\n  inlet: 7\n  bands: 2\n",
		"syntax":       "inlets: [\n",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadSession(writeSession(t, text)); err == nil {
				t.Error("LoadSession succeeded")
			}
		})
	}

	_, err := LoadSession(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("missing file error = %v", err)
	}
}

func TestMergeFlagsWin(t *testing.T) {
	o, fs := parse(t, "-width", "640", "-inlet", "0=0.9", "-texture", "2=flag.png")
	s := &Session{
		Shader:   "scene.frag",
		Width:    1920,
		Height:   1080,
		Inlets:   map[int]float32{0: 0.25, 1: 0.5},
		Textures: map[int]string{2: "session.png", 3: "other.png"},
		Audio:    AudioConfig{Enabled: true, Bands: 8},
		MQTT:     MQTTConfig{Broker: "broker:1883"},
	}
	Merge(o, s, Explicit(fs))

	if *o.Width != 640 {
		t.Errorf("width = %d, want the explicit 640", *o.Width)
	}
	if *o.Height != 1080 || *o.ShaderFile != "scene.frag" {
		t.Errorf("height = %d, shader = %q; want session values", *o.Height, *o.ShaderFile)
	}
	if o.Inlets[0] != 0.9 || o.Inlets[1] != 0.5 {
		t.Errorf("inlets = %v", o.Inlets)
	}
	if o.Textures[2] != "flag.png" || o.Textures[3] != "other.png" {
		t.Errorf("textures = %v", o.Textures)
	}
	if !*o.Audio || *o.AudioBands != 8 || *o.MQTTBroker != "broker:1883" {
		t.Errorf("audio %v bands %d broker %q", *o.Audio, *o.AudioBands, *o.MQTTBroker)
	}
	if *o.MQTTTopic != "shaderbridge" {
		t.Errorf("topic = %q, want the flag default", *o.MQTTTopic)
	}
}
