package options

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/richinsley/goshaderbridge/shader"
	"github.com/richinsley/goshaderbridge/uniforms"
	"gopkg.in/yaml.v3"
)

// Session is a saved host setup. Zero values mean "not set".
type Session struct {
	Shader   string          `yaml:"shader"`
	Dialect  string          `yaml:"dialect"`
	Width    int             `yaml:"width"`
	Height   int             `yaml:"height"`
	Refresh  time.Duration   `yaml:"refresh"` // e.g. "500ms"
	Inlets   map[int]float32 `yaml:"inlets"`
	Textures map[int]string  `yaml:"textures"`
	Audio    AudioConfig     `yaml:"audio"`
	MQTT     MQTTConfig      `yaml:"mqtt"`
}

type AudioConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
	Inlet   int    `yaml:"inlet"`
	Bands   int    `yaml:"bands"`
}

type MQTTConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
}

func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}
	return &s, nil
}

func (s *Session) Validate() error {
	if _, err := shader.ParseDialect(s.Dialect); err != nil {
		return err
	}
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("negative size %dx%d", s.Width, s.Height)
	}
	if s.Refresh < 0 {
		return fmt.Errorf("negative refresh interval %v", s.Refresh)
	}
	for i := range s.Inlets {
		if i < 0 || i >= uniforms.InletCount {
			return fmt.Errorf("inlet %d outside [0,%d)", i, uniforms.InletCount)
		}
	}
	for slot, path := range s.Textures {
		if slot < 0 || slot >= uniforms.TextureCount {
			return fmt.Errorf("texture slot %d outside [0,%d)", slot, uniforms.TextureCount)
		}
		if path == "" {
			return fmt.Errorf("texture slot %d has no path", slot)
		}
	}
	if s.Audio.Bands < 0 || s.Audio.Inlet < 0 || s.Audio.Inlet+s.Audio.Bands > uniforms.InletCount {
		return fmt.Errorf("audio bands %d from inlet %d do not fit in %d inlets",
			s.Audio.Bands, s.Audio.Inlet, uniforms.InletCount)
	}
	return nil
}

// Explicit returns the names of the flags set on the command line.
func Explicit(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// Merge fills o from s wherever the matching flag was not given
// explicitly. Per-slot inlet and texture flags win over session entries
// for the same slot.
func Merge(o *ShaderOptions, s *Session, explicit map[string]bool) {
	str := func(name string, dst *string, v string) {
		if !explicit[name] && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int, v int) {
		if !explicit[name] && v != 0 {
			*dst = v
		}
	}

	str("shader", o.ShaderFile, s.Shader)
	str("dialect", o.Dialect, s.Dialect)
	num("width", o.Width, s.Width)
	num("height", o.Height, s.Height)
	if !explicit["refresh"] && s.Refresh > 0 {
		*o.Refresh = s.Refresh
	}

	for i, v := range s.Inlets {
		if _, ok := o.Inlets[i]; !ok {
			o.Inlets[i] = v
		}
	}
	for slot, path := range s.Textures {
		if _, ok := o.Textures[slot]; !ok {
			o.Textures[slot] = path
		}
	}

	if !explicit["audio"] && s.Audio.Enabled {
		*o.Audio = true
	}
	str("audio-file", o.AudioFile, s.Audio.File)
	num("audio-inlet", o.AudioInlet, s.Audio.Inlet)
	num("audio-bands", o.AudioBands, s.Audio.Bands)

	str("mqtt-broker", o.MQTTBroker, s.MQTT.Broker)
	str("mqtt-topic", o.MQTTTopic, s.MQTT.Topic)
}
