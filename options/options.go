package options

import (
	"flag"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/richinsley/goshaderbridge/shader"
	"github.com/richinsley/goshaderbridge/uniforms"
)

type ShaderOptions struct {
	ShaderFile *string
	Dialect    *string // glsl410 or webgl2
	Session    *string
	Help       *bool
	Verbose    *bool
	Headless   *bool
	Width      *int
	Height     *int
	Refresh    *time.Duration // Shader file poll interval

	Textures TextureSlots // slot=path, repeatable
	Inlets   InletValues  // index=value, repeatable

	// Audio-reactive inlets
	Audio      *bool
	AudioFile  *string // Decode a file with ffmpeg instead of capturing the default input
	AudioInlet *int    // First inlet receiving band levels
	AudioBands *int

	// Remote control
	MQTTBroker *string
	MQTTTopic  *string

	// Recording
	Record     *string
	Duration   *float64
	FPS        *int
	Codec      *string
	HWAccel    *bool
	FFMPEGPath *string
	Snapshot   *string
}

// Register defines the host's flags on fs.
func Register(fs *flag.FlagSet) *ShaderOptions {
	o := &ShaderOptions{
		Textures: TextureSlots{},
		Inlets:   InletValues{},
	}
	o.ShaderFile = fs.String("shader", "", "Fragment shader file")
	o.Dialect = fs.String("dialect", "glsl410", "Shader dialect: glsl410 or webgl2")
	o.Session = fs.String("session", "", "YAML session file; explicit flags override it")
	o.Help = fs.Bool("help", false, "Show help message")
	o.Verbose = fs.Bool("verbose", false, "Log library diagnostics")
	o.Headless = fs.Bool("headless", false, "Render with an EGL pbuffer instead of a window (Linux)")
	o.Width = fs.Int("width", 1280, "Width of the window or output")
	o.Height = fs.Int("height", 720, "Height of the window or output")
	o.Refresh = fs.Duration("refresh", shader.DefaultRefresh, "Shader file poll interval")
	fs.Var(o.Textures, "texture", "Texture image for a sampler slot as slot=path (repeatable)")
	fs.Var(o.Inlets, "inlet", "Initial inlet value as index=value (repeatable)")

	o.Audio = fs.Bool("audio", false, "Drive inlets from the default audio input")
	o.AudioFile = fs.String("audio-file", "", "Drive inlets from an audio file decoded by ffmpeg")
	o.AudioInlet = fs.Int("audio-inlet", 0, "First inlet receiving audio band levels")
	o.AudioBands = fs.Int("audio-bands", 4, "Number of audio bands")

	o.MQTTBroker = fs.String("mqtt-broker", "", "MQTT broker for remote control (host:port)")
	o.MQTTTopic = fs.String("mqtt-topic", "shaderbridge", "Base MQTT topic")

	o.Record = fs.String("record", "", "Record to this video file instead of opening a window")
	o.Duration = fs.Float64("duration", 10.0, "Duration to record in seconds")
	o.FPS = fs.Int("fps", 60, "Frames per second for recording")
	o.Codec = fs.String("codec", "h264", "Video codec: h264 or hevc")
	o.HWAccel = fs.Bool("hwaccel", false, "Use the platform's hardware video encoder")
	o.FFMPEGPath = fs.String("ffmpeg", "", "Path to ffmpeg executable")
	o.Snapshot = fs.String("snapshot", "", "Write the first rendered frame to this PNG file")
	return o
}

// Validate checks values the flag package cannot.
func (o *ShaderOptions) Validate() error {
	if _, err := shader.ParseDialect(*o.Dialect); err != nil {
		return err
	}
	if *o.Width <= 0 || *o.Height <= 0 {
		return fmt.Errorf("invalid size %dx%d", *o.Width, *o.Height)
	}
	if *o.AudioBands < 1 || *o.AudioInlet < 0 || *o.AudioInlet+*o.AudioBands > uniforms.InletCount {
		return fmt.Errorf("audio bands %d from inlet %d do not fit in %d inlets",
			*o.AudioBands, *o.AudioInlet, uniforms.InletCount)
	}
	if *o.Record != "" && (*o.FPS <= 0 || *o.Duration <= 0) {
		return fmt.Errorf("recording needs a positive -fps and -duration")
	}
	return nil
}

// TextureSlots maps sampler slots to image paths.
type TextureSlots map[int]string

func (t TextureSlots) String() string {
	parts := make([]string, 0, len(t))
	for _, slot := range sortedKeys(t) {
		parts = append(parts, fmt.Sprintf("%d=%s", slot, t[slot]))
	}
	return strings.Join(parts, ",")
}

func (t TextureSlots) Set(v string) error {
	slot, path, err := splitSlot(v, uniforms.TextureCount)
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("texture %q has no path", v)
	}
	t[slot] = path
	return nil
}

// InletValues maps inlet indices to values.
type InletValues map[int]float32

func (in InletValues) String() string {
	parts := make([]string, 0, len(in))
	for _, i := range sortedKeys(in) {
		parts = append(parts, fmt.Sprintf("%d=%g", i, in[i]))
	}
	return strings.Join(parts, ",")
}

func (in InletValues) Set(v string) error {
	index, value, err := splitSlot(v, uniforms.InletCount)
	if err != nil {
		return err
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return fmt.Errorf("inlet %q: %w", v, err)
	}
	in[index] = float32(f)
	return nil
}

func splitSlot(v string, count int) (int, string, error) {
	key, value, ok := strings.Cut(v, "=")
	if !ok {
		return 0, "", fmt.Errorf("%q is not index=value", v)
	}
	slot, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil {
		return 0, "", fmt.Errorf("%q: bad index: %w", v, err)
	}
	if slot < 0 || slot >= count {
		return 0, "", fmt.Errorf("%q: index %d outside [0,%d)", v, slot, count)
	}
	return slot, strings.TrimSpace(value), nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
