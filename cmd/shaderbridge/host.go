package main

import (
	"context"
	"log"
	"strings"

	"github.com/richinsley/goshaderbridge/audio"
	"github.com/richinsley/goshaderbridge/control"
	"github.com/richinsley/goshaderbridge/gl41"
	"github.com/richinsley/goshaderbridge/options"
	"github.com/richinsley/goshaderbridge/renderer"
	"github.com/richinsley/goshaderbridge/shader"
	"github.com/richinsley/goshaderbridge/textures"
	"github.com/richinsley/goshaderbridge/translator"
)

const audioSampleRate = 44100

// host drives one renderer the way a plugin host would: it issues the
// render events and feeds the setters from files, audio and MQTT.
type host struct {
	opts   *options.ShaderOptions
	r      *renderer.Renderer
	remote *control.Pinned

	watcher  *shader.Watcher
	textures []uint32

	device   audio.AudioDevice
	analyzer *audio.Analyzer
	control  *control.Handler
	cancel   context.CancelFunc
}

// logDiagnostic prints renderer diagnostics, flagging failures.
func logDiagnostic(msg string) {
	if strings.Contains(strings.ToLower(msg), "error") {
		log.Printf("ERROR: %s", msg)
		return
	}
	log.Printf("%s", msg)
}

func newHost(o *options.ShaderOptions) *host {
	d, _ := shader.ParseDialect(*o.Dialect)
	opts := []renderer.Option{renderer.WithPrepare(d)}
	if d == shader.WebGL2 {
		opts = append(opts, renderer.WithTranslator(translator.WebGL2{}))
	}
	r := renderer.New(gl41.Load, opts...)
	r.SetDiagnostics(logDiagnostic)
	log.Printf("Renderer instance %s (%s)", r.ID(), d)
	return &host{opts: o, r: r, remote: control.NewPinned(r)}
}

// start runs on the thread owning the current GL context.
func (h *host) start(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)

	h.r.Dispatch(renderer.CommandInit)
	if !h.r.ContextReady() {
		log.Fatalf("Renderer failed to initialize")
	}

	for i, v := range h.opts.Inlets {
		h.r.SetInlet(i, v)
	}
	h.loadTextures()

	if *h.opts.ShaderFile != "" {
		h.watcher = shader.NewWatcher(*h.opts.ShaderFile, *h.opts.Refresh)
		src, err := h.watcher.Load()
		if err != nil {
			log.Printf("Error reading shader file: %v", err)
		} else if src != "" {
			h.r.SetFragmentSource(src)
		}
	}
	h.r.Dispatch(renderer.CommandCompileShaders)

	h.startAudio(ctx)
	h.startControl(ctx)
}

func (h *host) loadTextures() {
	for slot, path := range h.opts.Textures {
		img, format, err := textures.Load(path, true)
		if err != nil {
			log.Printf("Error loading texture %d: %v", slot, err)
			continue
		}
		id, err := gl41.UploadRGBA(img, gl41.Sampler{Wrap: "repeat", Filter: "mipmap"})
		if err != nil {
			log.Printf("Error uploading texture %d: %v", slot, err)
			continue
		}
		h.textures = append(h.textures, id)
		size := img.Rect.Size()
		if err := h.r.SetTexture(slot, id, float32(size.X), float32(size.Y)); err != nil {
			log.Printf("Error binding texture %d: %v", slot, err)
			continue
		}
		log.Printf("Loaded %s texture %s into slot %d (%dx%d)", format, path, slot, size.X, size.Y)
	}
}

func (h *host) startAudio(ctx context.Context) {
	switch {
	case *h.opts.AudioFile != "":
		h.device = audio.NewFileDevice(*h.opts.AudioFile, audioSampleRate, *h.opts.FFMPEGPath, true)
	case *h.opts.Audio:
		mic, err := audio.NewMicrophone(audioSampleRate)
		if err != nil {
			log.Printf("Warning: %v; audio inlets stay silent", err)
			h.device = audio.NewNullDevice(audioSampleRate)
		} else {
			h.device = mic
		}
	default:
		return
	}

	ch, err := h.device.Start()
	if err != nil {
		log.Printf("Warning: audio input failed: %v; audio inlets stay silent", err)
		h.device.Stop()
		h.device = audio.NewNullDevice(audioSampleRate)
		ch, _ = h.device.Start()
	}
	h.analyzer = audio.NewAnalyzer()
	go h.analyzer.Listen(ctx, ch)
}

func (h *host) startControl(ctx context.Context) {
	if *h.opts.MQTTBroker == "" {
		return
	}
	cfg := control.Config{
		Broker:   *h.opts.MQTTBroker,
		Topic:    *h.opts.MQTTTopic,
		QoS:      1,
		ClientID: "shaderbridge-" + h.r.ID().String(),
	}
	client, err := control.Connect(ctx, cfg)
	if err != nil {
		log.Printf("Warning: remote control disabled: %v", err)
		return
	}
	h.control = control.NewHandler(cfg, client)
	if err := h.control.Start(); err != nil {
		log.Printf("Warning: remote control disabled: %v", err)
		h.control.Stop()
		h.control = nil
		return
	}
	log.Printf("Listening for commands on %s", cfg.ControlTopic())
}

// reload recompiles from the watched file when it changed.
func (h *host) reload() {
	if h.watcher == nil {
		return
	}
	src, changed, err := h.watcher.Poll()
	if err != nil {
		log.Printf("Error reading shader file: %v", err)
		return
	}
	if changed {
		log.Printf("Shader file %s changed, recompiling", h.watcher.Path())
		h.r.SetFragmentSource(src)
		h.r.Dispatch(renderer.CommandCompileShaders)
	}
}

// frame updates every input and renders one frame at time t. Time and
// size set over MQTT override t and the framebuffer size until released.
func (h *host) frame(t float64, width, height int) {
	h.reload()

	h.remote.Frame(float32(t), width, height)

	if h.analyzer != nil {
		for i, level := range h.analyzer.Levels(*h.opts.AudioBands) {
			h.r.SetInlet(*h.opts.AudioInlet+i, level)
		}
	}
	if h.control != nil {
		h.control.Drain(h.remote)
	}

	h.r.Dispatch(renderer.CommandRender)
}

func (h *host) close() {
	if h.cancel != nil {
		h.cancel()
	}
	if h.control != nil {
		h.control.Stop()
	}
	if h.device != nil {
		if err := h.device.Stop(); err != nil {
			log.Printf("Error stopping audio: %v", err)
		}
	}
	for _, id := range h.textures {
		gl41.DeleteTexture(id)
	}
	h.r.Shutdown()
}
