// Package audio captures sound and reduces it to per-band levels that can
// drive shader inlets.
package audio

// Capture devices need the portaudio development files:
// macos:	brew install portaudio
// debian:	sudo apt-get install portaudio19-dev
// windows:	pacman -S mingw-w64-x86_64-portaudio

// AudioDevice produces a stream of mono sample chunks.
type AudioDevice interface {
	// Start begins capture and returns the channel chunks arrive on.
	Start() (<-chan []float32, error)
	// Stop ends capture and closes the channel.
	Stop() error
	SampleRate() int
}

// NullDevice is the silent fallback used when no capture device opens.
type NullDevice struct {
	rate int
}

func NewNullDevice(sampleRate int) *NullDevice {
	return &NullDevice{rate: sampleRate}
}

// Start returns a nil channel, which never delivers.
func (d *NullDevice) Start() (<-chan []float32, error) { return nil, nil }

func (d *NullDevice) Stop() error { return nil }

func (d *NullDevice) SampleRate() int { return d.rate }
