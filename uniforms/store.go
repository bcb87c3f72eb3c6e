package uniforms

import (
	"errors"
	"fmt"
)

const (
	// InletCount is the number of scalar inputs exposed to shaders as `inlets`.
	InletCount = 8
	// TextureCount is the number of sampler slots exposed as `textures`.
	TextureCount = 8

	// DefaultWidth and DefaultHeight are the render target size before the
	// host sets one (4K UHD).
	DefaultWidth  = 3840
	DefaultHeight = 2160
)

// ErrIndexOutOfRange is returned when an inlet or texture slot index falls
// outside [0, InletCount) or [0, TextureCount).
var ErrIndexOutOfRange = errors.New("uniform slot index out of range")

// Texture is a reference to an externally owned 2D texture.
// The store never creates or deletes the underlying GL object.
type Texture struct {
	Handle uint32
	Width  float32
	Height float32
}

// Store holds the values bound as uniforms on every frame.
// It is plain data and performs no locking.
type Store struct {
	time     float32
	width    int
	height   int
	inlets   [InletCount]float32
	textures [TextureCount]Texture
}

// New returns a store with zeroed inputs and the default resolution.
func New() *Store {
	return &Store{width: DefaultWidth, height: DefaultHeight}
}

func checkIndex(kind string, index, count int) error {
	if index < 0 || index >= count {
		return fmt.Errorf("%w: %s %d not in [0, %d)", ErrIndexOutOfRange, kind, index, count)
	}
	return nil
}

func (s *Store) SetTime(t float32) { s.time = t }
func (s *Store) Time() float32     { return s.time }

// SetResolution sets the render target size in pixels.
func (s *Store) SetResolution(width, height int) {
	s.width = width
	s.height = height
}

func (s *Store) Resolution() (int, int) { return s.width, s.height }

// ResolutionVec returns the iResolution value: width, height and a pixel
// aspect of 1.
func (s *Store) ResolutionVec() [3]float32 {
	return [3]float32{float32(s.width), float32(s.height), 1}
}

// SetInlet stores v in slot index. The store is left unchanged when the
// index is out of range.
func (s *Store) SetInlet(index int, v float32) error {
	if err := checkIndex("inlet", index, InletCount); err != nil {
		return err
	}
	s.inlets[index] = v
	return nil
}

func (s *Store) Inlet(index int) (float32, error) {
	if err := checkIndex("inlet", index, InletCount); err != nil {
		return 0, err
	}
	return s.inlets[index], nil
}

// Inlets returns a copy of all scalar inputs in slot order.
func (s *Store) Inlets() [InletCount]float32 { return s.inlets }

// SetTexture records the texture bound to slot index.
func (s *Store) SetTexture(index int, tex Texture) error {
	if err := checkIndex("texture", index, TextureCount); err != nil {
		return err
	}
	s.textures[index] = tex
	return nil
}

func (s *Store) Texture(index int) (Texture, error) {
	if err := checkIndex("texture", index, TextureCount); err != nil {
		return Texture{}, err
	}
	return s.textures[index], nil
}

// Handles returns the texture handle of every slot; unset slots are 0.
func (s *Store) Handles() [TextureCount]uint32 {
	var handles [TextureCount]uint32
	for i, t := range s.textures {
		handles[i] = t.Handle
	}
	return handles
}

// TextureResolutions flattens the per-slot sizes into vec3 groups of
// (width, height, 0), the layout of the textureResolutions uniform.
func (s *Store) TextureResolutions() [TextureCount * 3]float32 {
	var res [TextureCount * 3]float32
	for i, t := range s.textures {
		res[i*3+0] = t.Width
		res[i*3+1] = t.Height
		res[i*3+2] = 0
	}
	return res
}
