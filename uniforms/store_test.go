package uniforms

import (
	"errors"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	s := New()
	w, h := s.Resolution()
	if w != DefaultWidth || h != DefaultHeight {
		t.Errorf("Resolution() = %d, %d, want %d, %d", w, h, DefaultWidth, DefaultHeight)
	}
	if s.Time() != 0 {
		t.Errorf("Time() = %v, want 0", s.Time())
	}
	for i, v := range s.Inlets() {
		if v != 0 {
			t.Errorf("inlet %d = %v, want 0", i, v)
		}
	}
}

func TestSetInlet(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		wantErr bool
	}{
		{"first", 0, false},
		{"last", InletCount - 1, false},
		{"negative", -1, true},
		{"one past end", InletCount, true},
		{"far past end", 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			before := s.Inlets()
			err := s.SetInlet(tt.index, 0.75)
			if tt.wantErr {
				if !errors.Is(err, ErrIndexOutOfRange) {
					t.Fatalf("SetInlet(%d) error = %v, want ErrIndexOutOfRange", tt.index, err)
				}
				if s.Inlets() != before {
					t.Errorf("store changed after rejected SetInlet(%d)", tt.index)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetInlet(%d) error = %v", tt.index, err)
			}
			got, err := s.Inlet(tt.index)
			if err != nil || got != 0.75 {
				t.Errorf("Inlet(%d) = %v, %v, want 0.75, nil", tt.index, got, err)
			}
		})
	}
}

func TestSetInletLeavesNeighboursAlone(t *testing.T) {
	s := New()
	for i := 0; i < InletCount; i++ {
		if err := s.SetInlet(i, float32(i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SetInlet(3, -1); err != nil {
		t.Fatal(err)
	}
	want := [InletCount]float32{0, 1, 2, -1, 4, 5, 6, 7}
	if got := s.Inlets(); got != want {
		t.Errorf("Inlets() = %v, want %v", got, want)
	}
}

func TestSetTexture(t *testing.T) {
	s := New()
	if err := s.SetTexture(2, Texture{Handle: 42, Width: 256, Height: 128}); err != nil {
		t.Fatal(err)
	}

	handles := s.Handles()
	if handles[2] != 42 {
		t.Errorf("Handles()[2] = %d, want 42", handles[2])
	}
	res := s.TextureResolutions()
	if got := [3]float32{res[6], res[7], res[8]}; got != [3]float32{256, 128, 0} {
		t.Errorf("TextureResolutions() slot 2 = %v, want [256 128 0]", got)
	}
	for i, h := range handles {
		if i != 2 && h != 0 {
			t.Errorf("Handles()[%d] = %d, want 0", i, h)
		}
	}

	if err := s.SetTexture(TextureCount, Texture{Handle: 1}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("SetTexture(%d) error = %v, want ErrIndexOutOfRange", TextureCount, err)
	}
	if _, err := s.Texture(-1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Texture(-1) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestResolutionVec(t *testing.T) {
	s := New()
	s.SetResolution(100, 50)
	if got := s.ResolutionVec(); got != [3]float32{100, 50, 1} {
		t.Errorf("ResolutionVec() = %v, want [100 50 1]", got)
	}
}
