package audio

import (
	"context"
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func sine(freq float64, rate, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(rate)))
	}
	return out
}

func TestAnalyzerSilence(t *testing.T) {
	a := NewAnalyzer()
	for i := 0; i < 5; i++ {
		for b, v := range a.Levels(8) {
			if v != 0 {
				t.Fatalf("silent band %d = %v, want 0", b, v)
			}
		}
	}
}

func TestAnalyzerSine(t *testing.T) {
	a := NewAnalyzer()
	a.Push(sine(1000, 44100, historyBufferSize))

	var levels []float32
	for i := 0; i < 40; i++ {
		levels = a.Levels(8)
	}
	// 1 kHz lands in bin ~46, inside the first of eight 64-bin bands.
	if levels[0] < 0.9 {
		t.Errorf("band 0 = %v, want close to 1", levels[0])
	}
	if levels[7] > 0.05 {
		t.Errorf("band 7 = %v, want close to 0", levels[7])
	}
}

func TestAnalyzerSmoothing(t *testing.T) {
	a := NewAnalyzer()
	a.Push(sine(1000, 44100, historyBufferSize))

	first := a.Levels(1)[0]
	second := a.Levels(1)[0]
	if !(first > 0 && first < second && second < 1) {
		t.Errorf("levels did not ramp up smoothly: %v then %v", first, second)
	}
}

func TestLevelsBandCount(t *testing.T) {
	a := NewAnalyzer()
	for _, n := range []int{1, 3, 8, SpectrumBins} {
		if got := len(a.Levels(n)); got != n {
			t.Errorf("len(Levels(%d)) = %d", n, got)
		}
	}
	if got := a.Levels(0); got != nil {
		t.Errorf("Levels(0) = %v, want nil", got)
	}
}

func TestReduceBands(t *testing.T) {
	got := reduceBands([]float32{0.1, 0.5, 0.2, 0.9, 0.3, 0}, 3)
	want := []float32{0.5, 0.9, 0.3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reduceBands = %v, want %v", got, want)
		}
	}
}

func TestScaleDecibels(t *testing.T) {
	tests := []struct {
		db   float64
		want float32
	}{
		{-120, 0},
		{-100, 0},
		{-65, 0.5},
		{-30, 1},
		{0, 1},
	}
	for _, tt := range tests {
		if got := scaleDecibels(tt.db); math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Errorf("scaleDecibels(%v) = %v, want %v", tt.db, got, tt.want)
		}
	}
}

func TestListen(t *testing.T) {
	a := NewAnalyzer()
	ch := make(chan []float32, 1)
	done := make(chan struct{})
	go func() {
		a.Listen(context.Background(), ch)
		close(done)
	}()
	ch <- []float32{0.5}
	close(ch)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listen did not return after the channel closed")
	}
	if got := a.recentSamples(1)[0]; got != 0.5 {
		t.Errorf("last sample = %v, want 0.5", got)
	}
}

func TestListenCancel(t *testing.T) {
	a := NewAnalyzer()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		// A NullDevice channel never delivers.
		ch, _ := NewNullDevice(44100).Start()
		a.Listen(ctx, ch)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listen ignored cancellation")
	}
}

func TestDecodeFloat32LE(t *testing.T) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b, math.Float32bits(0.25))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(-1))
	got := decodeFloat32LE(b)
	if len(got) != 2 || got[0] != 0.25 || got[1] != -1 {
		t.Errorf("decodeFloat32LE = %v", got)
	}
}

func TestFileDeviceArgs(t *testing.T) {
	d := NewFileDevice("song.mp3", 48000, "", true)
	in := d.inputArgs()
	if _, ok := in["re"]; !ok {
		t.Error("input args lack -re pacing")
	}
	if in["stream_loop"] != "-1" {
		t.Errorf("stream_loop = %v, want -1", in["stream_loop"])
	}
	out := d.outputArgs()
	if out["f"] != "f32le" || out["ac"] != 1 || out["ar"] != 48000 {
		t.Errorf("output args = %v", out)
	}
	if _, ok := NewFileDevice("x.wav", 44100, "", false).inputArgs()["stream_loop"]; ok {
		t.Error("stream_loop set without loop")
	}
}
