package audio

import (
	"context"
	"math"
	"sync"

	"github.com/mjibson/go-dsp/fft"
)

const (
	// fftInputSize gives 1024 frequency bins.
	fftInputSize      = 2048
	historyBufferSize = fftInputSize * 4
	// SpectrumBins is the number of low bins Spectrum reports.
	SpectrumBins = 512

	minDecibels     = -100.0
	maxDecibels     = -30.0
	smoothingFactor = 0.8
)

// Analyzer keeps a history of recent samples and turns it into a smoothed,
// decibel-scaled spectrum. Push may run on another goroutine than
// Spectrum and Levels.
type Analyzer struct {
	mu            sync.Mutex
	historyBuffer []float32
	bufferPos     int

	// Touched only by Spectrum.
	window  []float64
	lastFFT []float64
}

func NewAnalyzer() *Analyzer {
	a := &Analyzer{
		historyBuffer: make([]float32, historyBufferSize),
		window:        blackmanWindow(fftInputSize),
		lastFFT:       make([]float64, SpectrumBins),
	}
	for i := range a.lastFFT {
		a.lastFFT[i] = minDecibels
	}
	return a
}

// Push appends samples to the history.
func (a *Analyzer) Push(samples []float32) {
	a.mu.Lock()
	for _, s := range samples {
		a.historyBuffer[a.bufferPos] = s
		a.bufferPos = (a.bufferPos + 1) % historyBufferSize
	}
	a.mu.Unlock()
}

// Listen pushes every chunk from ch until ch closes or ctx is done.
func (a *Analyzer) Listen(ctx context.Context, ch <-chan []float32) {
	for {
		select {
		case <-ctx.Done():
			return
		case samples, ok := <-ch:
			if !ok {
				return
			}
			a.Push(samples)
		}
	}
}

func (a *Analyzer) recentSamples(n int) []float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		index := (a.bufferPos - n + i + historyBufferSize) % historyBufferSize
		out[i] = a.historyBuffer[index]
	}
	return out
}

// Spectrum runs one analysis step and returns SpectrumBins magnitudes
// scaled from [-100 dB, -30 dB] to [0, 1]. Each call advances the temporal
// smoothing, so call it once per frame.
func (a *Analyzer) Spectrum() []float32 {
	samples := a.recentSamples(fftInputSize)
	samples64 := make([]float64, fftInputSize)
	for i, s := range samples {
		samples64[i] = float64(s) * a.window[i]
	}
	fftResult := fft.FFTReal(samples64)

	out := make([]float32, SpectrumBins)
	for i := range out {
		re := real(fftResult[i])
		im := imag(fftResult[i])
		magnitude := math.Sqrt(re*re+im*im) * (2.0 / float64(fftInputSize))
		db := 20 * math.Log10(magnitude+1e-9)

		a.lastFFT[i] = smoothingFactor*a.lastFFT[i] + (1.0-smoothingFactor)*db
		out[i] = scaleDecibels(a.lastFFT[i])
	}
	return out
}

func scaleDecibels(db float64) float32 {
	switch {
	case db < minDecibels:
		return 0
	case db > maxDecibels:
		return 1
	}
	return float32((db - minDecibels) / (maxDecibels - minDecibels))
}

// Levels runs Spectrum and reduces it to n equal-width bands, each the
// loudest bin in its range.
func (a *Analyzer) Levels(n int) []float32 {
	if n <= 0 {
		return nil
	}
	return reduceBands(a.Spectrum(), n)
}

func reduceBands(spectrum []float32, n int) []float32 {
	levels := make([]float32, n)
	for b := range levels {
		lo := b * len(spectrum) / n
		hi := (b + 1) * len(spectrum) / n
		for _, v := range spectrum[lo:hi] {
			if v > levels[b] {
				levels[b] = v
			}
		}
	}
	return levels
}

// blackmanWindow generates a Blackman window.
func blackmanWindow(size int) []float64 {
	window := make([]float64, size)
	a0 := 0.42
	a1 := 0.5
	a2 := 0.08
	invSize := 1.0 / float64(size-1)
	for i := range window {
		t := float64(i) * invSize
		window[i] = a0 - (a1 * math.Cos(2*math.Pi*t)) + (a2 * math.Cos(4*math.Pi*t))
	}
	return window
}
