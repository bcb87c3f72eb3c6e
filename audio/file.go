package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"

	"github.com/richinsley/goshaderbridge/diag"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// chunkSamples is how many samples FileDevice sends per chunk.
const chunkSamples = 1024

// FileDevice decodes an audio file with ffmpeg at playback speed and
// delivers it as mono float samples.
type FileDevice struct {
	path       string
	rate       int
	ffmpegPath string
	loop       bool

	cmd       *exec.Cmd
	audioChan chan []float32
}

// NewFileDevice returns a device for path. An empty ffmpegPath uses the
// ffmpeg found in PATH. With loop set the file restarts when it ends.
func NewFileDevice(path string, sampleRate int, ffmpegPath string, loop bool) *FileDevice {
	return &FileDevice{path: path, rate: sampleRate, ffmpegPath: ffmpegPath, loop: loop}
}

func (d *FileDevice) inputArgs() ffmpeg.KwArgs {
	// -re paces decoding at the native rate so the levels follow playback.
	args := ffmpeg.KwArgs{"re": ""}
	if d.loop {
		args["stream_loop"] = "-1"
	}
	return args
}

func (d *FileDevice) outputArgs() ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"f":      "f32le",
		"acodec": "pcm_f32le",
		"ac":     1,
		"ar":     d.rate,
		"vn":     "",
	}
}

func (d *FileDevice) Start() (<-chan []float32, error) {
	pipeReader, pipeWriter := io.Pipe()
	stream := ffmpeg.Input(d.path, d.inputArgs()).
		Output("pipe:", d.outputArgs()).
		WithOutput(pipeWriter)
	if d.ffmpegPath != "" {
		stream = stream.SetFfmpegPath(d.ffmpegPath)
	}

	cmd := stream.Compile()
	if err := cmd.Start(); err != nil {
		pipeWriter.Close()
		return nil, fmt.Errorf("failed to start ffmpeg audio decoder: %w", err)
	}
	d.cmd = cmd
	go func() {
		pipeWriter.CloseWithError(cmd.Wait())
	}()

	d.audioChan = make(chan []float32, 16)
	go d.readSamples(pipeReader)
	diag.Logger().Info("audio file decoder started", "path", d.path, "rate", d.rate)
	return d.audioChan, nil
}

func (d *FileDevice) readSamples(r io.ReadCloser) {
	defer close(d.audioChan)
	defer r.Close()

	br := bufio.NewReader(r)
	buf := make([]byte, chunkSamples*4)
	for {
		n, err := io.ReadFull(br, buf)
		if n >= 4 {
			select {
			case d.audioChan <- decodeFloat32LE(buf[:n-n%4]):
			default:
				diag.Logger().Debug("audio channel full, dropping chunk")
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				diag.Logger().Warn("audio file decoder stopped", "error", err)
			}
			return
		}
	}
}

// decodeFloat32LE converts packed little-endian float32 samples.
func decodeFloat32LE(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// Stop kills the decoder. The sample channel closes once buffered data has
// been read.
func (d *FileDevice) Stop() error {
	if d.cmd == nil || d.cmd.Process == nil {
		return nil
	}
	err := d.cmd.Process.Kill()
	d.cmd = nil
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func (d *FileDevice) SampleRate() int { return d.rate }
