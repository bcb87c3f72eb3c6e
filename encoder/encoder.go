// Package encoder pipes rendered RGBA frames into an ffmpeg process.
package encoder

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/richinsley/goshaderbridge/diag"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Options configures an encoding session.
type Options struct {
	Width      int
	Height     int
	FPS        int
	Codec      string // "h264" or "hevc"
	Bitrate    string
	OutputFile string
	FFmpegPath string
	// HWAccel selects the platform's hardware encoder when one is known.
	HWAccel bool
	// Stream writes MPEG-TS, for piping to a network sink.
	Stream bool
}

// Encoder accepts bottom-up RGBA frames, as read back from GL, and writes
// them to Options.OutputFile.
type Encoder struct {
	opts Options

	pipeWriter *io.PipeWriter
	errc       chan error
	frameSize  int
	frames     int64
	closeOnce  sync.Once
	closeErr   error
}

func New(opts Options) *Encoder {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.Codec == "" {
		opts.Codec = "h264"
	}
	if opts.Bitrate == "" {
		opts.Bitrate = "25M"
	}
	return &Encoder{opts: opts, frameSize: opts.Width * opts.Height * 4}
}

// videoCodec picks the ffmpeg encoder for codec on goos.
func videoCodec(goos, codec string, hw bool) string {
	hevc := codec == "hevc"
	if hw {
		switch goos {
		case "linux", "windows":
			if hevc {
				return "hevc_nvenc"
			}
			return "h264_nvenc"
		case "darwin":
			if hevc {
				return "hevc_videotoolbox"
			}
			return "h264_videotoolbox"
		}
	}
	if hevc {
		return "libx265"
	}
	return "libx264"
}

func (e *Encoder) inputArgs() ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", e.opts.Width, e.opts.Height),
		"r":       e.opts.FPS,
	}
}

func (e *Encoder) outputArgs() ffmpeg.KwArgs {
	codec := videoCodec(runtime.GOOS, e.opts.Codec, e.opts.HWAccel)
	outputArgs := ffmpeg.KwArgs{
		// GL rows arrive bottom first.
		"vf":      "vflip",
		"c:v":     codec,
		"pix_fmt": "yuv420p",
		"b:v":     e.opts.Bitrate,
	}
	if strings.HasSuffix(codec, "_nvenc") {
		outputArgs["preset"] = "p2"
	}
	if e.opts.Codec == "hevc" && strings.HasSuffix(e.opts.OutputFile, ".mp4") {
		outputArgs["tag:v"] = "hvc1"
	}
	if e.opts.Stream {
		outputArgs["f"] = "mpegts"
	}
	return outputArgs
}

// Start launches ffmpeg.
func (e *Encoder) Start() error {
	if e.opts.Width <= 0 || e.opts.Height <= 0 {
		return fmt.Errorf("invalid encoder size %dx%d", e.opts.Width, e.opts.Height)
	}
	if e.opts.OutputFile == "" {
		return fmt.Errorf("no output file")
	}

	pipeReader, pipeWriter := io.Pipe()
	ffmpegCmd := ffmpeg.Input("pipe:", e.inputArgs()).
		Output(e.opts.OutputFile, e.outputArgs()).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()
	if e.opts.FFmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(e.opts.FFmpegPath)
	}

	e.pipeWriter = pipeWriter
	e.errc = make(chan error, 1)
	go func() {
		err := ffmpegCmd.Run()
		// Unblock a writer if ffmpeg died early.
		pipeReader.CloseWithError(io.ErrClosedPipe)
		e.errc <- err
	}()
	diag.Logger().Info("encoder started", "output", e.opts.OutputFile,
		"size", fmt.Sprintf("%dx%d", e.opts.Width, e.opts.Height), "fps", e.opts.FPS)
	return nil
}

// WriteFrame sends one frame of Width*Height*4 bytes.
func (e *Encoder) WriteFrame(rgba []byte) error {
	if e.pipeWriter == nil {
		return fmt.Errorf("encoder not started")
	}
	if len(rgba) != e.frameSize {
		return fmt.Errorf("frame is %d bytes, want %d", len(rgba), e.frameSize)
	}
	if _, err := e.pipeWriter.Write(rgba); err != nil {
		return fmt.Errorf("failed to write frame %d to ffmpeg: %w", e.frames, err)
	}
	e.frames++
	return nil
}

// Frames reports how many frames were written.
func (e *Encoder) Frames() int64 { return e.frames }

// Close ends the stream and waits for ffmpeg to finish the file.
func (e *Encoder) Close() error {
	e.closeOnce.Do(func() {
		if e.pipeWriter == nil {
			return
		}
		e.pipeWriter.Close()
		if err := <-e.errc; err != nil {
			e.closeErr = fmt.Errorf("ffmpeg failed: %w", err)
			return
		}
		diag.Logger().Info("encoder finished", "output", e.opts.OutputFile, "frames", e.frames)
	})
	return e.closeErr
}
