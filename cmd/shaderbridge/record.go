package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"

	"github.com/richinsley/goshaderbridge/encoder"
	"github.com/richinsley/goshaderbridge/gl41"
	"github.com/richinsley/goshaderbridge/graphics"
	"github.com/richinsley/goshaderbridge/textures"
)

// runRecord renders -duration seconds at fixed time steps into an
// offscreen target and encodes every frame.
func runRecord(ctx context.Context, h *host, gctx graphics.Context) error {
	o := h.opts
	width, height := *o.Width, *o.Height

	target, err := gl41.NewTarget(width, height)
	if err != nil {
		return err
	}
	defer target.Destroy()

	enc := encoder.New(encoder.Options{
		Width:      width,
		Height:     height,
		FPS:        *o.FPS,
		Codec:      *o.Codec,
		OutputFile: *o.Record,
		FFmpegPath: *o.FFMPEGPath,
		HWAccel:    *o.HWAccel,
	})
	if err := enc.Start(); err != nil {
		return err
	}

	totalFrames := int(*o.Duration * float64(*o.FPS))
	pixels := make([]byte, width*height*4)
	snapshotDone := *o.Snapshot == ""

	for i := 0; i < totalFrames; i++ {
		if ctx.Err() != nil {
			log.Printf("Interrupted after %d frames", i)
			break
		}
		target.Bind()
		h.frame(float64(i)/float64(*o.FPS), width, height)
		if err := target.ReadRGBA(pixels); err != nil {
			target.Unbind()
			enc.Close()
			return err
		}
		if !snapshotDone && h.r.ShaderReady() {
			img, err := textures.FromBottomUp(pixels, width, height)
			if err == nil {
				err = writeSnapshot(*o.Snapshot, img)
			}
			if err != nil {
				log.Printf("Error writing snapshot: %v", err)
			}
			snapshotDone = true
		}
		target.Unbind()

		if err := enc.WriteFrame(pixels); err != nil {
			enc.Close()
			return err
		}
		gctx.EndFrame()

		if (i+1)%(*o.FPS) == 0 {
			log.Printf("Rendered %d/%d frames", i+1, totalFrames)
		}
	}
	if err := enc.Close(); err != nil {
		return err
	}
	log.Printf("Encoded %d frames", enc.Frames())
	return nil
}

// writeSnapshot saves img as a PNG.
func writeSnapshot(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	log.Printf("Wrote snapshot %s", path)
	return f.Close()
}
