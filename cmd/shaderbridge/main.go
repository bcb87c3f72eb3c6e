package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/goshaderbridge/diag"
	"github.com/richinsley/goshaderbridge/gl41"
	"github.com/richinsley/goshaderbridge/glfwcontext"
	"github.com/richinsley/goshaderbridge/graphics"
	"github.com/richinsley/goshaderbridge/headless"
	"github.com/richinsley/goshaderbridge/options"
	"github.com/richinsley/goshaderbridge/renderer"
)

func init() {
	runtime.LockOSThread()
}

// newContext creates the GL context the renderer draws into. Recording
// uses a hidden window unless -headless asks for EGL.
func newContext(o *options.ShaderOptions, visible bool) (graphics.Context, func(), error) {
	if *o.Headless {
		ctx, err := headless.NewHeadless(*o.Width, *o.Height)
		if err != nil {
			return nil, nil, err
		}
		return ctx, func() {}, nil
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	win, err := glfwcontext.New(*o.Width, *o.Height, visible, "shaderbridge")
	if err != nil {
		glfwcontext.TerminateGraphics()
		return nil, nil, fmt.Errorf("failed to create window: %w", err)
	}
	return win, glfwcontext.TerminateGraphics, nil
}

// runInteractive renders into the window until it is closed.
func runInteractive(ctx context.Context, h *host, gctx graphics.Context) {
	if win, ok := gctx.(*glfwcontext.Context); ok {
		win.RegisterKeyCallback(glfw.KeyR, func() {
			log.Println("Recompiling shader")
			h.r.Dispatch(renderer.CommandCompileShaders)
		})
	}

	snapshotDone := *h.opts.Snapshot == ""
	for !gctx.ShouldClose() {
		if ctx.Err() != nil {
			return
		}
		width, height := gctx.GetFramebufferSize()
		h.frame(gctx.Time(), width, height)

		if !snapshotDone && h.r.ShaderReady() {
			img, err := gl41.ReadImage(width, height)
			if err == nil {
				err = writeSnapshot(*h.opts.Snapshot, img)
			}
			if err != nil {
				log.Printf("Error writing snapshot: %v", err)
			}
			snapshotDone = true
		}
		gctx.EndFrame()
	}
}

func main() {
	fs := flag.CommandLine
	opts := options.Register(fs)
	flag.Parse()

	if *opts.Help {
		fmt.Println("Shader Bridge Host")
		flag.PrintDefaults()
		return
	}

	if *opts.Session != "" {
		session, err := options.LoadSession(*opts.Session)
		if err != nil {
			log.Fatalf("Error loading session: %v", err)
		}
		options.Merge(opts, session, options.Explicit(fs))
	}
	if err := opts.Validate(); err != nil {
		log.Fatalf("Invalid options: %v", err)
	}
	if *opts.Verbose {
		diag.SetLogger(slog.Default())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recording := *opts.Record != ""
	gctx, terminate, err := newContext(opts, !recording)
	if err != nil {
		log.Fatalf("Failed to create GL context: %v", err)
	}
	defer terminate()
	defer gctx.Shutdown()
	gctx.MakeCurrent()

	h := newHost(opts)
	h.start(ctx)
	defer h.close()

	if recording {
		log.Println("Starting offscreen render loop...")
		if err := runRecord(ctx, h, gctx); err != nil {
			log.Printf("Offscreen rendering failed: %v", err)
			return
		}
		log.Printf("Successfully rendered to %s", *opts.Record)
		return
	}

	log.Println("Starting interactive render loop...")
	runInteractive(ctx, h, gctx)
}
