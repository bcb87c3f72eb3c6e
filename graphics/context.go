package graphics

// Context is an OpenGL 4.1 core context the host renders into, either a
// window or an offscreen surface.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	// EndFrame presents the frame and processes pending events.
	EndFrame()
	GetFramebufferSize() (int, int)
	// Time is seconds since the context was created.
	Time() float64
}
