package control

// Pinned wraps a Target for the host's frame loop. Time and resolution set
// through it by commands stay in effect: Frame stops applying the host
// clock or framebuffer size once either has been set remotely, until
// Release hands them back.
type Pinned struct {
	Target
	time       bool
	resolution bool
}

func NewPinned(t Target) *Pinned { return &Pinned{Target: t} }

func (p *Pinned) SetTime(t float32) {
	p.time = true
	p.Target.SetTime(t)
}

func (p *Pinned) SetResolution(width, height int) {
	p.resolution = true
	p.Target.SetResolution(width, height)
}

// Frame applies the host's clock and framebuffer size, skipping whichever
// a command has pinned.
func (p *Pinned) Frame(t float32, width, height int) {
	if !p.resolution {
		p.Target.SetResolution(width, height)
	}
	if !p.time {
		p.Target.SetTime(t)
	}
}

// Release drops both pins.
func (p *Pinned) Release() {
	p.time = false
	p.resolution = false
}

// Pins reports which inputs commands currently hold.
func (p *Pinned) Pins() (time, resolution bool) { return p.time, p.resolution }

// releaser is implemented by targets that can drop remote pins.
type releaser interface {
	Release()
}
