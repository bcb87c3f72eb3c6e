package shader

import (
	"fmt"
	"os"
	"time"
)

// DefaultRefresh is how often a Watcher looks at the file's timestamp.
const DefaultRefresh = 2 * time.Second

// Watcher reloads a fragment shader file when its modification time
// changes. It is polled from the render loop, so it never blocks on
// anything but a stat and, on change, a read.
type Watcher struct {
	path      string
	interval  time.Duration
	lastCheck time.Time
	lastMod   time.Time
	now       func() time.Time
}

func NewWatcher(path string, interval time.Duration) *Watcher {
	if interval < 0 {
		interval = 0
	}
	return &Watcher{path: path, interval: interval, now: time.Now}
}

func (w *Watcher) Path() string { return w.path }

// Load reads the file unconditionally and remembers its timestamp.
func (w *Watcher) Load() (string, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return "", fmt.Errorf("failed to stat shader file: %w", err)
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		return "", fmt.Errorf("failed to read shader file: %w", err)
	}
	w.lastMod = info.ModTime()
	w.lastCheck = w.now()
	return string(data), nil
}

// Poll returns the new file contents and true when the refresh interval has
// elapsed, the timestamp moved and the file is not empty.
func (w *Watcher) Poll() (string, bool, error) {
	now := w.now()
	if now.Sub(w.lastCheck) < w.interval {
		return "", false, nil
	}
	w.lastCheck = now

	info, err := os.Stat(w.path)
	if err != nil {
		return "", false, fmt.Errorf("failed to stat shader file: %w", err)
	}
	if info.ModTime().Equal(w.lastMod) {
		return "", false, nil
	}
	w.lastMod = info.ModTime()

	data, err := os.ReadFile(w.path)
	if err != nil {
		return "", false, fmt.Errorf("failed to read shader file: %w", err)
	}
	if len(data) == 0 {
		return "", false, nil
	}
	return string(data), true, nil
}
