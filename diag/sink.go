// Package diag carries human-readable status text from the renderer to its
// host, and the slog logger shared by the other packages.
package diag

import "sync/atomic"

// Receiver gets one status or error message per call.
type Receiver func(msg string)

// Sink delivers messages to at most one registered Receiver.
// Messages emitted while nothing is registered are dropped, never buffered.
//
// Register may be called from any goroutine; Emit runs the receiver
// synchronously on the caller's goroutine.
type Sink struct {
	recv atomic.Pointer[Receiver]
}

// Register replaces the active receiver. Passing nil unregisters it.
func (s *Sink) Register(r Receiver) {
	if r == nil {
		s.recv.Store(nil)
		return
	}
	s.recv.Store(&r)
}

// Emit sends msg to the receiver, if any.
func (s *Sink) Emit(msg string) {
	if r := s.recv.Load(); r != nil {
		(*r)(msg)
	}
}
