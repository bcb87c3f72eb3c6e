package diag

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestSinkDropsWithoutReceiver(t *testing.T) {
	var s Sink
	// Must not panic.
	s.Emit("lost")
}

func TestSinkDeliversInOrder(t *testing.T) {
	var s Sink
	var got []string
	s.Register(func(msg string) { got = append(got, msg) })

	s.Emit("first")
	s.Emit("second 2")

	want := []string{"first", "second 2"}
	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSinkRegisterReplaces(t *testing.T) {
	var s Sink
	var a, b []string
	s.Register(func(msg string) { a = append(a, msg) })
	s.Emit("one")
	s.Register(func(msg string) { b = append(b, msg) })
	s.Emit("two")

	if len(a) != 1 || a[0] != "one" {
		t.Errorf("first receiver got %v, want [one]", a)
	}
	if len(b) != 1 || b[0] != "two" {
		t.Errorf("second receiver got %v, want [two]", b)
	}
}

func TestSinkRegisterNilUnregisters(t *testing.T) {
	var s Sink
	calls := 0
	s.Register(func(string) { calls++ })
	s.Register(nil)
	s.Emit("dropped")
	if calls != 0 {
		t.Errorf("receiver called %d times after unregistering", calls)
	}
}

func TestSinkConcurrentRegister(t *testing.T) {
	var s Sink
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Register(func(string) {})
		}()
		go func() {
			defer wg.Done()
			s.Emit("x")
		}()
	}
	wg.Wait()
}

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger should be disabled")
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	Logger().Info("hello", "key", "value")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("log output %q does not contain message", buf.String())
	}

	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should restore the silent logger")
	}
}
