// Command libshaderbridge builds the renderer as a native plugin for
// engines that drive GL rendering through a render-event callback:
//
//	go build -buildmode=c-shared -o libshaderbridge.so ./cmd/libshaderbridge
//
// The host registers a log callback, fetches the event function with
// Execute and issues events 0 (init), 1 (compile) and 2 (render) on its
// render thread. Setters may be called from any thread.
package main

/*
#include <stdlib.h>
#include "bridge.h"
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/richinsley/goshaderbridge/gl41"
	"github.com/richinsley/goshaderbridge/renderer"
)

var (
	// mu serializes setters from the engine's main thread with events on
	// its render thread.
	mu     sync.Mutex
	bridge = renderer.New(gl41.Load)
)

// RegisterErrorLogCallback sets the receiver of diagnostics; NULL removes
// it. The callback runs with the library locked and must not call back in.
//
//export RegisterErrorLogCallback
func RegisterErrorLogCallback(fn C.DebugLogFunc) {
	if fn == nil {
		bridge.SetDiagnostics(nil)
		return
	}
	bridge.SetDiagnostics(func(msg string) {
		cmsg := C.CString(msg)
		defer C.free(unsafe.Pointer(cmsg))
		C.callLogCallback(fn, cmsg)
	})
}

//export Execute
func Execute() C.RenderEventFunc {
	return C.renderEventFunc()
}

//export OnRenderEvent
func OnRenderEvent(eventID C.int) {
	mu.Lock()
	defer mu.Unlock()
	bridge.Dispatch(renderer.Command(eventID))
}

// IssueEvent runs an event directly, for hosts without a render-event queue.
//
//export IssueEvent
func IssueEvent(eventID C.int) {
	OnRenderEvent(eventID)
}

//export SetFragmentShaderText
func SetFragmentShaderText(text *C.char) {
	src := C.GoString(text)
	mu.Lock()
	defer mu.Unlock()
	bridge.SetFragmentSource(src)
}

//export SetTime
func SetTime(t C.float) {
	mu.Lock()
	defer mu.Unlock()
	bridge.SetTime(float32(t))
}

//export SetInletVal
func SetInletVal(index C.int, value C.float) {
	mu.Lock()
	defer mu.Unlock()
	bridge.SetInlet(int(index), float32(value))
}

//export SetTexturePointer
func SetTexturePointer(index C.int, texture unsafe.Pointer, width, height C.float) {
	mu.Lock()
	defer mu.Unlock()
	// The pointer carries a GL texture name.
	bridge.SetTexture(int(index), uint32(uintptr(texture)), float32(width), float32(height))
}

//export SetResolution
func SetResolution(width, height C.int) {
	mu.Lock()
	defer mu.Unlock()
	bridge.SetResolution(int(width), int(height))
}

func main() {}
