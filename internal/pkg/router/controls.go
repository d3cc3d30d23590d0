package router

import (
	"sync"

	"midideck/internal/pkg/midi"
)

// ControlFunc is the function backing a virtual control. It receives the raw
// message metadata, device name included.
type ControlFunc func(m midi.Message)

// Controls is the registry of in-process virtual controls, addressable by
// identifier from bindings carrying the virtual handler marker.
type Controls struct {
	mu       sync.Mutex
	controls map[string]ControlFunc
}

func NewControls() *Controls {
	return &Controls{
		controls: make(map[string]ControlFunc),
	}
}

func (c *Controls) Register(id string, fn ControlFunc) {
	c.mu.Lock()
	c.controls[id] = fn
	c.mu.Unlock()
}

func (c *Controls) Get(id string) (ControlFunc, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn, ok := c.controls[id]
	return fn, ok
}
