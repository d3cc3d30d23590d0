package actions

import (
	"fmt"
	"sync"
)

// Payload is the opaque action payload carried by a binding: either a
// structured parameter object (decoded JSON) or a free-form identifier
// string.
type Payload interface{}

// Handler executes one class of actions. Handlers are registered under a
// handler ID that bindings reference.
type Handler interface {
	Execute(payload Payload) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(payload Payload) error

func (f HandlerFunc) Execute(payload Payload) error {
	return f(payload)
}

// Registry maps handler IDs to handlers.
type Registry struct {
	mu       sync.Mutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

func (r *Registry) Register(id string, h Handler) {
	r.mu.Lock()
	r.handlers[id] = h
	r.mu.Unlock()
}

func (r *Registry) GetHandler(id string) (Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handlers[id]
	return h, ok
}

// Execute resolves a handler and runs the payload through it.
func (r *Registry) Execute(id string, payload Payload) error {
	h, ok := r.GetHandler(id)
	if !ok {
		return fmt.Errorf("unknown handler: %s", id)
	}
	return h.Execute(payload)
}

// code extracts the executable snippet from a payload, accepting both the
// free-form string and the structured {"code": ...} object forms.
func code(payload Payload) (string, error) {
	switch p := payload.(type) {
	case string:
		return p, nil
	case map[string]interface{}:
		if c, ok := p["code"].(string); ok {
			return c, nil
		}
		return "", fmt.Errorf("payload object has no \"code\" field")
	default:
		return "", fmt.Errorf("unsupported payload type %T", payload)
	}
}
