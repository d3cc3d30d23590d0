package midi

import (
	"fmt"
	"sort"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // registers the rtmidi driver
)

// Callback receives every normalized message arriving on a watched port.
type Callback func(Message)

// Registry tracks the input ports currently known to the midi subsystem,
// physical and virtual. Virtual ports are created on demand and live until
// Close; physical ports are only enumerated here, opening happens in Listen.
type Registry struct {
	mu       sync.Mutex
	known    []string
	virtuals map[string]drivers.In
}

func NewRegistry() *Registry {
	return &Registry{
		virtuals: make(map[string]drivers.In),
	}
}

// Refresh re-enumerates physical input ports. Meant to be called from a
// device-change notification or a discovery ticker; it does not open
// anything.
func (r *Registry) Refresh() {
	ins := gomidi.GetInPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	sort.Strings(names)

	r.mu.Lock()
	r.known = names
	r.mu.Unlock()
}

// Known returns the current device names, physical first, then virtual ones
// carrying the virtual prefix.
func (r *Registry) Known() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.known)+len(r.virtuals))
	names = append(names, r.known...)
	for name := range r.virtuals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenVirtual creates a virtual input port. The port is registered under the
// prefixed name that bindings and dispatch use.
func (r *Registry) OpenVirtual(name string) error {
	d := drivers.Get()
	rtmidid, ok := d.(*rtmididrv.Driver)
	if !ok {
		return fmt.Errorf("virtual ports unsupported by driver %T", d)
	}

	prefixed := VirtualPrefix + name

	r.mu.Lock()
	_, exists := r.virtuals[prefixed]
	r.mu.Unlock()
	if exists {
		return nil
	}

	in, err := rtmidid.OpenVirtualIn(name)
	if err != nil {
		return fmt.Errorf("failed to open virtual input %q: %w", name, err)
	}

	r.mu.Lock()
	r.virtuals[prefixed] = in
	r.mu.Unlock()
	return nil
}

// Listen opens the named port and attaches the callback, returning a stop
// function. The name decides whether a physical or virtual port is meant.
func (r *Registry) Listen(name string, cb Callback) (func(), error) {
	r.mu.Lock()
	in, virtual := r.virtuals[name]
	r.mu.Unlock()

	if !virtual {
		for _, p := range gomidi.GetInPorts() {
			if p.String() == name {
				in = p
				break
			}
		}
		if in == nil {
			return nil, fmt.Errorf("input port not found: %s", name)
		}
	}

	merger := NewMerger()
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		m, ok := Decode(msg, timestampms)
		if !ok {
			return
		}
		m.Device = name
		m.Virtual = virtual
		cb(merger.Feed(m))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %q: %w", name, err)
	}
	return stop, nil
}

// Close releases all virtual ports and the underlying driver.
func (r *Registry) Close() {
	r.mu.Lock()
	for name, in := range r.virtuals {
		_ = in.Close()
		delete(r.virtuals, name)
	}
	r.mu.Unlock()
	gomidi.CloseDriver()
}
