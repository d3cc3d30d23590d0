package router

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"midideck/internal/pkg/actions"
	"midideck/internal/pkg/logger"
	"midideck/internal/pkg/midi"
)

// Dispatcher is the per-message callback attached to every watched device.
// It resolves the application/bank context, looks the message up in the
// compiled index and hands the bound action to the deferred queue.
type Dispatcher struct {
	index    atomic.Pointer[Index]
	resolver *Resolver
	registry *actions.Registry
	controls *Controls
	queue    *taskQueue
	learning atomic.Bool
}

func NewDispatcher(resolver *Resolver, registry *actions.Registry, controls *Controls, queueSize int) *Dispatcher {
	d := &Dispatcher{
		resolver: resolver,
		registry: registry,
		controls: controls,
		queue:    newTaskQueue(queueSize),
	}
	d.index.Store(newIndex())
	return d
}

// Swap publishes a freshly compiled index. Lookups in flight keep using the
// old one; nothing is ever mutated in place.
func (d *Dispatcher) Swap(ix *Index) {
	d.index.Store(ix)
}

func (d *Dispatcher) Index() *Index {
	return d.index.Load()
}

// SetLearning pauses routing while interactive binding capture is running
// elsewhere; messages are dropped entirely.
func (d *Dispatcher) SetLearning(on bool) {
	d.learning.Store(on)
}

// Dispatch routes one incoming message. Unresolvable messages are not an
// error, they are simply not bound.
func (d *Dispatcher) Dispatch(m midi.Message) {
	if d.learning.Load() {
		return
	}

	d.resolver.ObserveModifier(m)

	ix := d.index.Load()
	app, bank := d.resolver.Resolve(ix, m)

	// normalize: note and controller share one address space, virtual
	// sources are prefixed, merged pairs use the 14-bit value
	device := m.Device
	if m.Virtual && !strings.HasPrefix(device, midi.VirtualPrefix) {
		device = midi.VirtualPrefix + device
	}
	m.Device = device

	controller := m.Controller
	if controller < 0 {
		controller = m.Note
	}
	if m.Command == midi.PitchWheelChange {
		controller = -1
	}

	value := m.Value
	if m.FourteenBit {
		value = m.FourteenBitValue
	}

	key := Key{
		App:        app,
		Bank:       bank,
		Device:     device,
		Channel:    m.Channel,
		Command:    m.Command,
		Controller: controller,
	}

	compiled, ok := ix.Lookup(key, value)
	if !ok {
		log.Info(m.String(), zap.String("device_name", device), logger.Unbound)
		return
	}

	switch compiled.Kind {
	case KindVirtualControl:
		fn, ok := d.controls.Get(compiled.ControlID)
		if !ok {
			log.Info(
				fmt.Sprintf("virtual control not registered: %s", compiled.ControlID),
				zap.String("device_name", device), logger.Warning,
			)
			return
		}
		msg := m
		d.queue.submit(func() { fn(msg) })
		log.Info(m.String(), zap.String("device_name", device),
			zap.String("control", compiled.ControlID), logger.Event)

	case KindRegistryAction:
		if !executable(m) {
			return
		}
		handlerID, payload := compiled.HandlerID, compiled.Payload
		d.queue.submit(func() {
			if err := d.registry.Execute(handlerID, payload); err != nil {
				log.Info(
					fmt.Sprintf("handler %s failed: %v", handlerID, err),
					zap.String("device_name", device), logger.Error,
				)
			}
		})
		log.Info(m.String(), zap.String("device_name", device),
			zap.String("handler_name", handlerID), logger.Event)
	}
}

// executable reports whether a message should reach the action-handler
// registry: continuous commands always do, note-on only with non-zero
// velocity. A zero-velocity note-on is a note-off artifact.
func executable(m midi.Message) bool {
	switch m.Command {
	case midi.PitchWheelChange, midi.ControlChange:
		return true
	case midi.NoteOn:
		return m.Value > 0
	default:
		return false
	}
}

// Flush blocks until all deferred dispatches submitted so far have run.
func (d *Dispatcher) Flush() {
	d.queue.flush()
}

// Close stops the deferred queue consumer.
func (d *Dispatcher) Close() {
	d.queue.close()
}
