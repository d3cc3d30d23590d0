package router

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"midideck/internal/pkg/actions"
	"midideck/internal/pkg/logger"
	"midideck/internal/pkg/midi"
	"midideck/internal/pkg/prefs"
)

var log = logger.GetLogger()

const (
	controlsDoc  = "controls"
	loupedeckDoc = "loupedeck"
)

// Config carries the tunables the router cannot decide for itself.
type Config struct {
	// MaxBanks bounds bank selection per application, default 9.
	MaxBanks int
	// QueueSize is the deferred-dispatch buffer capacity, default 64.
	QueueSize int
	// LoupedeckEnabled keeps a watcher on the Loupedeck+ even when no
	// binding references it, so the Fn modifier and knob aliases work.
	LoupedeckEnabled bool
	// Frontmost reports the bundle ID of the frontmost application.
	Frontmost func() string
	// Notify displays a user-facing notification, bank changes mostly.
	Notify func(title, message string)
}

// Router ties the preference store, the compiled index, the dispatcher and
// the device lifecycle together. One instance per process.
type Router struct {
	store      *prefs.Store
	ports      *midi.Registry
	actions    *actions.Registry
	controls   *Controls
	banks      *Banks
	resolver   *Resolver
	dispatcher *Dispatcher
	lifecycle  *Lifecycle
	loupedeck  bool
}

func New(store *prefs.Store, ports *midi.Registry, registry *actions.Registry, cfg Config) *Router {
	if cfg.MaxBanks <= 0 {
		cfg.MaxBanks = 9
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Frontmost == nil {
		cfg.Frontmost = func() string { return "" }
	}

	r := &Router{
		store:     store,
		ports:     ports,
		actions:   registry,
		controls:  NewControls(),
		banks:     NewBanks(store, cfg.MaxBanks, cfg.Notify),
		loupedeck: cfg.LoupedeckEnabled,
	}
	r.resolver = NewResolver(r.banks, cfg.Frontmost)
	r.dispatcher = NewDispatcher(r.resolver, registry, r.controls, cfg.QueueSize)

	var extra []string
	if cfg.LoupedeckEnabled {
		extra = append(extra, LoupedeckDevice)
	}
	r.lifecycle = NewLifecycle(ports, r.dispatcher.Dispatch, extra...)

	// built-in virtual controls, addressed by bindings with the virtual
	// handler marker
	frontmost := cfg.Frontmost
	r.controls.Register("nextBank", func(midi.Message) {
		_ = r.banks.Next(r.contextApp(frontmost()))
	})
	r.controls.Register("previousBank", func(midi.Message) {
		_ = r.banks.Previous(r.contextApp(frontmost()))
	})

	return r
}

// contextApp maps a raw frontmost bundle ID onto the application bank
// selection applies to, mirroring dispatch-time resolution.
func (r *Router) contextApp(app string) string {
	if app == "" || !r.dispatcher.Index().HasApplication(app) {
		return AllApplications
	}
	return app
}

// Controls exposes the virtual-control registry for additional in-process
// controls.
func (r *Router) Controls() *Controls {
	return r.controls
}

// Banks exposes the bank selection, for command surfaces outside midi.
func (r *Router) Banks() *Banks {
	return r.banks
}

// SetLearning pauses or resumes routing while bindings are being captured.
func (r *Router) SetLearning(on bool) {
	r.dispatcher.SetLearning(on)
}

// Compile rebuilds the action index from the preference documents, publishes
// it and reconciles the watched-device set against it.
func (r *Router) Compile() error {
	var controls, loupedeck BindingTree
	if err := r.store.Unmarshal(controlsDoc, &controls); err != nil {
		return fmt.Errorf("controls document unreadable: %w", err)
	}
	if err := r.store.Unmarshal(loupedeckDoc, &loupedeck); err != nil {
		return fmt.Errorf("loupedeck document unreadable: %w", err)
	}

	ix := Compile(controls, loupedeck)
	r.dispatcher.Swap(ix)

	// reconcile against the last known port enumeration; hardware is only
	// re-enumerated by DevicesChanged and the discovery ticker
	r.lifecycle.Update(ix.Devices())

	log.Info(fmt.Sprintf("action index compiled, %d devices referenced", len(ix.Devices())), logger.Debug)
	return nil
}

// DevicesChanged re-enumerates ports and reconciles watchers against the
// current index. Called from hotplug notifications or a discovery ticker.
func (r *Router) DevicesChanged() {
	r.ports.Refresh()
	r.lifecycle.Update(r.dispatcher.Index().Devices())
}

// Run consumes preference-change notifications until the context ends,
// recompiling whenever a binding document is rewritten by another process.
func (r *Router) Run(ctx context.Context) {
	for doc := range r.store.DetectChanges(ctx) {
		switch doc {
		case controlsDoc, loupedeckDoc:
			if err := r.Compile(); err != nil {
				log.Info(fmt.Sprintf("recompilation failed: %v", err), logger.Error)
			}
		}
	}
}

// GetBinding reads one field of a stored binding. An empty field returns the
// whole binding object. Application IDs contain dots, so the path is walked
// segment by segment rather than parsed.
func (r *Router) GetBinding(app, bank, button, field string) (interface{}, bool) {
	raw, _ := r.store.Get(controlsDoc, "")
	doc, ok := raw.(map[string]interface{})
	if !ok {
		return nil, false
	}

	banks, ok := doc[app].(map[string]interface{})
	if !ok {
		return nil, false
	}
	bankMap, ok := banks["banks"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	buttons, ok := bankMap[bank].(map[string]interface{})
	if !ok {
		return nil, false
	}
	binding, ok := buttons[button]
	if !ok {
		return nil, false
	}
	if field == "" {
		return binding, true
	}
	fields, ok := binding.(map[string]interface{})
	if !ok {
		return nil, false
	}
	value, ok := fields[field]
	return value, ok
}

// SetBinding writes one field of a binding, creating the surrounding
// structure as needed, and recompiles. An empty button ID allocates a fresh
// one; the ID actually written is returned. A nil value deletes the field,
// and a field left empty deletes the whole binding.
func (r *Router) SetBinding(app, bank, button, field string, value interface{}) (string, error) {
	if button == "" {
		button = uuid.NewString()
	}

	raw, _ := r.store.Get(controlsDoc, "")
	doc, ok := raw.(map[string]interface{})
	if !ok {
		doc = make(map[string]interface{})
	}

	buttons := ensureMap(ensureMap(ensureMap(doc, app), "banks"), bank)
	switch {
	case field == "":
		delete(buttons, button)
	case value == nil:
		if fields, ok := buttons[button].(map[string]interface{}); ok {
			delete(fields, field)
		}
	default:
		binding, ok := buttons[button].(map[string]interface{})
		if !ok {
			binding = make(map[string]interface{})
			buttons[button] = binding
		}
		binding[field] = value
	}

	if err := r.store.SetDocument(controlsDoc, doc); err != nil {
		return "", err
	}
	if err := r.Compile(); err != nil {
		return "", err
	}
	return button, nil
}

// Stop closes watchers and the deferred queue. The port registry itself is
// owned by the caller.
func (r *Router) Stop() {
	r.lifecycle.Stop()
	r.dispatcher.Close()
}
