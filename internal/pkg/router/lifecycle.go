package router

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"midideck/internal/pkg/logger"
	"midideck/internal/pkg/midi"
)

// Lifecycle opens watchers only for devices actually referenced by at least
// one binding, so unused hardware is never touched. Watchers are recomputed
// on Update; device-change notifications just refresh the known-port
// registry and take effect on the next Update.
type Lifecycle struct {
	registry *midi.Registry
	callback midi.Callback
	extra    []string

	mu   sync.Mutex
	open map[string]func()
}

// NewLifecycle builds a manager dispatching into callback. Extra names are
// watched whenever present, regardless of bindings (the Loupedeck+ when its
// support is enabled).
func NewLifecycle(registry *midi.Registry, callback midi.Callback, extra ...string) *Lifecycle {
	return &Lifecycle{
		registry: registry,
		callback: callback,
		extra:    extra,
		open:     make(map[string]func()),
	}
}

// Update reconciles open watchers against the referenced-device set: no
// longer referenced ones are closed, newly referenced known ones are opened.
// A device that fails to open stays unopened until the next Update.
func (l *Lifecycle) Update(referenced []string) {
	want := make(map[string]bool, len(referenced)+len(l.extra))
	for _, name := range referenced {
		want[name] = true
	}
	for _, name := range l.extra {
		want[name] = true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for name, stop := range l.open {
		if !want[name] {
			stop()
			delete(l.open, name)
			log.Info("Device released", zap.String("device_name", name), logger.Info)
		}
	}

	for _, name := range l.registry.Known() {
		if !want[name] || l.open[name] != nil {
			continue
		}
		stop, err := l.registry.Listen(name, l.callback)
		if err != nil {
			log.Info(fmt.Sprintf("failed to watch device: %v", err),
				zap.String("device_name", name), logger.Warning)
			continue
		}
		l.open[name] = stop
		log.Info("Device watched", zap.String("device_name", name), logger.Info)
	}
}

// Stop closes and releases every open watcher.
func (l *Lifecycle) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name, stop := range l.open {
		stop()
		delete(l.open, name)
	}
}

// Watched returns the names of currently watched devices.
func (l *Lifecycle) Watched() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.open))
	for name := range l.open {
		names = append(names, name)
	}
	return names
}
