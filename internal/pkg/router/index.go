package router

import (
	"sort"

	"midideck/internal/pkg/midi"
)

// Key addresses one slot of the compiled action index. Controller is -1 for
// pitch wheel bindings, which have no controller dimension.
type Key struct {
	App        string
	Bank       string
	Device     string
	Channel    uint8
	Command    midi.CommandType
	Controller int
}

// entry holds the bindings sharing one key: an optional valueless fallback
// plus optional value-discriminated bindings for stepped controls.
type entry struct {
	direct  *Compiled
	byValue map[int]*Compiled
}

// Index is the compiled action index: a read-only flat lookup table built
// wholesale from the preference documents and swapped in atomically. It is
// never mutated after publication.
type Index struct {
	entries map[Key]*entry
	apps    map[string]bool
	ignored map[string]bool
	devices map[string]bool
}

func newIndex() *Index {
	return &Index{
		entries: make(map[Key]*entry),
		apps:    make(map[string]bool),
		ignored: make(map[string]bool),
		devices: make(map[string]bool),
	}
}

func (ix *Index) add(key Key, value *int, compiled *Compiled) {
	e, ok := ix.entries[key]
	if !ok {
		e = &entry{}
		ix.entries[key] = e
	}
	if value == nil {
		e.direct = compiled
	} else {
		if e.byValue == nil {
			e.byValue = make(map[int]*Compiled)
		}
		e.byValue[*value] = compiled
	}
	ix.apps[key.App] = true
	ix.devices[key.Device] = true
}

// Lookup resolves a key and controller value against the index: a
// value-specific binding wins, the valueless fallback covers the rest, and
// no entry at all means the event is simply not bound.
func (ix *Index) Lookup(key Key, value int) (*Compiled, bool) {
	e, ok := ix.entries[key]
	if !ok {
		return nil, false
	}
	if c, ok := e.byValue[value]; ok {
		return c, true
	}
	if e.direct != nil {
		return e.direct, true
	}
	return nil, false
}

// HasApplication reports whether any binding was compiled for the
// application, ignored applications excluded.
func (ix *Index) HasApplication(app string) bool {
	return ix.apps[app] && !ix.ignored[app]
}

// Ignored reports the application's ignore flag.
func (ix *Index) Ignored(app string) bool {
	return ix.ignored[app]
}

// Devices returns the device names referenced by at least one binding.
func (ix *Index) Devices() []string {
	names := make([]string, 0, len(ix.devices))
	for name := range ix.devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
