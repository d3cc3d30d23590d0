package router

import (
	"midideck/internal/pkg/midi"
)

// Compile rebuilds the action index from the controls document and the
// secondary Loupedeck+ document. The result fully replaces any prior index;
// nothing is patched incrementally, so removed bindings cannot linger.
//
// Compilation is deterministic: each (key, value) slot is written by at most
// one well-formed binding, so map iteration order cannot change resolution.
// Two bindings on the same tuple are a configuration error and resolve
// last-write-wins.
func Compile(controls, loupedeck BindingTree) *Index {
	ix := newIndex()

	for app, appBindings := range controls {
		if appBindings.Ignore {
			ix.ignored[app] = true
		}
		for bank, buttons := range appBindings.Banks {
			for _, binding := range buttons {
				key, value, compiled, ok := binding.compile(app, bank)
				if !ok {
					continue
				}
				ix.add(key, value, compiled)
			}
		}
	}

	for app, appBindings := range loupedeck {
		if appBindings.Ignore {
			ix.ignored[app] = true
		}
		for bank, buttons := range appBindings.Banks {
			for _, binding := range buttons {
				if binding.Device == "" {
					binding.Device = LoupedeckDevice
				}
				key, value, compiled, ok := binding.compile(app, bank)
				if !ok {
					continue
				}

				aliases := []int{key.Controller}
				if key.Device == LoupedeckDevice && key.Command == midi.ControlChange {
					if fanned := knobAliases(key.Controller); fanned != nil {
						aliases = fanned
					}
				}
				for _, controller := range aliases {
					aliased := key
					aliased.Controller = controller
					ix.add(aliased, value, compiled)
				}
			}
		}
	}

	return ix
}
