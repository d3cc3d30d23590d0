package router

import (
	"midideck/internal/pkg/midi"
)

// Resolver determines the (application, bank) context for each incoming
// message. The transient Fn-modifier state of the Loupedeck+ lives here, not
// in a package global, so the resolver stays testable in isolation.
type Resolver struct {
	banks     *Banks
	frontmost func() string
	fnPressed bool
}

func NewResolver(banks *Banks, frontmost func() string) *Resolver {
	return &Resolver{banks: banks, frontmost: frontmost}
}

// ObserveModifier tracks the Loupedeck+ Fn key. Note-on sets the modifier,
// note-off (or a zero-velocity note-on) clears it. Called on every message
// before resolution; messages from other devices are left alone.
func (r *Resolver) ObserveModifier(m midi.Message) {
	if m.Device != LoupedeckDevice || m.Note != LoupedeckFnNote {
		return
	}
	switch m.Command {
	case midi.NoteOn:
		r.fnPressed = m.Value > 0
	case midi.NoteOff:
		r.fnPressed = false
	}
}

// Resolve picks the application and bank the lookup should run against:
// the frontmost application when it has bindings and is not ignored, the
// all-applications set otherwise; the application's active bank, with the
// Fn suffix appended while the Loupedeck+ modifier is held.
func (r *Resolver) Resolve(ix *Index, m midi.Message) (app, bank string) {
	app = r.frontmost()
	if app == "" || !ix.HasApplication(app) {
		app = AllApplications
	}

	bank = r.banks.Active(app)
	if r.fnPressed && m.Device == LoupedeckDevice {
		bank += fnBankSuffix
	}
	return app, bank
}
