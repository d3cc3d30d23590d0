package router

import (
	"strings"

	"midideck/internal/pkg/actions"
	"midideck/internal/pkg/midi"
)

// AllApplications is the sentinel application ID for bindings that apply
// whenever the frontmost application has no bindings of its own.
const AllApplications = "All Applications"

// VirtualSuffix on a handler ID marks a binding that invokes an in-process
// control instead of going through the action-handler registry.
const VirtualSuffix = "_virtual"

// Binding is one persisted control-to-action mapping, as stored under
// applicationID -> bankID -> buttonID in the controls document.
type Binding struct {
	Device      string           `json:"device,omitempty"`
	Channel     *int             `json:"channel,omitempty"`
	CommandType midi.CommandType `json:"commandType,omitempty"`
	Number      *int             `json:"number,omitempty"`
	Value       *int             `json:"value,omitempty"`
	HandlerID   string           `json:"handlerID,omitempty"`
	Action      actions.Payload  `json:"action,omitempty"`
}

// AppBindings groups the banks of one application. Ignore redirects the
// whole application to the all-applications set at resolution time.
type AppBindings struct {
	Ignore bool                          `json:"ignore,omitempty"`
	Banks  map[string]map[string]Binding `json:"banks,omitempty"`
}

// BindingTree is a whole controls document: applicationID -> banks.
type BindingTree map[string]AppBindings

// Kind tags what a compiled binding dispatches to.
type Kind int

const (
	KindRegistryAction Kind = iota
	KindVirtualControl
)

// Compiled is the dispatch-ready form of a binding: either a registry action
// (handler ID + payload) or a virtual control reference.
type Compiled struct {
	Kind      Kind
	HandlerID string
	Payload   actions.Payload
	ControlID string
}

// compile validates a binding and produces its index key and compiled form.
// Malformed bindings report ok=false and are skipped by the compiler.
func (b Binding) compile(app, bank string) (Key, *int, *Compiled, bool) {
	if b.Device == "" || !midi.SupportedCommandTypes[b.CommandType] {
		return Key{}, nil, nil, false
	}
	if b.Channel == nil || *b.Channel < 0 || *b.Channel > 15 {
		return Key{}, nil, nil, false
	}

	controller := -1
	if b.CommandType != midi.PitchWheelChange {
		if b.Number == nil || *b.Number < 0 || *b.Number > 127 {
			return Key{}, nil, nil, false
		}
		controller = *b.Number
	}

	key := Key{
		App:        app,
		Bank:       bank,
		Device:     b.Device,
		Channel:    uint8(*b.Channel),
		Command:    b.CommandType,
		Controller: controller,
	}

	var compiled Compiled
	if strings.HasSuffix(b.HandlerID, VirtualSuffix) {
		compiled = Compiled{Kind: KindVirtualControl, ControlID: b.controlID()}
		if compiled.ControlID == "" {
			return Key{}, nil, nil, false
		}
	} else {
		if b.HandlerID == "" {
			return Key{}, nil, nil, false
		}
		compiled = Compiled{
			Kind:      KindRegistryAction,
			HandlerID: b.HandlerID,
			Payload:   b.Action,
		}
	}

	return key, b.Value, &compiled, true
}

// controlID locates the in-process control a virtual binding points at: the
// free-form action string when present, the handler ID without its marker
// otherwise.
func (b Binding) controlID() string {
	if id, ok := b.Action.(string); ok && id != "" {
		return id
	}
	return strings.TrimSuffix(b.HandlerID, VirtualSuffix)
}
