package router

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"midideck/internal/pkg/actions"
	"midideck/internal/pkg/midi"
)

// recorder collects handler invocations in submission order.
type recorder struct {
	mu    sync.Mutex
	calls []actions.Payload
}

func (r *recorder) Execute(payload actions.Payload) error {
	r.mu.Lock()
	r.calls = append(r.calls, payload)
	r.mu.Unlock()
	return nil
}

func (r *recorder) payloads() []actions.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]actions.Payload(nil), r.calls...)
}

func testDispatcher(t *testing.T, tree BindingTree) (*Dispatcher, *recorder) {
	t.Helper()

	rec := &recorder{}
	registry := actions.NewRegistry()
	registry.Register("record", rec)

	banks := NewBanks(testStore(t), 9, nil)
	resolver := NewResolver(banks, func() string { return "" })

	d := NewDispatcher(resolver, registry, NewControls(), 16)
	d.Swap(Compile(tree, nil))
	t.Cleanup(d.Close)
	return d, rec
}

func noteBinding(device string, note int) Binding {
	return Binding{
		Device: device, Channel: intp(0), CommandType: midi.NoteOn,
		Number: intp(note), HandlerID: "record", Action: "pressed",
	}
}

func TestDispatchExecutesBoundAction(t *testing.T) {
	d, rec := testDispatcher(t, BindingTree{
		AllApplications: {Banks: map[string]map[string]Binding{
			"1": {"a": noteBinding("D", 42)},
		}},
	})

	d.Dispatch(midi.Message{Device: "D", Command: midi.NoteOn, Note: 42, Controller: -1, Value: 127})
	d.Flush()

	assert.Equal(t, []actions.Payload{"pressed"}, rec.payloads())
}

func TestDispatchUnboundMessageIsDropped(t *testing.T) {
	d, rec := testDispatcher(t, BindingTree{
		AllApplications: {Banks: map[string]map[string]Binding{
			"1": {"a": noteBinding("D", 42)},
		}},
	})

	d.Dispatch(midi.Message{Device: "D", Command: midi.NoteOn, Note: 43, Controller: -1, Value: 127})
	d.Dispatch(midi.Message{Device: "Other", Command: midi.NoteOn, Note: 42, Controller: -1, Value: 127})
	d.Flush()

	assert.Empty(t, rec.payloads())
}

func TestDispatchZeroVelocityNoteOnSuppressed(t *testing.T) {
	d, rec := testDispatcher(t, BindingTree{
		AllApplications: {Banks: map[string]map[string]Binding{
			"1": {"a": noteBinding("D", 42)},
		}},
	})

	d.Dispatch(midi.Message{Device: "D", Command: midi.NoteOn, Note: 42, Controller: -1, Value: 0})
	d.Flush()

	assert.Empty(t, rec.payloads())
}

func TestDispatchValueSpecificNoFallback(t *testing.T) {
	d, rec := testDispatcher(t, BindingTree{
		AllApplications: {Banks: map[string]map[string]Binding{
			"1": {"cw": {
				Device: "D", Channel: intp(0), CommandType: midi.ControlChange,
				Number: intp(60), Value: intp(1), HandlerID: "record", Action: "cw",
			}},
		}},
	})

	d.Dispatch(midi.Message{Device: "D", Command: midi.ControlChange, Note: -1, Controller: 60, Value: 64})
	d.Flush()
	assert.Empty(t, rec.payloads())

	d.Dispatch(midi.Message{Device: "D", Command: midi.ControlChange, Note: -1, Controller: 60, Value: 1})
	d.Flush()
	assert.Equal(t, []actions.Payload{"cw"}, rec.payloads())
}

func TestDispatchPitchWheelUsesFourteenBitValue(t *testing.T) {
	d, rec := testDispatcher(t, BindingTree{
		AllApplications: {Banks: map[string]map[string]Binding{
			"1": {"wheel": {
				Device: "D", Channel: intp(0), CommandType: midi.PitchWheelChange,
				Value: intp(8192), HandlerID: "record", Action: "center",
			}},
		}},
	})

	d.Dispatch(midi.Message{
		Device: "D", Command: midi.PitchWheelChange, Note: -1, Controller: -1,
		Value: 64, FourteenBit: true, FourteenBitValue: 8192,
	})
	d.Flush()

	assert.Equal(t, []actions.Payload{"center"}, rec.payloads())
}

func TestDispatchVirtualSourcePrefixed(t *testing.T) {
	d, rec := testDispatcher(t, BindingTree{
		AllApplications: {Banks: map[string]map[string]Binding{
			"1": {
				"phys": noteBinding("Deck", 42),
				"virt": {
					Device: midi.VirtualPrefix + "Deck", Channel: intp(0), CommandType: midi.NoteOn,
					Number: intp(42), HandlerID: "record", Action: "virtual",
				},
			},
		}},
	})

	d.Dispatch(midi.Message{Device: "Deck", Command: midi.NoteOn, Note: 42, Controller: -1, Value: 127, Virtual: true})
	d.Flush()

	assert.Equal(t, []actions.Payload{"virtual"}, rec.payloads())
}

func TestDispatchLearningModeDropsMessages(t *testing.T) {
	d, rec := testDispatcher(t, BindingTree{
		AllApplications: {Banks: map[string]map[string]Binding{
			"1": {"a": noteBinding("D", 42)},
		}},
	})

	d.SetLearning(true)
	d.Dispatch(midi.Message{Device: "D", Command: midi.NoteOn, Note: 42, Controller: -1, Value: 127})
	d.Flush()
	assert.Empty(t, rec.payloads())

	d.SetLearning(false)
	d.Dispatch(midi.Message{Device: "D", Command: midi.NoteOn, Note: 42, Controller: -1, Value: 127})
	d.Flush()
	assert.Equal(t, []actions.Payload{"pressed"}, rec.payloads())
}

func TestDispatchPanickingHandlerIsolated(t *testing.T) {
	rec := &recorder{}
	registry := actions.NewRegistry()
	registry.Register("record", rec)
	registry.Register("explode", actions.HandlerFunc(func(actions.Payload) error {
		panic("boom")
	}))

	banks := NewBanks(testStore(t), 9, nil)
	resolver := NewResolver(banks, func() string { return "" })
	d := NewDispatcher(resolver, registry, NewControls(), 16)
	t.Cleanup(d.Close)

	d.Swap(Compile(BindingTree{
		AllApplications: {Banks: map[string]map[string]Binding{
			"1": {
				"bad": {Device: "D", Channel: intp(0), CommandType: midi.NoteOn, Number: intp(1), HandlerID: "explode"},
				"ok":  noteBinding("D", 2),
			},
		}},
	}, nil))

	d.Dispatch(midi.Message{Device: "D", Command: midi.NoteOn, Note: 1, Controller: -1, Value: 127})
	d.Dispatch(midi.Message{Device: "D", Command: midi.NoteOn, Note: 2, Controller: -1, Value: 127})
	d.Flush()

	assert.Equal(t, []actions.Payload{"pressed"}, rec.payloads())
}

func TestDispatchFIFOOrder(t *testing.T) {
	d, rec := testDispatcher(t, BindingTree{
		AllApplications: {Banks: map[string]map[string]Binding{
			"1": {
				"a": {Device: "D", Channel: intp(0), CommandType: midi.NoteOn, Number: intp(1), HandlerID: "record", Action: "first"},
				"b": {Device: "D", Channel: intp(0), CommandType: midi.NoteOn, Number: intp(2), HandlerID: "record", Action: "second"},
				"c": {Device: "D", Channel: intp(0), CommandType: midi.NoteOn, Number: intp(3), HandlerID: "record", Action: "third"},
			},
		}},
	})

	for note := 1; note <= 3; note++ {
		d.Dispatch(midi.Message{Device: "D", Command: midi.NoteOn, Note: note, Controller: -1, Value: 127})
	}
	d.Flush()

	assert.Equal(t, []actions.Payload{"first", "second", "third"}, rec.payloads())
}

func TestDispatchVirtualControlReceivesMessage(t *testing.T) {
	controls := NewControls()
	var got midi.Message
	controls.Register("nextBank", func(m midi.Message) { got = m })

	banks := NewBanks(testStore(t), 9, nil)
	resolver := NewResolver(banks, func() string { return "" })
	d := NewDispatcher(resolver, actions.NewRegistry(), controls, 16)
	t.Cleanup(d.Close)

	d.Swap(Compile(BindingTree{
		AllApplications: {Banks: map[string]map[string]Binding{
			"1": {"next": {
				Device: "D", Channel: intp(0), CommandType: midi.NoteOn,
				Number: intp(7), HandlerID: "nextBank_virtual",
			}},
		}},
	}, nil))

	d.Dispatch(midi.Message{Device: "D", Command: midi.NoteOn, Note: 7, Controller: -1, Value: 127})
	d.Flush()

	assert.Equal(t, "D", got.Device)
	assert.Equal(t, 7, got.Note)
}

func TestSwapReplacesIndexWholesale(t *testing.T) {
	d, rec := testDispatcher(t, BindingTree{
		AllApplications: {Banks: map[string]map[string]Binding{
			"1": {"a": noteBinding("D", 42)},
		}},
	})

	d.Swap(Compile(BindingTree{
		AllApplications: {Banks: map[string]map[string]Binding{
			"1": {"b": noteBinding("D", 43)},
		}},
	}, nil))

	// the removed binding must not linger
	d.Dispatch(midi.Message{Device: "D", Command: midi.NoteOn, Note: 42, Controller: -1, Value: 127})
	d.Dispatch(midi.Message{Device: "D", Command: midi.NoteOn, Note: 43, Controller: -1, Value: 127})
	d.Flush()

	assert.Equal(t, []actions.Payload{"pressed"}, rec.payloads())
}
