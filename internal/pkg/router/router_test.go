package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"midideck/internal/pkg/actions"
	"midideck/internal/pkg/midi"
)

func testRouter(t *testing.T) *Router {
	t.Helper()
	r := New(testStore(t), midi.NewRegistry(), actions.NewRegistry(), Config{
		Frontmost: func() string { return "" },
	})
	t.Cleanup(r.Stop)
	return r
}

func TestSetBindingAllocatesButtonID(t *testing.T) {
	r := testRouter(t)

	id, err := r.SetBinding("com.example.editor", "1", "", "device", "X-Touch")
	assert.NoError(t, err)
	assert.NotEmpty(t, id)

	value, ok := r.GetBinding("com.example.editor", "1", id, "device")
	assert.True(t, ok)
	assert.Equal(t, "X-Touch", value)
}

func TestSetBindingKeepsExplicitButtonID(t *testing.T) {
	r := testRouter(t)

	id, err := r.SetBinding("com.example.editor", "1", "button_7", "device", "X-Touch")
	assert.NoError(t, err)
	assert.Equal(t, "button_7", id)

	_, err = r.SetBinding("com.example.editor", "1", "button_7", "channel", 0)
	assert.NoError(t, err)

	binding, ok := r.GetBinding("com.example.editor", "1", "button_7", "")
	assert.True(t, ok)
	fields := binding.(map[string]interface{})
	assert.Equal(t, "X-Touch", fields["device"])
}

func TestSetBindingNilValueDeletesField(t *testing.T) {
	r := testRouter(t)

	_, err := r.SetBinding("app", "1", "b", "device", "X-Touch")
	assert.NoError(t, err)
	_, err = r.SetBinding("app", "1", "b", "device", nil)
	assert.NoError(t, err)

	_, ok := r.GetBinding("app", "1", "b", "device")
	assert.False(t, ok)
}

func TestSetBindingEmptyFieldDeletesBinding(t *testing.T) {
	r := testRouter(t)

	_, err := r.SetBinding("app", "1", "b", "device", "X-Touch")
	assert.NoError(t, err)
	_, err = r.SetBinding("app", "1", "b", "", nil)
	assert.NoError(t, err)

	_, ok := r.GetBinding("app", "1", "b", "")
	assert.False(t, ok)
}

func TestGetBindingMissing(t *testing.T) {
	r := testRouter(t)

	_, ok := r.GetBinding("nope", "1", "b", "device")
	assert.False(t, ok)
}

// Application IDs contain dots; they must address one level of the tree, not
// be split into path segments.
func TestBindingPathsWithDottedApplicationIDs(t *testing.T) {
	r := testRouter(t)

	_, err := r.SetBinding("com.apple.FinalCutPro", "2", "b", "handlerID", "shellScript")
	assert.NoError(t, err)

	value, ok := r.GetBinding("com.apple.FinalCutPro", "2", "b", "handlerID")
	assert.True(t, ok)
	assert.Equal(t, "shellScript", value)

	_, ok = r.GetBinding("com", "2", "b", "handlerID")
	assert.False(t, ok)
}

func TestSetBindingRecompiles(t *testing.T) {
	r := testRouter(t)

	for field, value := range map[string]interface{}{
		"device": "X-Touch", "channel": 0, "commandType": "noteOn",
		"number": 42, "handlerID": "shellScript",
	} {
		_, err := r.SetBinding("app", "1", "b", field, value)
		assert.NoError(t, err)
	}

	_, ok := r.dispatcher.Index().Lookup(Key{
		App: "app", Bank: "1", Device: "X-Touch",
		Channel: 0, Command: midi.NoteOn, Controller: 42,
	}, 127)
	assert.True(t, ok)
}

func TestBuiltinBankControls(t *testing.T) {
	r := testRouter(t)

	next, ok := r.Controls().Get("nextBank")
	assert.True(t, ok)
	prev, ok := r.Controls().Get("previousBank")
	assert.True(t, ok)

	next(midi.Message{})
	assert.Equal(t, "2", r.Banks().Active(AllApplications))
	prev(midi.Message{})
	assert.Equal(t, "1", r.Banks().Active(AllApplications))
}
