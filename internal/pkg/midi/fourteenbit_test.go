package midi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func cc(channel uint8, controller, value int) Message {
	return Message{
		Device:     "Dummy",
		Command:    ControlChange,
		Channel:    channel,
		Note:       -1,
		Controller: controller,
		Value:      value,
	}
}

func TestMergerPairsCoarseAndFine(t *testing.T) {
	f := NewMerger()

	out := f.Feed(cc(0, 6, 64))
	assert.Equal(t, false, out.FourteenBit)

	out = f.Feed(cc(0, 38, 3))
	assert.Equal(t, true, out.FourteenBit)
	assert.Equal(t, 6, out.Controller)
	assert.Equal(t, 64<<7|3, out.FourteenBitValue)
	assert.Equal(t, 64, out.Value)
}

func TestMergerIgnoresStaleCoarse(t *testing.T) {
	f := NewMerger()
	now := time.Now()
	f.now = func() time.Time { return now }

	f.Feed(cc(0, 6, 64))

	now = now.Add(time.Second)
	out := f.Feed(cc(0, 38, 3))
	assert.Equal(t, false, out.FourteenBit)
	assert.Equal(t, 38, out.Controller)
}

func TestMergerKeepsChannelsApart(t *testing.T) {
	f := NewMerger()

	f.Feed(cc(0, 6, 64))
	out := f.Feed(cc(1, 38, 3))
	assert.Equal(t, false, out.FourteenBit)
}

func TestMergerPassesUnrelatedMessages(t *testing.T) {
	f := NewMerger()

	m := Message{Command: NoteOn, Note: 60, Controller: -1, Value: 100}
	assert.Equal(t, m, f.Feed(m))

	high := cc(0, 70, 10)
	assert.Equal(t, high, f.Feed(high))
}
