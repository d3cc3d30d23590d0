package midi

import "time"

// Controllers 0-31 carry the coarse (MSB) part of a 14-bit value, controllers
// 32-63 the fine (LSB) part for the controller 32 positions below.
const fineOffset = 32

// pairingWindow bounds how long a coarse value waits for its fine companion.
// Hardware emits the pair back to back, so anything older is a plain 7-bit
// control change that happens to live in the coarse range.
const pairingWindow = 50 * time.Millisecond

type coarseState struct {
	value int
	at    time.Time
}

// Merger combines coarse/fine control change pairs into single messages
// carrying a 14-bit value. One Merger serves one device; it is only ever
// touched from that device's callback, so it needs no locking.
type Merger struct {
	coarse map[uint8]map[uint8]coarseState // channel -> controller -> last coarse
	now    func() time.Time
}

func NewMerger() *Merger {
	return &Merger{
		coarse: make(map[uint8]map[uint8]coarseState),
		now:    time.Now,
	}
}

// Feed passes a message through the merger. Control changes on a fine
// controller whose coarse part arrived within the pairing window come out as
// one merged message addressed at the coarse controller number, flagged
// FourteenBit. Everything else passes through unchanged.
func (f *Merger) Feed(m Message) Message {
	if m.Command != ControlChange {
		return m
	}

	cc := uint8(m.Controller)
	switch {
	case cc < fineOffset:
		perChannel, ok := f.coarse[m.Channel]
		if !ok {
			perChannel = make(map[uint8]coarseState)
			f.coarse[m.Channel] = perChannel
		}
		perChannel[cc] = coarseState{value: m.Value, at: f.now()}
		return m
	case cc < 2*fineOffset:
		coarseCC := cc - fineOffset
		state, ok := f.coarse[m.Channel][coarseCC]
		if !ok || f.now().Sub(state.at) > pairingWindow {
			return m
		}
		delete(f.coarse[m.Channel], coarseCC)
		m.Controller = int(coarseCC)
		m.FourteenBit = true
		m.FourteenBitValue = state.value<<7 | m.Value
		m.Value = state.value
		return m
	default:
		return m
	}
}
