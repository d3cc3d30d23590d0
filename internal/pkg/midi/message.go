package midi

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// CommandType identifies the midi message class. Values match the strings
// stored in the preference documents.
type CommandType string

const (
	NoteOn           CommandType = "noteOn"
	NoteOff          CommandType = "noteOff"
	ControlChange    CommandType = "controlChange"
	PitchWheelChange CommandType = "pitchWheelChange"
	Aftertouch       CommandType = "aftertouch"
	ProgramChange    CommandType = "programChange"
	ChannelPressure  CommandType = "channelPressure"
)

var SupportedCommandTypes = map[CommandType]bool{
	NoteOn:           true,
	NoteOff:          true,
	ControlChange:    true,
	PitchWheelChange: true,
	Aftertouch:       true,
	ProgramChange:    true,
	ChannelPressure:  true,
}

// VirtualPrefix marks messages originating from a virtual source so that a
// virtual port cannot shadow a physical port with the same name.
const VirtualPrefix = "virtual_"

// Message is the normalized metadata handed to the dispatcher for every
// incoming midi message. Note and Controller are -1 when the message class
// has no such dimension.
type Message struct {
	Device  string
	Command CommandType
	Channel uint8

	Note       int
	Controller int
	Value      int

	// FourteenBitValue is populated for pitch wheel messages and for merged
	// coarse/fine control change pairs, with FourteenBit set.
	FourteenBit      bool
	FourteenBitValue int

	Virtual bool

	Timestamp int32 // milliseconds, as delivered by the driver
}

func (m Message) String() string {
	switch m.Command {
	case NoteOn:
		return fmt.Sprintf("Note On : %3d (channel: %2d, velocity: %3d)", m.Note, m.Channel+1, m.Value)
	case NoteOff:
		return fmt.Sprintf("Note Off: %3d (channel: %2d, velocity: %3d)", m.Note, m.Channel+1, m.Value)
	case ControlChange:
		if m.FourteenBit {
			return fmt.Sprintf("Control Change: %3d, value: %5d/14bit (channel: %2d)", m.Controller, m.FourteenBitValue, m.Channel+1)
		}
		return fmt.Sprintf("Control Change: %3d, value: %3d (channel: %2d)", m.Controller, m.Value, m.Channel+1)
	case PitchWheelChange:
		return fmt.Sprintf("Pitch Wheel: %5d (channel: %2d)", m.FourteenBitValue, m.Channel+1)
	case Aftertouch:
		return fmt.Sprintf("Aftertouch: %3d, pressure: %3d (channel: %2d)", m.Note, m.Value, m.Channel+1)
	case ProgramChange:
		return fmt.Sprintf("Program Change: %3d (channel: %2d)", m.Value, m.Channel+1)
	case ChannelPressure:
		return fmt.Sprintf("Channel Pressure: %3d (channel: %2d)", m.Value, m.Channel+1)
	default:
		return fmt.Sprintf("Unexpected message: %s", string(m.Command))
	}
}

// Decode translates a raw driver message into normalized metadata.
// Unsupported message classes (sysex, clock, active sense) return ok=false.
func Decode(msg midi.Message, timestamp int32) (Message, bool) {
	var channel, key, velocity, cc, value, pressure, program uint8
	var rel int16
	var abs uint16

	m := Message{Note: -1, Controller: -1, Timestamp: timestamp}

	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		m.Command = NoteOn
		m.Channel = channel
		m.Note = int(key)
		m.Value = int(velocity)
	case msg.GetNoteOff(&channel, &key, &velocity):
		m.Command = NoteOff
		m.Channel = channel
		m.Note = int(key)
		m.Value = int(velocity)
	case msg.GetControlChange(&channel, &cc, &value):
		m.Command = ControlChange
		m.Channel = channel
		m.Controller = int(cc)
		m.Value = int(value)
	case msg.GetPitchBend(&channel, &rel, &abs):
		m.Command = PitchWheelChange
		m.Channel = channel
		m.Value = int(abs >> 7) // coarse 7-bit fallback
		m.FourteenBit = true
		m.FourteenBitValue = int(abs)
	case msg.GetPolyAfterTouch(&channel, &key, &pressure):
		m.Command = Aftertouch
		m.Channel = channel
		m.Note = int(key)
		m.Value = int(pressure)
	case msg.GetAfterTouch(&channel, &pressure):
		m.Command = ChannelPressure
		m.Channel = channel
		m.Value = int(pressure)
	case msg.GetProgramChange(&channel, &program):
		m.Command = ProgramChange
		m.Channel = channel
		m.Value = int(program)
	default:
		return Message{}, false
	}

	return m, true
}
