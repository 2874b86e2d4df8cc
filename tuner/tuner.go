package tuner

import (
	microtonalist "github.com/calinburloiu/microtonalist-sub001"
	"gitlab.com/gomidi/midi/v2"
)

type (
	// Tuner transforms the live MIDI stream of one track so that the notes
	// played sound in the current tuning. Implementations are stateful and
	// must only be used from a single goroutine; each returned slice is the
	// ordered list of messages to send to the instrument.
	Tuner interface {
		// Reset clears all internal state and returns the messages that put
		// the output channel into a known state.
		Reset() []midi.Message
		// Tune switches to a new tuning, returning any messages needed to
		// retune what is currently sounding.
		Tune(tuning microtonalist.Tuning) []midi.Message
		// Process transforms one incoming message into zero or more outgoing
		// messages.
		Process(message midi.Message) []midi.Message
	}

	// MtsTuner retunes SysEx-capable instruments by sending a full MIDI
	// Tuning Standard octave message on every tuning switch. Channel voice
	// messages pass through re-channeled; polyphony needs no enforcement
	// because MTS tunes pitch classes, not channels.
	MtsTuner struct {
		Generator     MtsMessageGenerator
		OutputChannel uint8

		tuning microtonalist.Tuning
	}
)

// NewMtsTuner creates a tuner that emits messages of the given MTS form on
// the given output channel.
func NewMtsTuner(generator MtsMessageGenerator, outputChannel uint8) *MtsTuner {
	return &MtsTuner{Generator: generator, OutputChannel: outputChannel}
}

func (t *MtsTuner) Reset() []midi.Message {
	t.tuning = microtonalist.StandardTuning()
	return []midi.Message{t.Generator.Generate(t.tuning)}
}

func (t *MtsTuner) Tune(tuning microtonalist.Tuning) []midi.Message {
	t.tuning = tuning
	return []midi.Message{t.Generator.Generate(tuning)}
}

func (t *MtsTuner) Process(message midi.Message) []midi.Message {
	return []midi.Message{rechannel(message, t.OutputChannel)}
}

// rechannel rewrites the channel nibble of a channel voice message; other
// messages pass through untouched.
func rechannel(message midi.Message, channel uint8) midi.Message {
	var ch uint8
	if !message.GetChannel(&ch) || ch == channel {
		return message
	}
	moved := make([]byte, len(message))
	copy(moved, message)
	moved[0] = moved[0]&0xF0 | channel&0x0F
	return midi.Message(moved)
}
