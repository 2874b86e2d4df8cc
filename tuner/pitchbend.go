package tuner

import (
	"math"

	microtonalist "github.com/calinburloiu/microtonalist-sub001"
	"gitlab.com/gomidi/midi/v2"
)

// Registered parameter number CCs used to configure pitch bend sensitivity.
const (
	ccRegisteredParamMSB uint8 = 101
	ccRegisteredParamLSB uint8 = 100
	ccDataEntryMSB       uint8 = 6
	ccDataEntryLSB       uint8 = 38
	rpnNull              uint8 = 127
)

const (
	// pedalPressedLevel is the MIDI switch convention: 0..63 released,
	// 64..127 pressed.
	pedalPressedLevel uint8 = 64

	defaultReleaseVelocity uint8 = 64

	minPitchBend = -8192
	maxPitchBend = 8191
)

type (
	// PitchBendSensitivity is the bend range configured on the instrument via
	// RPN 0: Semitones + Cents on each side of the center position.
	PitchBendSensitivity struct {
		Semitones uint8 `yaml:"semitones"`
		Cents     uint8 `yaml:"cents"`
	}

	// MonophonicPitchBendTuner retunes instruments that understand nothing
	// but pitch bend. Because a bend affects the whole channel, only one note
	// at a time can be in tune, so the tuner enforces monophony: a new note
	// silences the previous one, and releasing the newest note re-triggers
	// the most recent still-held one with its own tuning. Player expression
	// bend is composed with the tuning bend on the way through.
	MonophonicPitchBendTuner struct {
		outputChannel uint8
		sensitivity   PitchBendSensitivity

		tuning    microtonalist.Tuning
		noteStack []heldNote // held notes in press order; the last one sounds

		// lastKey remembers the single note that sounded most recently, so a
		// tuning switch during silence can precompute the bend for it.
		lastKey    uint8
		lastKeySet bool

		// lastOffVelocity is reused when monophony forces a synthesized
		// Note-Off for a note the player still holds.
		lastOffVelocity uint8

		expressionBend int16 // bend received from the player
		tuningBend     int16 // bend representing the current note's deviation
		lastSentBend   int16
		bendSent       bool

		sustainLevel   uint8
		sostenutoLevel uint8
	}

	heldNote struct {
		key      uint8
		velocity uint8
	}
)

// DefaultPitchBendSensitivity is the General MIDI default of ±2 semitones.
var DefaultPitchBendSensitivity = PitchBendSensitivity{Semitones: 2}

// TotalCents returns the bend range on one side of center, in cents.
func (s PitchBendSensitivity) TotalCents() float64 {
	return float64(s.Semitones)*microtonalist.CentsPerSemitone + float64(s.Cents)
}

// NewMonophonicPitchBendTuner creates a tuner emitting on the given channel.
// A zero sensitivity is replaced by the General MIDI default.
func NewMonophonicPitchBendTuner(outputChannel uint8, sensitivity PitchBendSensitivity) *MonophonicPitchBendTuner {
	if sensitivity == (PitchBendSensitivity{}) {
		sensitivity = DefaultPitchBendSensitivity
	}
	t := &MonophonicPitchBendTuner{
		outputChannel: outputChannel,
		sensitivity:   sensitivity,
	}
	t.clear()
	return t
}

func (t *MonophonicPitchBendTuner) clear() {
	t.tuning = microtonalist.StandardTuning()
	t.noteStack = t.noteStack[:0]
	t.lastKeySet = false
	t.lastOffVelocity = defaultReleaseVelocity
	t.expressionBend = 0
	t.tuningBend = 0
	t.lastSentBend = 0
	t.bendSent = false
	t.sustainLevel = 0
	t.sostenutoLevel = 0
}

// Reset clears all state and returns the RPN sequence that configures the
// output channel's pitch bend sensitivity: select RPN 0, write the range,
// deselect.
func (t *MonophonicPitchBendTuner) Reset() []midi.Message {
	t.clear()
	ch := t.outputChannel
	return []midi.Message{
		midi.ControlChange(ch, ccRegisteredParamMSB, 0),
		midi.ControlChange(ch, ccRegisteredParamLSB, 0),
		midi.ControlChange(ch, ccDataEntryMSB, t.sensitivity.Semitones),
		midi.ControlChange(ch, ccDataEntryLSB, t.sensitivity.Cents),
		midi.ControlChange(ch, ccRegisteredParamMSB, rpnNull),
		midi.ControlChange(ch, ccRegisteredParamLSB, rpnNull),
	}
}

// Tune switches to the new tuning. The bend for the current note's pitch
// class is recomputed; if a note is sounding and its bend changed, the update
// is emitted immediately so the sounding note moves to the new tuning.
func (t *MonophonicPitchBendTuner) Tune(tuning microtonalist.Tuning) []midi.Message {
	t.tuning = tuning
	key, ok := t.currentKey()
	if !ok {
		return nil
	}
	t.tuningBend = t.bendFor(key)
	if len(t.noteStack) == 0 {
		// nothing sounding; the new bend goes out with the next Note-On
		return nil
	}
	return t.emitBend()
}

// Process transforms one incoming MIDI message. Channel voice messages are
// re-channeled to the output channel; notes go through the monophony state
// machine; player pitch bend is composed with the tuning bend.
func (t *MonophonicPitchBendTuner) Process(message midi.Message) []midi.Message {
	var channel, key, velocity, controller, value uint8
	var relative int16
	var absolute uint16
	switch {
	case message.GetNoteStart(&channel, &key, &velocity):
		return t.noteOn(key, velocity)
	case message.GetNoteOff(&channel, &key, &velocity):
		return t.noteOff(key, velocity)
	case message.GetNoteEnd(&channel, &key):
		// NoteOn with velocity 0, the running status release convention
		return t.noteOff(key, 0)
	case message.GetPitchBend(&channel, &relative, &absolute):
		t.expressionBend = relative
		return t.emitBend()
	case message.GetControlChange(&channel, &controller, &value):
		switch controller {
		case midi.HoldPedalSwitch:
			t.sustainLevel = value
		case midi.SustenutoPedalSwitch:
			t.sostenutoLevel = value
		}
		return []midi.Message{rechannel(message, t.outputChannel)}
	default:
		return []midi.Message{rechannel(message, t.outputChannel)}
	}
}

func (t *MonophonicPitchBendTuner) noteOn(key, velocity uint8) []midi.Message {
	out := make([]midi.Message, 0, 7)
	ch := t.outputChannel
	// Lift depressed pedals so notes sustained in the previous tuning do not
	// bleed under the new note. Sustain comes back, sostenuto stays lifted
	// because re-pressing it would capture the wrong notes.
	if t.sustainLevel >= pedalPressedLevel {
		out = append(out,
			midi.ControlChange(ch, midi.HoldPedalSwitch, 0),
			midi.ControlChange(ch, midi.HoldPedalSwitch, t.sustainLevel),
		)
	}
	if t.sostenutoLevel >= pedalPressedLevel {
		out = append(out, midi.ControlChange(ch, midi.SustenutoPedalSwitch, 0))
		t.sostenutoLevel = 0
	}
	if top, ok := t.top(); ok {
		// monophony: silence the superseded note before the new one starts
		out = append(out, midi.NoteOffVelocity(ch, top.key, t.lastOffVelocity))
	}
	t.noteStack = append(t.noteStack, heldNote{key: key, velocity: velocity})
	t.tuningBend = t.bendFor(key)
	out = append(out, t.emitBend()...)
	return append(out, midi.NoteOn(ch, key, velocity))
}

func (t *MonophonicPitchBendTuner) noteOff(key, velocity uint8) []midi.Message {
	t.lastOffVelocity = velocity
	ch := t.outputChannel
	top, ok := t.top()
	if !ok {
		// nothing held; pass the release through
		return []midi.Message{midi.NoteOffVelocity(ch, key, velocity)}
	}
	if top.key != key {
		// The note was already silently superseded: remove it from the stack
		// interior without any audible output.
		for i := len(t.noteStack) - 2; i >= 0; i-- {
			if t.noteStack[i].key == key {
				t.noteStack = append(t.noteStack[:i], t.noteStack[i+1:]...)
				return nil
			}
		}
		return []midi.Message{midi.NoteOffVelocity(ch, key, velocity)}
	}
	t.noteStack = t.noteStack[:len(t.noteStack)-1]
	out := []midi.Message{midi.NoteOffVelocity(ch, key, velocity)}
	if next, ok := t.top(); ok {
		// re-trigger the most recent still-held note with its own tuning
		t.tuningBend = t.bendFor(next.key)
		out = append(out, t.emitBend()...)
		out = append(out, midi.NoteOn(ch, next.key, next.velocity))
	} else {
		t.lastKey = key
		t.lastKeySet = true
	}
	return out
}

// emitBend sends the composed expression+tuning bend, clamped to the legal
// range, but only when it differs from the last value sent.
func (t *MonophonicPitchBendTuner) emitBend() []midi.Message {
	combined := int(t.expressionBend) + int(t.tuningBend)
	if combined < minPitchBend {
		combined = minPitchBend
	} else if combined > maxPitchBend {
		combined = maxPitchBend
	}
	if t.bendSent && int16(combined) == t.lastSentBend {
		return nil
	}
	t.lastSentBend = int16(combined)
	t.bendSent = true
	return []midi.Message{midi.Pitchbend(t.outputChannel, int16(combined))}
}

// bendFor converts the tuning deviation of the key's pitch class into pitch
// bend units for the configured sensitivity.
func (t *MonophonicPitchBendTuner) bendFor(key uint8) int16 {
	deviation := t.tuning.Deviation(int(key) % microtonalist.NumPitchClasses)
	value := int(math.Round(deviation * 8192 / t.sensitivity.TotalCents()))
	if value < minPitchBend {
		value = minPitchBend
	} else if value > maxPitchBend {
		value = maxPitchBend
	}
	return int16(value)
}

func (t *MonophonicPitchBendTuner) top() (heldNote, bool) {
	if len(t.noteStack) == 0 {
		return heldNote{}, false
	}
	return t.noteStack[len(t.noteStack)-1], true
}

func (t *MonophonicPitchBendTuner) currentKey() (uint8, bool) {
	if note, ok := t.top(); ok {
		return note.key, true
	}
	if t.lastKeySet {
		return t.lastKey, true
	}
	return 0, false
}
