// Package tuner delivers microtonal tunings to MIDI instruments in real time:
// it encodes MIDI Tuning Standard SysEx messages, retunes pitch-bend-only
// instruments while enforcing monophony, detects pedal-triggered tuning
// switches in the live stream, and orchestrates the per-track message flow.
package tuner

import (
	"fmt"
	"math"

	microtonalist "github.com/calinburloiu/microtonalist-sub001"
	"gitlab.com/gomidi/midi/v2"
)

// MtsForm selects the scale/octave tuning SysEx layout.
type MtsForm byte

const (
	// MtsOctave1ByteForm encodes each deviation as a single byte with 1 cent
	// resolution, clamped to [-64, 63]. The full message is 21 bytes.
	MtsOctave1ByteForm MtsForm = 0x08
	// MtsOctave2ByteForm encodes each deviation as a 14-bit value with
	// 100/8192 cent resolution. The full message is 33 bytes.
	MtsOctave2ByteForm MtsForm = 0x09
)

const (
	sysExStart byte = 0xF0
	sysExEnd   byte = 0xF7

	mtsRealtimeID    byte = 0x7F
	mtsNonRealtimeID byte = 0x7E
	mtsSubID         byte = 0x08

	// allDevices addresses every device on the bus.
	allDevices byte = 0x7F
)

// MtsMessageGenerator encodes complete tunings as MIDI Tuning Standard
// scale/octave SysEx messages addressed to all channels of all devices. The
// byte layout is a wire contract: header, channel mask, 12 tuning values,
// terminator.
type MtsMessageGenerator struct {
	Form     MtsForm
	Realtime bool
}

// NewMtsMessageGenerator validates the form byte at construction; Generate
// itself cannot fail.
func NewMtsMessageGenerator(form MtsForm, realtime bool) (MtsMessageGenerator, error) {
	if form != MtsOctave1ByteForm && form != MtsOctave2ByteForm {
		return MtsMessageGenerator{}, fmt.Errorf("invalid MTS octave form 0x%02X", byte(form))
	}
	return MtsMessageGenerator{Form: form, Realtime: realtime}, nil
}

// Generate encodes the tuning into a complete SysEx message, including the
// 0xF0/0xF7 framing bytes.
func (g MtsMessageGenerator) Generate(tuning microtonalist.Tuning) midi.Message {
	idByte := mtsNonRealtimeID
	if g.Realtime {
		idByte = mtsRealtimeID
	}
	message := make([]byte, 0, 33)
	message = append(message,
		sysExStart, idByte, allDevices, mtsSubID, byte(g.Form),
		// channel mask: bits for channels 16-15, 14-8, 7-1
		0x03, 0x7F, 0x7F,
	)
	for pc := 0; pc < microtonalist.NumPitchClasses; pc++ {
		deviation := tuning.Deviation(pc)
		if g.Form == MtsOctave1ByteForm {
			message = append(message, encode1ByteDeviation(deviation))
		} else {
			msb, lsb := encode2ByteDeviation(deviation)
			message = append(message, msb, lsb)
		}
	}
	return midi.Message(append(message, sysExEnd))
}

// encode1ByteDeviation clamps to [-64, 63] cents and biases to unsigned, so
// 0x40 means 0 cents.
func encode1ByteDeviation(cents float64) byte {
	value := int(math.Round(cents))
	if value < -64 {
		value = -64
	} else if value > 63 {
		value = 63
	}
	return byte(value + 64)
}

// encode2ByteDeviation scales cents to the 14-bit range used by pitch bend
// data bytes: -8192 is -100 cents, 0 is 0x2000.
func encode2ByteDeviation(cents float64) (msb, lsb byte) {
	value := int(math.Round(cents * 8192 / 100))
	if value < -8192 {
		value = -8192
	} else if value > 8191 {
		value = 8191
	}
	biased := value + 8192
	return byte(biased >> 7 & 0x7F), byte(biased & 0x7F)
}
