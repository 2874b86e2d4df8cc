// Package gomidi adapts the gomidi rtmidi driver to the tuner's Output and
// input channel abstractions, so tracks stay testable without hardware.
package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/calinburloiu/microtonalist-sub001/tuner"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	// RTMIDIContext owns the rtmidi driver and all ports opened through it.
	RTMIDIContext struct {
		driver  *rtmididrv.Driver
		inputs  []drivers.In
		outputs []drivers.Out
		stops   []func()
	}

	// RTMIDIOutput implements tuner.Output on a hardware port.
	RTMIDIOutput struct {
		out  drivers.Out
		send func(midi.Message) error
	}
)

// NewContext opens the rtmidi driver.
func NewContext() *RTMIDIContext {
	c := &RTMIDIContext{}
	// there's not much we can do if this fails, so just use c.driver = nil to
	// indicate no driver available
	c.driver, _ = rtmididrv.New()
	return c
}

// InputDevices iterates over the names of the available input ports.
func (c *RTMIDIContext) InputDevices(yield func(string) bool) {
	if c.driver == nil {
		return
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		if !yield(in.String()) {
			break
		}
	}
}

// OutputDevices iterates over the names of the available output ports.
func (c *RTMIDIContext) OutputDevices(yield func(string) bool) {
	if c.driver == nil {
		return
	}
	outs, err := c.driver.Outs()
	if err != nil {
		return
	}
	for _, out := range outs {
		if !yield(out.String()) {
			break
		}
	}
}

// OpenInputBy opens the first input port whose name starts with namePrefix,
// or the first port of all when the prefix is empty, and feeds every received
// message into the returned channel. SysEx messages are passed through so
// instruments chained behind the tuner still get their dumps.
func (c *RTMIDIContext) OpenInputBy(namePrefix string) (<-chan tuner.InMessage, error) {
	if c.driver == nil {
		return nil, errors.New("no MIDI driver available")
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return nil, fmt.Errorf("listing MIDI inputs: %w", err)
	}
	for _, in := range ins {
		if namePrefix != "" && !strings.HasPrefix(in.String(), namePrefix) {
			continue
		}
		if err := in.Open(); err != nil {
			return nil, fmt.Errorf("opening MIDI input %q: %w", in.String(), err)
		}
		events := make(chan tuner.InMessage, 1024)
		stop, err := midi.ListenTo(in, func(msg midi.Message, timestampMs int32) {
			// if the channel is full, just drop the message
			tuner.TrySend(events, tuner.InMessage{Message: msg, Timestamp: timestampMs})
		}, midi.UseSysEx())
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("listening to MIDI input %q: %w", in.String(), err)
		}
		c.inputs = append(c.inputs, in)
		c.stops = append(c.stops, func() {
			stop()
			close(events)
		})
		return events, nil
	}
	if namePrefix == "" {
		return nil, errors.New("no MIDI input found")
	}
	return nil, fmt.Errorf("no MIDI input starting with %q", namePrefix)
}

// OpenOutputBy opens the first output port whose name starts with namePrefix,
// or the first port of all when the prefix is empty.
func (c *RTMIDIContext) OpenOutputBy(namePrefix string) (*RTMIDIOutput, error) {
	if c.driver == nil {
		return nil, errors.New("no MIDI driver available")
	}
	outs, err := c.driver.Outs()
	if err != nil {
		return nil, fmt.Errorf("listing MIDI outputs: %w", err)
	}
	for _, out := range outs {
		if namePrefix != "" && !strings.HasPrefix(out.String(), namePrefix) {
			continue
		}
		if err := out.Open(); err != nil {
			return nil, fmt.Errorf("opening MIDI output %q: %w", out.String(), err)
		}
		send, err := midi.SendTo(out)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("connecting to MIDI output %q: %w", out.String(), err)
		}
		c.outputs = append(c.outputs, out)
		return &RTMIDIOutput{out: out, send: send}, nil
	}
	if namePrefix == "" {
		return nil, errors.New("no MIDI output found")
	}
	return nil, fmt.Errorf("no MIDI output starting with %q", namePrefix)
}

// Send implements tuner.Output. The rtmidi backend delivers immediately, so
// the timestamp is ignored.
func (o *RTMIDIOutput) Send(message midi.Message, timestampMs int32) error {
	return o.send(message)
}

func (o *RTMIDIOutput) String() string { return o.out.String() }

// Close stops all listeners and closes all ports and the driver.
func (c *RTMIDIContext) Close() {
	for _, stop := range c.stops {
		stop()
	}
	for _, in := range c.inputs {
		if in.IsOpen() {
			in.Close()
		}
	}
	for _, out := range c.outputs {
		if out.IsOpen() {
			out.Close()
		}
	}
	if c.driver != nil {
		c.driver.Close()
	}
}
