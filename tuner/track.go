package tuner

import (
	"fmt"
	"log/slog"

	"gitlab.com/gomidi/midi/v2"
)

type (
	// Output is where a track sends its transformed messages. The gomidi
	// adapter implements it on top of a hardware port; tests implement it
	// with a slice.
	Output interface {
		Send(message midi.Message, timestampMs int32) error
	}

	// InMessage is one message received from the track's input port, with the
	// driver timestamp in milliseconds.
	InMessage struct {
		Message   midi.Message
		Timestamp int32
	}

	// TransportError wraps a send failure with the track it happened on.
	TransportError struct {
		Track string
		Err   error
	}

	// Track connects one input stream to one instrument: it watches the
	// stream for tuning change triggers, reports them to the service through
	// the broker, and runs every forwarded message through the tuner. Each
	// track runs in its own goroutine.
	Track struct {
		name      string
		tuner     Tuner
		processor *TuningChangeProcessor
		out       Output
		in        <-chan InMessage
		tuningIn  <-chan MsgToTrack
		broker    *Broker
		logger    *slog.Logger
	}
)

func (e *TransportError) Error() string {
	return fmt.Sprintf("track %s: sending to output: %v", e.Track, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTrack wires a track. The tuning channel comes from broker.RegisterTrack;
// the input channel is fed by the MIDI listener.
func NewTrack(name string, tuner Tuner, processor *TuningChangeProcessor, out Output, in <-chan InMessage, tuningIn <-chan MsgToTrack, broker *Broker, logger *slog.Logger) *Track {
	if logger == nil {
		logger = slog.Default()
	}
	return &Track{
		name:      name,
		tuner:     tuner,
		processor: processor,
		out:       out,
		in:        in,
		tuningIn:  tuningIn,
		broker:    broker,
		logger:    logger.With("track", name),
	}
}

// Run processes input and tuning updates until both channels are closed.
// Tuning updates take priority over input so a pending switch is never
// applied after notes that should already sound in the new tuning. Send
// failures are logged and the track keeps going; a dead port on one track
// must not silence the others.
func (t *Track) Run() {
	in, tuningIn := t.in, t.tuningIn
	for in != nil || tuningIn != nil {
		select {
		case msg, ok := <-tuningIn:
			if !ok {
				tuningIn = nil
				continue
			}
			t.applyTuning(msg)
			continue
		default:
		}
		select {
		case msg, ok := <-tuningIn:
			if !ok {
				tuningIn = nil
				continue
			}
			t.applyTuning(msg)
		case item, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			t.input(item)
		}
	}
}

func (t *Track) applyTuning(msg MsgToTrack) {
	if msg.Reset {
		t.processor.Reset()
		t.send(t.tuner.Reset(), 0)
	}
	t.send(t.tuner.Tune(msg.Tuning), 0)
}

func (t *Track) input(item InMessage) {
	change, forward := t.processor.Process(item.Message)
	if change.IsEffective() {
		if !TrySend(t.broker.ToService, change) {
			t.logger.Warn("tuning change dropped, service queue full")
		}
	}
	if !forward {
		return
	}
	t.send(t.tuner.Process(item.Message), item.Timestamp)
}

func (t *Track) send(messages []midi.Message, timestampMs int32) {
	for _, message := range messages {
		if err := t.out.Send(message, timestampMs); err != nil {
			terr := &TransportError{Track: t.name, Err: err}
			t.logger.Error("output send failed", "error", terr)
		}
	}
}
