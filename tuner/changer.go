package tuner

import (
	"gitlab.com/gomidi/midi/v2"
)

// TuningChangeType classifies what a TuningChanger decided about one incoming
// message.
type TuningChangeType int

const (
	// NoTuningChange means the message has nothing to do with tuning switching.
	NoTuningChange TuningChangeType = iota
	// MayTriggerTuningChange means the message touches a trigger control but
	// did not cross the threshold; the processor can still filter it out so
	// the instrument never reacts to trigger pedals.
	MayTriggerTuningChange
	// PreviousTuningChange switches to the tuning before the current one.
	PreviousTuningChange
	// NextTuningChange switches to the tuning after the current one.
	NextTuningChange
	// IndexTuningChange switches to an absolute position in the sequence.
	IndexTuningChange
)

type (
	// TuningChange is the decision made for one message. Index is only
	// meaningful for IndexTuningChange.
	TuningChange struct {
		Type  TuningChangeType
		Index int
	}

	// TuningChanger inspects the live MIDI stream and decides when the player
	// asked for a tuning switch. Implementations are stateful and are driven
	// from a single goroutine.
	TuningChanger interface {
		Decide(message midi.Message) TuningChange
		Reset()
	}

	// PedalTuningChanger maps pedal style controllers to tuning switches: a
	// released-to-pressed transition on a configured controller fires its
	// change, every other message on a configured controller is reported as
	// MayTriggerTuningChange so it can be kept away from the instrument.
	PedalTuningChanger struct {
		triggers  map[uint8]TuningChange
		threshold uint8
		pressed   map[uint8]bool
	}

	// TuningChangeProcessor runs the incoming stream through a set of
	// changers and tells the track whether to forward each message.
	TuningChangeProcessor struct {
		Changers []TuningChanger
		// TriggersThru forwards trigger controller messages to the instrument
		// instead of swallowing them.
		TriggersThru bool
	}
)

// IsEffective reports whether the change actually switches tunings.
func (c TuningChange) IsEffective() bool {
	switch c.Type {
	case PreviousTuningChange, NextTuningChange, IndexTuningChange:
		return true
	}
	return false
}

// MayTrigger reports whether the message belongs to a trigger control,
// effectively or not.
func (c TuningChange) MayTrigger() bool {
	return c.Type == MayTriggerTuningChange || c.IsEffective()
}

// NewPedalTuningChanger maps controller numbers to the changes they trigger.
// A pedal counts as pressed when its value exceeds the threshold, so values
// up to and including the threshold are released.
func NewPedalTuningChanger(triggers map[uint8]TuningChange, threshold uint8) *PedalTuningChanger {
	copied := make(map[uint8]TuningChange, len(triggers))
	for cc, change := range triggers {
		copied[cc] = change
	}
	return &PedalTuningChanger{
		triggers:  copied,
		threshold: threshold,
		pressed:   make(map[uint8]bool, len(triggers)),
	}
}

// DefaultPedalTuningChanger switches to the previous tuning with the soft
// pedal and to the next one with the sostenuto pedal. The threshold of 63
// matches the MIDI switch convention: 0..63 released, 64..127 pressed.
func DefaultPedalTuningChanger() *PedalTuningChanger {
	return NewPedalTuningChanger(map[uint8]TuningChange{
		midi.SoftPedalSwitch:      {Type: PreviousTuningChange},
		midi.SustenutoPedalSwitch: {Type: NextTuningChange},
	}, pedalPressedLevel-1)
}

func (c *PedalTuningChanger) Decide(message midi.Message) TuningChange {
	var channel, controller, value uint8
	if !message.GetControlChange(&channel, &controller, &value) {
		return TuningChange{}
	}
	change, configured := c.triggers[controller]
	if !configured {
		return TuningChange{}
	}
	wasPressed := c.pressed[controller]
	isPressed := value > c.threshold
	c.pressed[controller] = isPressed
	if isPressed && !wasPressed {
		return change
	}
	return TuningChange{Type: MayTriggerTuningChange}
}

func (c *PedalTuningChanger) Reset() {
	for cc := range c.pressed {
		delete(c.pressed, cc)
	}
}

// NewTuningChangeProcessor wires the changers in decision order.
func NewTuningChangeProcessor(triggersThru bool, changers ...TuningChanger) *TuningChangeProcessor {
	return &TuningChangeProcessor{Changers: changers, TriggersThru: triggersThru}
}

// Process gives every changer a look at the message, so all of them keep
// their pedal state current. The decision of the first changer that claims
// the message as a trigger control wins, even when a later changer would have
// made an effective change out of it; forward is false when the message was
// claimed and TriggersThru is off.
func (p *TuningChangeProcessor) Process(message midi.Message) (change TuningChange, forward bool) {
	for _, changer := range p.Changers {
		decision := changer.Decide(message)
		if decision.MayTrigger() && !change.MayTrigger() {
			change = decision
		}
	}
	return change, !change.MayTrigger() || p.TriggersThru
}

// Reset resets all changers.
func (p *TuningChangeProcessor) Reset() {
	for _, changer := range p.Changers {
		changer.Reset()
	}
}
