// Package format reads composition files: yaml documents describing the
// scales of a performance and how to map, reduce and deliver them as tunings.
package format

import (
	"fmt"
	"io"
	"os"

	microtonalist "github.com/calinburloiu/microtonalist-sub001"
	"github.com/calinburloiu/microtonalist-sub001/tuner"
	"gopkg.in/yaml.v3"
)

type (
	// Composition is the top level document. Zero values mean defaults: an
	// automatic mapper, the direct reducer, pitch bend output on channel 1
	// and the default pedal triggers.
	Composition struct {
		Name       string                        `yaml:"name"`
		Reference  microtonalist.PitchReference  `yaml:"reference"`
		Mapper     MapperConfig                  `yaml:"mapper"`
		Reducer    ReducerConfig                 `yaml:"reducer"`
		Output     OutputConfig                  `yaml:"output"`
		Triggers   TriggersConfig                `yaml:"triggers"`
		GlobalFill []float64                     `yaml:"globalFill,flow"`
		Sections   []Section                     `yaml:"sections"`
	}

	// Section is one scale of the composition, with its intervals in the
	// textual notations understood by ParseInterval.
	Section struct {
		Name      string   `yaml:"name"`
		Intervals []string `yaml:"intervals"`
	}

	MapperConfig struct {
		Type               string `yaml:"type"`
		MapQuarterTonesLow bool   `yaml:"mapQuarterTonesLow"`
		// HalfTolerance of 0 means the default.
		HalfTolerance   float64 `yaml:"halfTolerance"`
		KeyboardMapping []int   `yaml:"keyboardMapping,flow"`
	}

	ReducerConfig struct {
		Type      string  `yaml:"type"`
		Tolerance float64 `yaml:"tolerance"`
	}

	// OutputConfig selects the tuner. Channel is 1-based, as port monitors
	// and synthesizer panels show it.
	OutputConfig struct {
		Method         string                     `yaml:"method"`
		Channel        int                        `yaml:"channel"`
		PitchBendRange tuner.PitchBendSensitivity `yaml:"pitchBendRange"`
		MtsRealtime    bool                       `yaml:"mtsRealtime"`
	}

	TriggersConfig struct {
		// Threshold left out means the standard pedal switch threshold of 63;
		// a pedal counts as pressed only above the threshold, so an explicit
		// 0 makes any nonzero value a press.
		Threshold  *uint8 `yaml:"threshold"`
		PreviousCc *int   `yaml:"previousCc"`
		NextCc     *int   `yaml:"nextCc"`
		Thru       bool   `yaml:"thru"`
	}
)

const (
	MapperAuto   = "auto"
	MapperManual = "manual"

	ReducerDirect = "direct"
	ReducerMerge  = "merge"

	OutputPitchBend = "pitchBend"
	OutputMts1Byte  = "mts1"
	OutputMts2Byte  = "mts2"
)

// ReadComposition parses and validates a composition document.
func ReadComposition(r io.Reader) (*Composition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var c Composition
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parsing composition: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadComposition reads a composition from a file.
func LoadComposition(path string) (*Composition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening composition: %w", err)
	}
	defer f.Close()
	return ReadComposition(f)
}

func (c *Composition) validate() error {
	if len(c.Sections) == 0 {
		return fmt.Errorf("composition %q has no sections", c.Name)
	}
	switch c.Mapper.Type {
	case "", MapperAuto:
	case MapperManual:
		if len(c.Mapper.KeyboardMapping) != microtonalist.NumPitchClasses {
			return fmt.Errorf("manual mapper needs a keyboard mapping of %d entries, got %d",
				microtonalist.NumPitchClasses, len(c.Mapper.KeyboardMapping))
		}
	default:
		return fmt.Errorf("unknown mapper type %q", c.Mapper.Type)
	}
	switch c.Reducer.Type {
	case "", ReducerDirect, ReducerMerge:
	default:
		return fmt.Errorf("unknown reducer type %q", c.Reducer.Type)
	}
	switch c.Output.Method {
	case "", OutputPitchBend, OutputMts1Byte, OutputMts2Byte:
	default:
		return fmt.Errorf("unknown output method %q", c.Output.Method)
	}
	if c.Output.Channel < 0 || c.Output.Channel > 16 {
		return fmt.Errorf("output channel %d out of range 1..16", c.Output.Channel)
	}
	if len(c.GlobalFill) != 0 && len(c.GlobalFill) != microtonalist.NumPitchClasses {
		return fmt.Errorf("global fill needs %d deviations, got %d",
			microtonalist.NumPitchClasses, len(c.GlobalFill))
	}
	if c.Reference.PitchClass < 0 || c.Reference.PitchClass >= microtonalist.NumPitchClasses {
		return fmt.Errorf("reference pitch class %d out of range 0..11", c.Reference.PitchClass)
	}
	return nil
}

// Scale resolves the section's interval notations.
func (s Section) Scale() (microtonalist.Scale, error) {
	intervals := make([]microtonalist.Interval, len(s.Intervals))
	for i, text := range s.Intervals {
		interval, err := microtonalist.ParseInterval(text)
		if err != nil {
			return microtonalist.Scale{}, fmt.Errorf("section %q: %w", s.Name, err)
		}
		intervals[i] = interval
	}
	return microtonalist.NewScale(s.Name, intervals...), nil
}

// TuningMapper builds the configured mapper.
func (c *Composition) TuningMapper() (microtonalist.TuningMapper, error) {
	switch c.Mapper.Type {
	case "", MapperAuto:
		mapper := microtonalist.NewAutoTuningMapper(c.Mapper.MapQuarterTonesLow)
		if c.Mapper.HalfTolerance != 0 {
			mapper.HalfTolerance = c.Mapper.HalfTolerance
		}
		return mapper, nil
	case MapperManual:
		mapping := microtonalist.NewKeyboardMapping()
		for pc, degree := range c.Mapper.KeyboardMapping {
			mapping.Degrees[pc] = degree
		}
		return microtonalist.ManualTuningMapper{KeyboardMapping: mapping}, nil
	}
	return nil, fmt.Errorf("unknown mapper type %q", c.Mapper.Type)
}

// TuningReducer builds the configured reducer.
func (c *Composition) TuningReducer() (microtonalist.TuningReducer, error) {
	switch c.Reducer.Type {
	case "", ReducerDirect:
		return microtonalist.DirectTuningReducer{}, nil
	case ReducerMerge:
		return microtonalist.MergeTuningReducer{Tolerance: c.Reducer.Tolerance}, nil
	}
	return nil, fmt.Errorf("unknown reducer type %q", c.Reducer.Type)
}

// GlobalFillTuning returns the configured fill, or a 12-EDO fill when the
// document does not override it.
func (c *Composition) GlobalFillTuning() microtonalist.PartialTuning {
	fill := microtonalist.NewPartialTuning("global fill")
	for pc := range fill.Deviations {
		value := 0.0
		if len(c.GlobalFill) == microtonalist.NumPitchClasses {
			value = c.GlobalFill[pc]
		}
		fill.Deviations[pc] = microtonalist.CentsOf(value)
	}
	return fill
}

// TuningSequence maps every section and reduces the results into the tunings
// the performance will cycle through.
func (c *Composition) TuningSequence() ([]microtonalist.Tuning, error) {
	mapper, err := c.TuningMapper()
	if err != nil {
		return nil, err
	}
	reducer, err := c.TuningReducer()
	if err != nil {
		return nil, err
	}
	partials := make([]microtonalist.PartialTuning, len(c.Sections))
	for i, section := range c.Sections {
		scale, err := section.Scale()
		if err != nil {
			return nil, err
		}
		partials[i], err = mapper.Map(scale, c.Reference)
		if err != nil {
			return nil, err
		}
	}
	tunings, err := reducer.Reduce(partials, c.GlobalFillTuning())
	if err != nil {
		return nil, fmt.Errorf("reducing composition %q: %w", c.Name, err)
	}
	return tunings, nil
}

// OutputChannel returns the configured 0-based output channel.
func (c *Composition) OutputChannel() uint8 {
	if c.Output.Channel == 0 {
		return 0
	}
	return uint8(c.Output.Channel - 1)
}

// NewTuner builds the tuner selected by the output config.
func (c *Composition) NewTuner() (tuner.Tuner, error) {
	channel := c.OutputChannel()
	switch c.Output.Method {
	case "", OutputPitchBend:
		return tuner.NewMonophonicPitchBendTuner(channel, c.Output.PitchBendRange), nil
	case OutputMts1Byte, OutputMts2Byte:
		form := tuner.MtsOctave1ByteForm
		if c.Output.Method == OutputMts2Byte {
			form = tuner.MtsOctave2ByteForm
		}
		generator, err := tuner.NewMtsMessageGenerator(form, c.Output.MtsRealtime)
		if err != nil {
			return nil, err
		}
		return tuner.NewMtsTuner(generator, channel), nil
	}
	return nil, fmt.Errorf("unknown output method %q", c.Output.Method)
}

// NewTuningChangeProcessor builds the pedal trigger processor from the
// trigger config, falling back to the soft/sostenuto defaults.
func (c *Composition) NewTuningChangeProcessor() *tuner.TuningChangeProcessor {
	threshold := uint8(63)
	if c.Triggers.Threshold != nil {
		threshold = *c.Triggers.Threshold
	}
	previousCc, nextCc := 67, 66
	if c.Triggers.PreviousCc != nil {
		previousCc = *c.Triggers.PreviousCc
	}
	if c.Triggers.NextCc != nil {
		nextCc = *c.Triggers.NextCc
	}
	changer := tuner.NewPedalTuningChanger(map[uint8]tuner.TuningChange{
		uint8(previousCc): {Type: tuner.PreviousTuningChange},
		uint8(nextCc):     {Type: tuner.NextTuningChange},
	}, threshold)
	return tuner.NewTuningChangeProcessor(c.Triggers.Thru, changer)
}
