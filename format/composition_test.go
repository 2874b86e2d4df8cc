package format_test

import (
	"strings"
	"testing"

	"github.com/calinburloiu/microtonalist-sub001/format"
	"github.com/calinburloiu/microtonalist-sub001/tuner"
)

const makamComposition = `
name: makam medley
reference: {pitchClass: 0, deviation: 0}
mapper:
  type: auto
  mapQuarterTonesLow: true
reducer:
  type: merge
  tolerance: 0.5
output:
  method: pitchBend
  channel: 1
  pitchBendRange: {semitones: 2}
sections:
  - name: rast
    intervals: ["9/8", "5/4", "4/3", "3/2", "27/16", "15/8", "2/1"]
  - name: nikriz
    intervals: ["9/8", "300.0", "450.0", "3/2", "27/16", "16/9", "2/1"]
`

func TestReadComposition(t *testing.T) {
	c, err := format.ReadComposition(strings.NewReader(makamComposition))
	if err != nil {
		t.Fatalf("reading composition: %v", err)
	}
	if c.Name != "makam medley" || len(c.Sections) != 2 {
		t.Fatalf("parsed composition: %+v", c)
	}
	scale, err := c.Sections[0].Scale()
	if err != nil {
		t.Fatalf("resolving scale: %v", err)
	}
	if len(scale.Intervals) != 7 {
		t.Fatalf("rast has %d intervals, want 7", len(scale.Intervals))
	}
}

func TestCompositionTuningSequence(t *testing.T) {
	c, err := format.ReadComposition(strings.NewReader(makamComposition))
	if err != nil {
		t.Fatalf("reading composition: %v", err)
	}
	tunings, err := c.TuningSequence()
	if err != nil {
		t.Fatalf("building tuning sequence: %v", err)
	}
	if len(tunings) == 0 || len(tunings) > 2 {
		t.Fatalf("got %d tunings, want 1 or 2", len(tunings))
	}
	// the 5/4 third of rast must survive mapping and reduction
	found := false
	for _, tuning := range tunings {
		if tuning.Deviation(4) < -13 && tuning.Deviation(4) > -14 {
			found = true
		}
	}
	if !found {
		t.Fatalf("no tuning carries the just third, got %+v", tunings)
	}
}

func TestCompositionDefaults(t *testing.T) {
	c, err := format.ReadComposition(strings.NewReader(`
sections:
  - name: plain
    intervals: ["2/1"]
`))
	if err != nil {
		t.Fatalf("reading composition: %v", err)
	}
	if _, err := c.TuningMapper(); err != nil {
		t.Errorf("default mapper: %v", err)
	}
	if _, err := c.TuningReducer(); err != nil {
		t.Errorf("default reducer: %v", err)
	}
	built, err := c.NewTuner()
	if err != nil {
		t.Fatalf("default tuner: %v", err)
	}
	if _, ok := built.(*tuner.MonophonicPitchBendTuner); !ok {
		t.Errorf("default tuner type %T, want pitch bend", built)
	}
	fill := c.GlobalFillTuning()
	if !fill.IsComplete() {
		t.Error("default global fill must be complete")
	}
}

func TestCompositionManualMapper(t *testing.T) {
	c, err := format.ReadComposition(strings.NewReader(`
mapper:
  type: manual
  keyboardMapping: [0, -1, 1, -1, 2, 3, -1, 4, -1, 5, -1, 6]
sections:
  - name: scale
    intervals: ["1/1", "9/8", "5/4", "4/3", "3/2", "27/16", "15/8"]
`))
	if err != nil {
		t.Fatalf("reading composition: %v", err)
	}
	if _, err := c.TuningSequence(); err != nil {
		t.Fatalf("manual sequence: %v", err)
	}
}

func TestCompositionValidation(t *testing.T) {
	bad := []string{
		`{name: empty, sections: []}`,
		`{mapper: {type: psychic}, sections: [{name: s, intervals: ["2/1"]}]}`,
		`{reducer: {type: blend}, sections: [{name: s, intervals: ["2/1"]}]}`,
		`{output: {method: telepathy}, sections: [{name: s, intervals: ["2/1"]}]}`,
		`{output: {channel: 17}, sections: [{name: s, intervals: ["2/1"]}]}`,
		`{mapper: {type: manual, keyboardMapping: [0, 1]}, sections: [{name: s, intervals: ["2/1"]}]}`,
		`{globalFill: [0, 0], sections: [{name: s, intervals: ["2/1"]}]}`,
		`{typo: true, sections: [{name: s, intervals: ["2/1"]}]}`,
	}
	for _, doc := range bad {
		if _, err := format.ReadComposition(strings.NewReader(doc)); err == nil {
			t.Errorf("document should be rejected: %s", doc)
		}
	}
}

func TestCompositionMtsOutput(t *testing.T) {
	c, err := format.ReadComposition(strings.NewReader(`
output: {method: mts2, channel: 5, mtsRealtime: true}
sections:
  - name: s
    intervals: ["2/1"]
`))
	if err != nil {
		t.Fatalf("reading composition: %v", err)
	}
	built, err := c.NewTuner()
	if err != nil {
		t.Fatalf("building tuner: %v", err)
	}
	if _, ok := built.(*tuner.MtsTuner); !ok {
		t.Fatalf("tuner type %T, want MTS", built)
	}
	if c.OutputChannel() != 4 {
		t.Fatalf("channel should convert to 0-based 4, got %d", c.OutputChannel())
	}
}
