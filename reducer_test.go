package microtonalist_test

import (
	"errors"
	"testing"

	microtonalist "github.com/calinburloiu/microtonalist-sub001"
)

func zeroFill(name string) microtonalist.PartialTuning {
	p := microtonalist.NewPartialTuning(name)
	for pc := range p.Deviations {
		p.Deviations[pc] = microtonalist.CentsOf(0)
	}
	return p
}

func TestDirectTuningReducer(t *testing.T) {
	partials := []microtonalist.PartialTuning{
		partialOf("first", map[int]float64{0: 0, 4: -14}),
		partialOf("second", map[int]float64{0: 0, 4: 16}),
	}
	tunings, err := microtonalist.DirectTuningReducer{}.Reduce(partials, zeroFill("fill"))
	if err != nil {
		t.Fatalf("reduce failed: %v", err)
	}
	if len(tunings) != 2 {
		t.Fatalf("direct reducer produced %d tunings, want 2", len(tunings))
	}
	if tunings[0].Name != "first" || tunings[1].Name != "second" {
		t.Errorf("tuning names: %q, %q", tunings[0].Name, tunings[1].Name)
	}
	if tunings[0].Deviation(4) != -14 || tunings[1].Deviation(4) != 16 {
		t.Errorf("section deviations lost: %v, %v", tunings[0].Deviation(4), tunings[1].Deviation(4))
	}
	if tunings[0].Deviation(7) != 0 {
		t.Errorf("global fill not applied: %v", tunings[0].Deviation(7))
	}
}

func TestMergeTuningReducerMergesCompatibleSections(t *testing.T) {
	partials := []microtonalist.PartialTuning{
		partialOf("hijaz", map[int]float64{0: 0, 1: 50}),
		partialOf("rast", map[int]float64{0: 0, 4: -50}),
	}
	tunings, err := microtonalist.MergeTuningReducer{Tolerance: 0.5}.Reduce(partials, zeroFill("fill"))
	if err != nil {
		t.Fatalf("reduce failed: %v", err)
	}
	if len(tunings) != 1 {
		t.Fatalf("compatible sections should merge into 1 tuning, got %d", len(tunings))
	}
	if tunings[0].Name != "hijaz | rast" {
		t.Errorf("merged tuning name: %q", tunings[0].Name)
	}
	if tunings[0].Deviation(1) != 50 || tunings[0].Deviation(4) != -50 {
		t.Errorf("merged deviations lost: %v", tunings[0].Deviations)
	}
}

func TestMergeTuningReducerStopsAtConflict(t *testing.T) {
	partials := []microtonalist.PartialTuning{
		partialOf("a", map[int]float64{4: -14}),
		partialOf("b", map[int]float64{4: -14, 7: 2}),
		partialOf("c", map[int]float64{4: 50}),
		partialOf("d", map[int]float64{7: 2}),
	}
	tunings, err := microtonalist.MergeTuningReducer{Tolerance: 0.5}.Reduce(partials, zeroFill("fill"))
	if err != nil {
		t.Fatalf("reduce failed: %v", err)
	}
	// a+b merge; c conflicts on pitch class 4; c+d merge.
	if len(tunings) != 2 {
		t.Fatalf("got %d tunings, want 2", len(tunings))
	}
	if tunings[0].Name != "a | b" || tunings[1].Name != "c | d" {
		t.Errorf("group names: %q, %q", tunings[0].Name, tunings[1].Name)
	}
}

func TestMergeTuningReducerForwardFill(t *testing.T) {
	// Pitch class 7 is only defined in the later group; the earlier group
	// must inherit it from the following group, not from the global fill.
	partials := []microtonalist.PartialTuning{
		partialOf("early", map[int]float64{4: -14}),
		partialOf("late", map[int]float64{4: 50, 7: 2}),
	}
	tunings, err := microtonalist.MergeTuningReducer{Tolerance: 0.5}.Reduce(partials, zeroFill("fill"))
	if err != nil {
		t.Fatalf("reduce failed: %v", err)
	}
	if len(tunings) != 2 {
		t.Fatalf("got %d tunings, want 2", len(tunings))
	}
	if tunings[0].Deviation(7) != 2 {
		t.Errorf("forward fill: early group deviation at G is %v, want 2", tunings[0].Deviation(7))
	}
	// back-fill: the later group inherits pitch class values settled by the
	// earlier result where it has none and the suffix has none either.
	if tunings[1].Deviation(4) != 50 {
		t.Errorf("later group must keep its own value: %v", tunings[1].Deviation(4))
	}
}

func TestMergeNeverProducesMoreThanDirect(t *testing.T) {
	cases := [][]microtonalist.PartialTuning{
		{
			partialOf("a", map[int]float64{0: 0}),
			partialOf("b", map[int]float64{0: 0}),
			partialOf("c", map[int]float64{0: 40}),
		},
		{
			partialOf("a", map[int]float64{1: 50}),
		},
		{
			partialOf("a", map[int]float64{2: 0, 3: 30}),
			partialOf("b", map[int]float64{2: 20}),
			partialOf("c", map[int]float64{3: 30}),
			partialOf("d", map[int]float64{2: 20, 5: -20}),
		},
	}
	for i, partials := range cases {
		direct, err := microtonalist.DirectTuningReducer{}.Reduce(partials, zeroFill("fill"))
		if err != nil {
			t.Fatalf("case %d: direct reduce failed: %v", i, err)
		}
		merged, err := microtonalist.MergeTuningReducer{Tolerance: 0.5}.Reduce(partials, zeroFill("fill"))
		if err != nil {
			t.Fatalf("case %d: merge reduce failed: %v", i, err)
		}
		if len(merged) > len(direct) {
			t.Errorf("case %d: merge produced %d tunings, direct %d", i, len(merged), len(direct))
		}
		if len(merged) < 1 {
			t.Errorf("case %d: merge produced no tunings", i)
		}
	}
}

func TestReduceIncompleteTunings(t *testing.T) {
	partials := []microtonalist.PartialTuning{
		partialOf("sparse", map[int]float64{0: 0}),
	}
	emptyFill := microtonalist.NewPartialTuning("empty")
	_, err := microtonalist.DirectTuningReducer{}.Reduce(partials, emptyFill)
	var incomplete *microtonalist.IncompleteTuningsError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteTuningsError, got %v", err)
	}
	if len(incomplete.Sections) != 1 || incomplete.Sections[0].Name != "sparse" {
		t.Fatalf("incomplete sections: %+v", incomplete.Sections)
	}
	if len(incomplete.Sections[0].PitchClasses) != 11 {
		t.Fatalf("missing pitch classes: %v", incomplete.Sections[0].PitchClasses)
	}
}

func TestReduceEmptyInputFallsBackToFill(t *testing.T) {
	tunings, err := microtonalist.MergeTuningReducer{Tolerance: 0.5}.Reduce(nil, zeroFill("fill"))
	if err != nil {
		t.Fatalf("reduce failed: %v", err)
	}
	if len(tunings) != 1 {
		t.Fatalf("got %d tunings, want 1", len(tunings))
	}
}
