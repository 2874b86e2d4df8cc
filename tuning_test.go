package microtonalist_test

import (
	"errors"
	"reflect"
	"testing"

	microtonalist "github.com/calinburloiu/microtonalist-sub001"
)

func partialOf(name string, deviations map[int]float64) microtonalist.PartialTuning {
	p := microtonalist.NewPartialTuning(name)
	for pc, d := range deviations {
		p.Deviations[pc] = microtonalist.CentsOf(d)
	}
	return p
}

func TestStandardTuningIsAllZero(t *testing.T) {
	s := microtonalist.StandardTuning()
	for pc := 0; pc < microtonalist.NumPitchClasses; pc++ {
		if s.Deviation(pc) != 0 {
			t.Fatalf("standard tuning has deviation %v at pitch class %d", s.Deviation(pc), pc)
		}
	}
}

func TestEnrichIsLeftBiased(t *testing.T) {
	a := partialOf("a", map[int]float64{0: 5, 4: -14, 7: 2})
	b := partialOf("b", map[int]float64{0: 50, 2: 4, 7: -2, 11: -12})
	got := a.Enrich(b)
	for pc := 0; pc < microtonalist.NumPitchClasses; pc++ {
		want := a.Deviations[pc]
		if want.Empty() {
			want = b.Deviations[pc]
		}
		if !reflect.DeepEqual(got.Deviations[pc], want) {
			t.Errorf("enrich at pitch class %d: got %v, want %v", pc, got.Deviations[pc], want)
		}
	}
	if got.Name != "a" {
		t.Errorf("enrich should keep the receiver name, got %q", got.Name)
	}
}

func TestMergeIsCommutativeOnSuccess(t *testing.T) {
	a := partialOf("a", map[int]float64{0: 0, 4: -14, 7: 2})
	b := partialOf("b", map[int]float64{0: 0, 2: 4, 7: 2})
	ab, okAB := a.Merge(b, 0.5)
	ba, okBA := b.Merge(a, 0.5)
	if !okAB || !okBA {
		t.Fatalf("merge of compatible partials failed: ab=%v ba=%v", okAB, okBA)
	}
	if ab.Deviations != ba.Deviations {
		t.Fatalf("merge not commutative: %v vs %v", ab.Deviations, ba.Deviations)
	}
}

func TestMergeConflictFailsTotally(t *testing.T) {
	a := partialOf("a", map[int]float64{0: 0, 4: -14})
	b := partialOf("b", map[int]float64{2: 4, 4: 16})
	if _, ok := a.Merge(b, 5); ok {
		t.Fatalf("merge of conflicting partials should fail")
	}
	if _, ok := b.Merge(a, 5); ok {
		t.Fatalf("merge conflict should fail in both directions")
	}
	// within tolerance the same pair unifies
	if _, ok := a.Merge(b, 30); !ok {
		t.Fatalf("merge within tolerance should succeed")
	}
}

func TestResolveIncompleteListsPitchClasses(t *testing.T) {
	p := partialOf("rast", map[int]float64{0: 0, 2: 0, 4: -50})
	if p.IsComplete() {
		t.Fatalf("partial with 3 deviations should not be complete")
	}
	_, err := p.Resolve("rast")
	var incomplete *microtonalist.IncompleteTuningError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteTuningError, got %v", err)
	}
	want := []int{1, 3, 5, 6, 7, 8, 9, 10, 11}
	if !reflect.DeepEqual(incomplete.PitchClasses, want) {
		t.Fatalf("missing pitch classes: got %v, want %v", incomplete.PitchClasses, want)
	}
}

func TestResolveComplete(t *testing.T) {
	p := microtonalist.NewPartialTuning("all")
	for pc := range p.Deviations {
		p.Deviations[pc] = microtonalist.CentsOf(float64(pc))
	}
	tuning, err := p.Resolve("all")
	if err != nil {
		t.Fatalf("resolve of complete partial failed: %v", err)
	}
	for pc := 0; pc < microtonalist.NumPitchClasses; pc++ {
		if tuning.Deviation(pc) != float64(pc) {
			t.Errorf("deviation at %d: got %v, want %v", pc, tuning.Deviation(pc), float64(pc))
		}
	}
}
