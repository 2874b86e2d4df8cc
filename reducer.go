package microtonalist

import (
	"errors"
	"strings"
)

type (
	// TuningReducer turns the per-section partial tunings of a composition
	// into the final ordered list of complete tunings the performer switches
	// between. globalFill supplies deviations for pitch classes no section
	// defines. The set of implementations is closed: DirectTuningReducer and
	// MergeTuningReducer.
	TuningReducer interface {
		Reduce(partials []PartialTuning, globalFill PartialTuning) ([]Tuning, error)
	}

	// DirectTuningReducer produces one tuning per section, filling each
	// section only from the global fill.
	DirectTuningReducer struct{}

	// MergeTuningReducer greedily merges consecutive sections that are
	// compatible within Tolerance cents into a single tuning, minimizing the
	// number of switches during performance. Merged groups are then filled
	// from their neighbors before falling back to the global fill.
	MergeTuningReducer struct {
		Tolerance float64
	}

	// IncompleteTuningsError aggregates the sections that remained incomplete
	// after all fill passes.
	IncompleteTuningsError struct {
		Sections []*IncompleteTuningError
	}
)

// Reduce resolves each partial independently after enriching it with the
// global fill.
func (r DirectTuningReducer) Reduce(partials []PartialTuning, globalFill PartialTuning) ([]Tuning, error) {
	if len(partials) == 0 {
		return resolveAll([]PartialTuning{globalFill})
	}
	filled := make([]PartialTuning, len(partials))
	for i, p := range partials {
		filled[i] = p.Enrich(globalFill)
	}
	return resolveAll(filled)
}

// Reduce merges consecutive compatible partials into groups, then fills every
// group first from the already-filled preceding group, then from the following
// groups, then from the global fill. The fill passes run over the merged
// groups, not the original sections, so a pitch class missing in one group can
// inherit a value from either neighbor even though merging scans left to
// right.
func (r MergeTuningReducer) Reduce(partials []PartialTuning, globalFill PartialTuning) ([]Tuning, error) {
	if len(partials) == 0 {
		return resolveAll([]PartialTuning{globalFill})
	}
	groups := r.mergeConsecutive(partials)

	// forward[i] is groups[i..] collapsed by left-biased enrichment; it is
	// what a group may borrow from everything that follows it.
	forward := make([]PartialTuning, len(groups))
	forward[len(groups)-1] = groups[len(groups)-1]
	for i := len(groups) - 2; i >= 0; i-- {
		forward[i] = groups[i].Enrich(forward[i+1])
	}

	filled := make([]PartialTuning, len(groups))
	for i, g := range groups {
		if i > 0 {
			g = g.Enrich(filled[i-1])
		}
		if i+1 < len(groups) {
			g = g.Enrich(forward[i+1])
		}
		filled[i] = g.Enrich(globalFill)
	}
	return resolveAll(filled)
}

// mergeConsecutive is a single greedy left-to-right pass: each incoming
// partial is merged into the accumulated group until the first conflict,
// which closes the group and starts a new one. A merged group is named by
// joining its section names.
func (r MergeTuningReducer) mergeConsecutive(partials []PartialTuning) []PartialTuning {
	groups := make([]PartialTuning, 0, len(partials))
	acc := partials[0]
	names := []string{partials[0].Name}
	for _, p := range partials[1:] {
		if merged, ok := acc.Merge(p, r.Tolerance); ok {
			acc = merged
			if p.Name != "" && p.Name != names[len(names)-1] {
				names = append(names, p.Name)
			}
			continue
		}
		acc.Name = strings.Join(names, " | ")
		groups = append(groups, acc)
		acc = p
		names = []string{p.Name}
	}
	acc.Name = strings.Join(names, " | ")
	return append(groups, acc)
}

func resolveAll(partials []PartialTuning) ([]Tuning, error) {
	tunings := make([]Tuning, 0, len(partials))
	var incomplete []*IncompleteTuningError
	for _, p := range partials {
		t, err := p.Resolve(p.Name)
		if err != nil {
			var ie *IncompleteTuningError
			if errors.As(err, &ie) {
				incomplete = append(incomplete, ie)
				continue
			}
			return nil, err
		}
		tunings = append(tunings, t)
	}
	if incomplete != nil {
		return nil, &IncompleteTuningsError{Sections: incomplete}
	}
	return tunings, nil
}

func (e *IncompleteTuningsError) Error() string {
	sections := make([]string, len(e.Sections))
	for i, s := range e.Sections {
		sections[i] = s.Error()
	}
	return "tuning reduction left incomplete tunings: " + strings.Join(sections, "; ")
}
