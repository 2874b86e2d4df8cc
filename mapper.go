package microtonalist

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultHalfTolerance is how close to an exact quarter tone (half semitone)
// an interval must land for the quarter-tone rounding policy to apply instead
// of ordinary rounding, in cents.
const DefaultHalfTolerance = 5.0

type (
	// TuningMapper converts a scale anchored at a reference pitch into a
	// partial keyboard tuning. The set of implementations is closed:
	// AutoTuningMapper classifies intervals by rounding them to the nearest
	// semitone, ManualTuningMapper follows a user-authored keyboard mapping.
	TuningMapper interface {
		Map(scale Scale, ref PitchReference) (PartialTuning, error)
	}

	// PitchClassDeviation is the atomic unit produced while mapping one scale
	// interval: a pitch class and its deviation from 12-EDO in cents.
	PitchClassDeviation struct {
		PitchClass int
		Deviation  float64
	}

	// AutoTuningMapper maps each interval to the pitch class of its nearest
	// semitone. Intervals landing within HalfTolerance cents of an exact
	// quarter tone are rounded down when MapQuarterTonesLow is set, up
	// otherwise, so quarter-tone scales map deterministically instead of
	// depending on float rounding ties.
	AutoTuningMapper struct {
		MapQuarterTonesLow bool
		HalfTolerance      float64
	}

	// ManualTuningMapper maps scale degrees to pitch classes exactly as given
	// by the keyboard mapping, failing if any assignment would need a
	// deviation of a whole semitone or more.
	ManualTuningMapper struct {
		KeyboardMapping KeyboardMapping
	}

	// KeyboardMapping assigns each of the 12 pitch classes either no scale
	// degree (-1) or the index of a scale degree.
	KeyboardMapping struct {
		Degrees [NumPitchClasses]int `yaml:",flow"`
	}

	// PitchClassConflict is one offending group of a mapping conflict: a
	// pitch class that received two or more distinct deviations.
	PitchClassConflict struct {
		PitchClass int
		Deviations []float64
	}

	// TuningMapperConflictError reports all pitch classes for which the
	// automatic mapper derived incompatible deviations. No partial result is
	// available; the scale cannot be mapped as requested.
	TuningMapperConflictError struct {
		Scale     string
		Conflicts []PitchClassConflict
	}

	// TuningMapperOverflowError reports a manual assignment whose deviation
	// falls outside the open interval (-100, 100) cents. A deviation of a
	// full semitone means the degree belongs on a neighboring pitch class.
	TuningMapperOverflowError struct {
		Scale      string
		PitchClass int
		Deviation  float64
	}
)

// NewAutoTuningMapper creates an automatic mapper with the default
// quarter-tone tolerance.
func NewAutoTuningMapper(mapQuarterTonesLow bool) AutoTuningMapper {
	return AutoTuningMapper{MapQuarterTonesLow: mapQuarterTonesLow, HalfTolerance: DefaultHalfTolerance}
}

// NewKeyboardMapping creates a mapping with every pitch class unassigned.
func NewKeyboardMapping() KeyboardMapping {
	var m KeyboardMapping
	for i := range m.Degrees {
		m.Degrees[i] = -1
	}
	return m
}

// Map classifies every distinct octave-reduced interval of the scale onto a
// pitch class and checks that no pitch class ends up claimed with two
// different deviations.
func (m AutoTuningMapper) Map(scale Scale, ref PitchReference) (PartialTuning, error) {
	groups := make(map[int][]float64)
	for _, interval := range scale.Intervals {
		d := m.classify(ref.Cents() + interval.Cents())
		if !containsCents(groups[d.PitchClass], d.Deviation) {
			groups[d.PitchClass] = append(groups[d.PitchClass], d.Deviation)
		}
	}
	var conflicts []PitchClassConflict
	for pc, deviations := range groups {
		if len(deviations) > 1 {
			sort.Float64s(deviations)
			conflicts = append(conflicts, PitchClassConflict{PitchClass: pc, Deviations: deviations})
		}
	}
	if conflicts != nil {
		sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].PitchClass < conflicts[j].PitchClass })
		return PartialTuning{}, &TuningMapperConflictError{Scale: scale.Name, Conflicts: conflicts}
	}
	result := PartialTuning{Name: scale.Name}
	for pc, deviations := range groups {
		result.Deviations[pc] = CentsOf(deviations[0])
	}
	return result, nil
}

// classify rounds an absolute cents value to its nearest semitone, applying
// the quarter-tone policy for values close to an exact half semitone, and
// returns the semitone's pitch class together with the remainder.
func (m AutoTuningMapper) classify(cents float64) PitchClassDeviation {
	semitones := cents / CentsPerSemitone
	low := math.Floor(semitones)
	var rounded int
	if math.Abs(semitones-low-0.5) <= m.HalfTolerance/CentsPerSemitone+centsEpsilon {
		if m.MapQuarterTonesLow {
			rounded = int(low)
		} else {
			rounded = int(low) + 1
		}
	} else {
		rounded = int(math.Round(semitones))
	}
	return PitchClassDeviation{
		PitchClass: ((rounded % NumPitchClasses) + NumPitchClasses) % NumPitchClasses,
		Deviation:  cents - float64(rounded)*CentsPerSemitone,
	}
}

func containsCents(values []float64, value float64) bool {
	for _, v := range values {
		if math.Abs(v-value) <= centsEpsilon {
			return true
		}
	}
	return false
}

// Map places each assigned scale degree on its configured pitch class,
// deriving the deviation from the degree's octave-reduced position. The
// deviation window is centered around the pitch class's nominal position,
// which for pitch class C picks whichever of the two octave-adjacent
// representations is closer to zero.
func (m ManualTuningMapper) Map(scale Scale, ref PitchReference) (PartialTuning, error) {
	result := PartialTuning{Name: scale.Name}
	for pc, degree := range m.KeyboardMapping.Degrees {
		if degree < 0 {
			continue
		}
		if degree >= len(scale.Intervals) {
			return PartialTuning{}, fmt.Errorf("keyboard mapping assigns pitch class %s to degree %d but scale %q has only %d intervals",
				PitchClassName(pc), degree, scale.Name, len(scale.Intervals))
		}
		reduced := math.Mod(ref.Cents()+scale.Intervals[degree].Cents(), CentsPerOctave)
		if reduced < 0 {
			reduced += CentsPerOctave
		}
		deviation := reduced - float64(pc)*CentsPerSemitone
		if deviation > CentsPerOctave/2 {
			deviation -= CentsPerOctave
		} else if deviation <= -CentsPerOctave/2 {
			deviation += CentsPerOctave
		}
		if deviation <= -CentsPerSemitone || deviation >= CentsPerSemitone {
			return PartialTuning{}, &TuningMapperOverflowError{Scale: scale.Name, PitchClass: pc, Deviation: deviation}
		}
		result.Deviations[pc] = CentsOf(deviation)
	}
	return result, nil
}

func (e *TuningMapperConflictError) Error() string {
	groups := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		values := make([]string, len(c.Deviations))
		for j, d := range c.Deviations {
			values[j] = fmt.Sprintf("%+.2f", d)
		}
		groups[i] = fmt.Sprintf("%s: {%s}", PitchClassName(c.PitchClass), strings.Join(values, ", "))
	}
	return fmt.Sprintf("cannot map scale %q: conflicting deviations for %s", e.Scale, strings.Join(groups, "; "))
}

func (e *TuningMapperOverflowError) Error() string {
	return fmt.Sprintf("cannot map scale %q: deviation %+.2f cents on pitch class %s is outside (-100, 100)",
		e.Scale, e.Deviation, PitchClassName(e.PitchClass))
}
