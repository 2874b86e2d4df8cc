package microtonalist

import (
	"fmt"
	"math"
	"strings"
)

// centsEpsilon absorbs the float noise of the cents conversions, so that two
// deviations computed from the same interval through different arithmetic
// never count as distinct.
const centsEpsilon = 1e-6

type (
	// OptionalCents is a cent deviation that may be absent, because the scale
	// being mapped did not use the pitch class.
	OptionalCents struct {
		value  float64
		exists bool
	}

	// Tuning is a named, complete keyboard tuning: one cent deviation from
	// 12-EDO for each of the 12 pitch classes. The zero value is the standard
	// 12-EDO tuning with an empty name. Tunings are value types and are never
	// mutated after construction.
	Tuning struct {
		Name       string
		Deviations [NumPitchClasses]float64 `yaml:",flow"`
	}

	// PartialTuning is a keyboard tuning where some pitch classes may not have
	// a deviation yet. Partial tunings are produced by the mappers, one per
	// composition section, and combined by the reducers into complete Tunings.
	PartialTuning struct {
		Name       string
		Deviations [NumPitchClasses]OptionalCents
	}

	// IncompleteTuningError reports a partial tuning that could not be
	// resolved into a complete Tuning, listing the undefined pitch classes.
	IncompleteTuningError struct {
		Name         string
		PitchClasses []int
	}
)

func CentsOf(value float64) OptionalCents {
	return OptionalCents{value: value, exists: true}
}

func NoCents() OptionalCents {
	return OptionalCents{}
}

func (c OptionalCents) Unpack() (float64, bool) {
	return c.value, c.exists
}

func (c OptionalCents) Value() float64 {
	if !c.exists {
		panic("access value of empty OptionalCents")
	}
	return c.value
}

func (c OptionalCents) Empty() bool {
	return !c.exists
}

// StandardTuning returns the all-zero 12-EDO tuning.
func StandardTuning() Tuning {
	return Tuning{Name: "Standard (12-EDO)"}
}

// Deviation returns the cent deviation of the given pitch class, modulo 12.
func (t Tuning) Deviation(pitchClass int) float64 {
	return t.Deviations[((pitchClass%NumPitchClasses)+NumPitchClasses)%NumPitchClasses]
}

func (t Tuning) String() string {
	values := make([]string, NumPitchClasses)
	for i, d := range t.Deviations {
		values[i] = fmt.Sprintf("%s=%+.2f", pitchClassNames[i], d)
	}
	return fmt.Sprintf("%s: %s", t.Name, strings.Join(values, " "))
}

// NewPartialTuning creates a partial tuning where every pitch class is
// undefined.
func NewPartialTuning(name string) PartialTuning {
	return PartialTuning{Name: name}
}

// IsComplete reports whether every pitch class has a deviation.
func (p PartialTuning) IsComplete() bool {
	for _, d := range p.Deviations {
		if d.Empty() {
			return false
		}
	}
	return true
}

// Resolve converts the partial tuning into a complete Tuning with the given
// name, failing with an IncompleteTuningError if any pitch class is still
// undefined.
func (p PartialTuning) Resolve(name string) (Tuning, error) {
	result := Tuning{Name: name}
	var missing []int
	for i, d := range p.Deviations {
		if value, ok := d.Unpack(); ok {
			result.Deviations[i] = value
		} else {
			missing = append(missing, i)
		}
	}
	if missing != nil {
		return Tuning{}, &IncompleteTuningError{Name: name, PitchClasses: missing}
	}
	return result, nil
}

// Enrich fills the undefined pitch classes of p from other. It is left-biased:
// a pitch class defined in p always keeps p's value. The result keeps p's
// name.
func (p PartialTuning) Enrich(other PartialTuning) PartialTuning {
	result := PartialTuning{Name: p.Name}
	for i, d := range p.Deviations {
		if d.Empty() {
			result.Deviations[i] = other.Deviations[i]
		} else {
			result.Deviations[i] = d
		}
	}
	return result
}

// Merge combines two partial tunings into one if they are compatible: for
// every pitch class defined on both sides the values must agree within
// tolerance cents, otherwise the merge fails as a whole and ok is false. A
// pitch class defined on just one side is kept. The result keeps p's name and,
// where both sides define a value, p's value, so Merge is commutative up to
// the tolerance.
func (p PartialTuning) Merge(other PartialTuning, tolerance float64) (result PartialTuning, ok bool) {
	result = PartialTuning{Name: p.Name}
	for i := range p.Deviations {
		a, aOk := p.Deviations[i].Unpack()
		b, bOk := other.Deviations[i].Unpack()
		switch {
		case aOk && bOk:
			if math.Abs(a-b) > tolerance+centsEpsilon {
				return PartialTuning{}, false
			}
			result.Deviations[i] = CentsOf(a)
		case aOk:
			result.Deviations[i] = CentsOf(a)
		case bOk:
			result.Deviations[i] = CentsOf(b)
		}
	}
	return result, true
}

func (e *IncompleteTuningError) Error() string {
	names := make([]string, len(e.PitchClasses))
	for i, pc := range e.PitchClasses {
		names[i] = PitchClassName(pc)
	}
	return fmt.Sprintf("tuning %q has no deviation for pitch classes %s",
		e.Name, strings.Join(names, ", "))
}
