package microtonalist

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// NumPitchClasses is the number of pitch classes on a standard keyboard
	// octave (C..B). All tunings in this package are keyed by pitch class.
	NumPitchClasses = 12

	CentsPerOctave   = 1200.0
	CentsPerSemitone = 100.0
)

// pitchClassNames is used in error messages and tuning value listings.
var pitchClassNames = [NumPitchClasses]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// PitchClassName returns the note name of a pitch class, taking the value
// modulo 12 so callers can pass raw semitone counts.
func PitchClassName(pitchClass int) string {
	return pitchClassNames[((pitchClass%NumPitchClasses)+NumPitchClasses)%NumPitchClasses]
}

type (
	// Interval is a musical interval relative to some base pitch, expressed in
	// one of the supported intonation standards. The set of implementations is
	// closed: CentsInterval, RatioInterval and EdoInterval. Mapping only ever
	// needs the logarithmic size of the interval, so a single Cents method
	// suffices.
	Interval interface {
		Cents() float64
	}

	// CentsInterval is an interval given directly in cents.
	CentsInterval float64

	// RatioInterval is a just intonation interval given as a frequency ratio.
	RatioInterval struct {
		Numerator   int64
		Denominator int64
	}

	// EdoInterval is an interval of Count steps in an equal division of the
	// octave into Edo steps.
	EdoInterval struct {
		Edo   int
		Count int
	}

	// Scale is an ordered sequence of intervals relative to a reference pitch.
	// The first interval is typically the unison. Scales arrive here from an
	// external format layer already resolved; this package never parses files.
	Scale struct {
		Name      string
		Intervals []Interval
	}

	// PitchReference anchors a scale to the keyboard: the scale's base pitch
	// is PitchClass, possibly offset from its 12-EDO position by Deviation
	// cents.
	PitchReference struct {
		PitchClass int     `yaml:"pitchClass"`
		Deviation  float64 `yaml:"deviation"`
	}
)

func (i CentsInterval) Cents() float64 { return float64(i) }

func (i CentsInterval) String() string {
	return strconv.FormatFloat(float64(i), 'f', -1, 64) + "c"
}

func (i RatioInterval) Cents() float64 {
	return CentsPerOctave * math.Log2(float64(i.Numerator)/float64(i.Denominator))
}

func (i RatioInterval) String() string {
	return fmt.Sprintf("%d/%d", i.Numerator, i.Denominator)
}

func (i EdoInterval) Cents() float64 {
	return CentsPerOctave * float64(i.Count) / float64(i.Edo)
}

func (i EdoInterval) String() string {
	return fmt.Sprintf("%d\\%d", i.Count, i.Edo)
}

// NewScale creates a scale from the given intervals.
func NewScale(name string, intervals ...Interval) Scale {
	return Scale{Name: name, Intervals: intervals}
}

// EdoScale creates a scale in an equal division of the octave. Each interval
// is given as a (semitones, offset) pair: the nominal 12-EDO semitone count
// plus an offset in EDO steps. E.g. in 72-EDO, (4, -1) is 4 semitones lowered
// by 1/72 octave, about 383.33 cents.
func EdoScale(name string, edo int, intervals ...[2]int) Scale {
	result := Scale{Name: name, Intervals: make([]Interval, len(intervals))}
	for i, pair := range intervals {
		count := pair[0]*edo/12 + pair[1]
		result.Intervals[i] = EdoInterval{Edo: edo, Count: count}
	}
	return result
}

// Copy makes a deep copy of the Scale.
func (s Scale) Copy() Scale {
	intervals := make([]Interval, len(s.Intervals))
	copy(intervals, s.Intervals)
	return Scale{Name: s.Name, Intervals: intervals}
}

// Cents returns the absolute position of the reference in cents, relative to
// pitch class C.
func (r PitchReference) Cents() float64 {
	return float64(r.PitchClass)*CentsPerSemitone + r.Deviation
}

// ParseInterval parses the textual interval notations used in scale files:
// "n/d" is a just ratio, "k\N" is k steps of N-EDO, and a number containing a
// decimal point is a value in cents (the Scala convention: integers without a
// dot are ratios over 1).
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty interval")
	}
	if num, den, found := strings.Cut(s, "/"); found {
		n, err := strconv.ParseInt(num, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ratio interval %q: %v", s, err)
		}
		d, err := strconv.ParseInt(den, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ratio interval %q: %v", s, err)
		}
		if n <= 0 || d <= 0 {
			return nil, fmt.Errorf("invalid ratio interval %q: ratio must be positive", s)
		}
		return RatioInterval{Numerator: n, Denominator: d}, nil
	}
	if count, edo, found := strings.Cut(s, "\\"); found {
		c, err := strconv.Atoi(count)
		if err != nil {
			return nil, fmt.Errorf("invalid EDO interval %q: %v", s, err)
		}
		e, err := strconv.Atoi(edo)
		if err != nil {
			return nil, fmt.Errorf("invalid EDO interval %q: %v", s, err)
		}
		if e <= 0 {
			return nil, fmt.Errorf("invalid EDO interval %q: division must be positive", s)
		}
		return EdoInterval{Edo: e, Count: c}, nil
	}
	if strings.ContainsAny(s, ".") {
		c, err := strconv.ParseFloat(strings.TrimSuffix(s, "c"), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cents interval %q: %v", s, err)
		}
		return CentsInterval(c), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid interval %q: %v", s, err)
	}
	if n <= 0 {
		return nil, fmt.Errorf("invalid ratio interval %q: ratio must be positive", s)
	}
	return RatioInterval{Numerator: n, Denominator: 1}, nil
}
