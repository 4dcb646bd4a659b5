package phase

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/cyclophase/internal/series"
)

// ShortSeriesLength is the sample count below which shading windows are
// widened by one sampling unit.
const ShortSeriesLength = 50

// Phase is one labelled life-cycle segment. Instance numbers start at 1 and
// count occurrences of the same kind in chronological order.
type Phase struct {
	Kind     Kind
	Instance int
	Start    time.Time
	End      time.Time
}

// Name returns the full identity: "decay" for the first occurrence, "decay 2" for the second.
func (p Phase) Name() string {
	if p.Instance <= 1 {
		return p.Kind.String()
	}
	return p.Kind.String() + " " + strconv.Itoa(p.Instance)
}

// BaseName returns the grouping key used for styling and legends.
func (p Phase) BaseName() Kind {
	return p.Kind
}

// Contains reports whether t lies in [Start, End].
func (p Phase) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Duration returns End - Start.
func (p Phase) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// ParseName splits a full phase name into kind and instance.
func ParseName(name string) (Kind, int, error) {
	fields := strings.Fields(name)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, 0, fmt.Errorf("invalid phase name %q", name)
	}
	k, err := ParseKind(fields[0])
	if err != nil {
		return 0, 0, err
	}
	instance := 1
	if len(fields) == 2 {
		instance, err = strconv.Atoi(fields[1])
		if err != nil || instance < 1 {
			return 0, 0, fmt.Errorf("invalid phase instance in %q", name)
		}
	}
	return k, instance, nil
}

// Tolerance returns the shading widening for a series of n samples with the given step.
func Tolerance(n int, step time.Duration) time.Duration {
	if n >= ShortSeriesLength {
		return 0
	}
	return step
}

// Set is an ordered, immutable collection of phases.
type Set struct {
	phases    []Phase
	tolerance time.Duration
}

// NewSet validates ordering and returns a set owning a copy of phases.
func NewSet(phases []Phase, tolerance time.Duration) (*Set, error) {
	if tolerance < 0 {
		return nil, fmt.Errorf("negative tolerance %v", tolerance)
	}
	s := &Set{phases: append([]Phase(nil), phases...), tolerance: tolerance}
	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Set) check() error {
	for i, p := range s.phases {
		if p.End.Before(p.Start) {
			return &series.InputFormatError{Column: p.Name(), Err: fmt.Errorf("end %s before start %s", p.End.Format(time.RFC3339), p.Start.Format(time.RFC3339))}
		}
		if i == 0 {
			continue
		}
		prev := s.phases[i-1]
		if !p.Start.After(prev.Start) || p.Start.Before(prev.End) {
			return &series.InputFormatError{Column: p.Name(), Err: fmt.Errorf("overlaps or precedes %q", prev.Name())}
		}
	}
	return nil
}

func (s *Set) Len() int { return len(s.phases) }

func (s *Set) At(i int) Phase { return s.phases[i] }

// Phases returns a copy of the phases in chronological order.
func (s *Set) Phases() []Phase {
	return append([]Phase(nil), s.phases...)
}

func (s *Set) Tolerance() time.Duration { return s.tolerance }

// Window returns the shading window [Start, End+tolerance] of phase i.
func (s *Set) Window(i int) (time.Time, time.Time) {
	p := s.phases[i]
	return p.Start, p.End.Add(s.tolerance)
}

// Lookup finds a phase by full name.
func (s *Set) Lookup(name string) (Phase, bool) {
	for _, p := range s.phases {
		if p.Name() == name {
			return p, true
		}
	}
	return Phase{}, false
}

// Within checks that no phase leaves [first, last].
func (s *Set) Within(first, last time.Time) error {
	for _, p := range s.phases {
		if p.Start.Before(first) || p.End.After(last) {
			return fmt.Errorf("phase %q outside series span %s..%s", p.Name(), first.Format(time.RFC3339), last.Format(time.RFC3339))
		}
	}
	return nil
}

// Coverage returns the fraction of [first, last] covered by phases.
func (s *Set) Coverage(first, last time.Time) float64 {
	span := last.Sub(first)
	if span <= 0 {
		return 1
	}
	var covered time.Duration
	for _, p := range s.phases {
		covered += p.Duration()
	}
	return float64(covered) / float64(span)
}

// Kinds returns the distinct base names in first-occurrence order.
func (s *Set) Kinds() []Kind {
	seen := make(map[Kind]bool, len(Kinds))
	var out []Kind
	for _, p := range s.phases {
		if !seen[p.Kind] {
			seen[p.Kind] = true
			out = append(out, p.Kind)
		}
	}
	return out
}
