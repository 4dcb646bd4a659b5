package phase

import (
	"fmt"
	"math"

	"github.com/san-kum/cyclophase/internal/filter"
	"github.com/san-kum/cyclophase/internal/series"
)

// Preprocessor filters and smooths a raw signal.
type Preprocessor interface {
	Process(values []float64, w filter.Windows) (filter.Processed, error)
}

// Hemisphere selects the sign of cyclonic vorticity.
type Hemisphere string

const (
	South Hemisphere = "south"
	North Hemisphere = "north"
)

// DegeneratePolicy decides what a constant signal produces.
type DegeneratePolicy string

const (
	// DegenerateFail returns ErrDegenerateSignal.
	DegenerateFail DegeneratePolicy = "fail"
	// DegenerateResidual returns a single residual phase spanning the series.
	DegenerateResidual DegeneratePolicy = "residual"
)

// Params are the per-run segmentation inputs. A MinIncipientLength of zero
// disables incipient suppression.
type Params struct {
	filter.Windows
	MinIncipientLength int
}

// Options tune the segmentation rules.
type Options struct {
	Preprocessor Preprocessor
	Hemisphere   Hemisphere
	Degenerate   DegeneratePolicy

	// FlatFraction of the peak tendency below which a sample counts as flat.
	FlatFraction float64
	// MatureFraction of the adjacent stage's peak tendency that bounds a mature stage.
	MatureFraction float64
	// IncipientFraction of an opening intensification relabelled incipient.
	IncipientFraction float64
	// MinRunLength in samples; zero derives max(2, n/25).
	MinRunLength int
}

func DefaultOptions() Options {
	return Options{
		Preprocessor:      filter.NewChain(),
		Hemisphere:        South,
		Degenerate:        DegenerateFail,
		FlatFraction:      0.15,
		MatureFraction:    0.5,
		IncipientFraction: 0.3,
	}
}

// Result carries the phase set together with the processed signal it was derived from.
type Result struct {
	Set       *Set
	Processed filter.Processed
	Tendency  []float64
}

// Segmenter derives phase sets. It holds no mutable state.
type Segmenter struct {
	opts Options
}

func NewSegmenter(opts Options) *Segmenter {
	def := DefaultOptions()
	if opts.Preprocessor == nil {
		opts.Preprocessor = def.Preprocessor
	}
	if opts.Hemisphere == "" {
		opts.Hemisphere = def.Hemisphere
	}
	if opts.Degenerate == "" {
		opts.Degenerate = def.Degenerate
	}
	if opts.FlatFraction <= 0 {
		opts.FlatFraction = def.FlatFraction
	}
	if opts.MatureFraction <= 0 {
		opts.MatureFraction = def.MatureFraction
	}
	if opts.IncipientFraction <= 0 {
		opts.IncipientFraction = def.IncipientFraction
	}
	return &Segmenter{opts: opts}
}

// Segment runs the default segmenter and returns only the phase set.
func Segment(signal series.TimeSeries, p Params) (*Set, error) {
	res, err := NewSegmenter(DefaultOptions()).Segment(signal, p)
	if err != nil {
		return nil, err
	}
	return res.Set, nil
}

// Segment labels every sample of signal with a phase kind and groups the
// labels into chronologically ordered phases.
func (s *Segmenter) Segment(signal series.TimeSeries, p Params) (*Result, error) {
	n := signal.Len()
	if n < 3 {
		return nil, fmt.Errorf("%d samples: %w", n, series.ErrInsufficientData)
	}
	if err := p.Windows.Validate(); err != nil {
		return nil, err
	}

	z := make([]float64, n)
	copy(z, signal.Values)
	if s.opts.Hemisphere == North {
		for i := range z {
			z[i] = -z[i]
		}
	}

	proc, err := s.opts.Preprocessor.Process(z, p.Windows)
	if err != nil {
		return nil, err
	}
	if len(proc.Smoothed2) != n {
		return nil, fmt.Errorf("preprocessor returned %d samples for %d", len(proc.Smoothed2), n)
	}

	d := gradient(proc.Smoothed2)
	tol := Tolerance(n, signal.Step())

	kinds, ok := s.classify(d, p.MinIncipientLength, peakAbs(z))
	if !ok || constant(z) {
		if s.opts.Degenerate != DegenerateResidual {
			return nil, fmt.Errorf("no phase boundaries in %d samples: %w", n, series.ErrDegenerateSignal)
		}
		first, last := signal.Span()
		set, _ := NewSet([]Phase{{Kind: Residual, Instance: 1, Start: first, End: last}}, tol)
		return &Result{Set: set, Processed: proc, Tendency: d}, nil
	}

	var phases []Phase
	count := make(map[Kind]int, len(Kinds))
	for _, r := range runsOf(kinds) {
		count[r.val]++
		phases = append(phases, Phase{
			Kind:     r.val,
			Instance: count[r.val],
			Start:    signal.Times[r.start],
			End:      signal.Times[r.end],
		})
	}

	set, err := NewSet(phases, tol)
	if err != nil {
		return nil, err
	}
	return &Result{Set: set, Processed: proc, Tendency: d}, nil
}

// classify assigns a kind to every sample. It reports false when the
// tendency shows no intensification or decay at all, or only rounding noise
// relative to the signal scale.
func (s *Segmenter) classify(d []float64, minIncipient int, scale float64) ([]Kind, bool) {
	n := len(d)
	peak := peakAbs(d)
	if peak == 0 || peak <= 1e-12*scale {
		return nil, false
	}

	eps := s.opts.FlatFraction * peak
	labels := make([]int, n)
	for i, v := range d {
		switch {
		case v < -eps:
			labels[i] = -1
		case v > eps:
			labels[i] = 1
		}
	}

	minRun := s.opts.MinRunLength
	if minRun <= 0 {
		minRun = max(2, n/25)
	}
	mergeShortRuns(labels, minRun)

	lruns := runsOf(labels)
	structured := false
	for _, r := range lruns {
		if r.val != 0 {
			structured = true
		}
	}
	if !structured {
		return nil, false
	}

	kinds := make([]Kind, n)
	for i, r := range lruns {
		k := Residual
		switch r.val {
		case -1:
			k = Intensification
		case 1:
			k = Decay
		default:
			hasNext := i+1 < len(lruns)
			switch {
			case i == 0:
				k = Incipient
			case lruns[i-1].val == -1 && (!hasNext || lruns[i+1].val == 1):
				k = Mature
			case lruns[i-1].val == -1:
				k = Intensification
			case hasNext:
				k = Decay
			}
		}
		fill(kinds, r.start, r.end, k)
	}

	// A turn with no flat stretch gets a mature stage at the turning point.
	for i := 1; i < n; i++ {
		if kinds[i-1] == Intensification && kinds[i] == Decay {
			kinds[i-1], kinds[i] = Mature, Mature
		}
	}

	s.expandMature(kinds, d)

	krs := runsOf(kinds)
	if first := krs[0]; first.val == Intensification {
		length := first.end - first.start + 1
		carve := max(1, int(math.Ceil(s.opts.IncipientFraction*float64(length))))
		if carve < length {
			fill(kinds, first.start, first.start+carve-1, Incipient)
		}
	}

	krs = runsOf(kinds)
	if first := krs[0]; first.val == Incipient && minIncipient > 0 && len(krs) > 1 {
		if first.end-first.start+1 < minIncipient {
			fill(kinds, first.start, first.end, krs[1].val)
		}
	}

	return kinds, true
}

// expandMature grows every mature stage into its neighbouring intensification
// and decay while the tendency stays below MatureFraction of that stage's peak.
func (s *Segmenter) expandMature(kinds []Kind, d []float64) {
	krs := runsOf(kinds)
	for i, r := range krs {
		if r.val != Mature {
			continue
		}
		if i > 0 && krs[i-1].val == Intensification {
			prev := krs[i-1]
			limit := s.opts.MatureFraction * peakAbs(d[prev.start : prev.end+1])
			for j := r.start - 1; j > prev.start && math.Abs(d[j]) < limit; j-- {
				kinds[j] = Mature
			}
		}
		if i+1 < len(krs) && krs[i+1].val == Decay {
			next := krs[i+1]
			limit := s.opts.MatureFraction * peakAbs(d[next.start : next.end+1])
			for j := r.end + 1; j < next.end && math.Abs(d[j]) < limit; j++ {
				kinds[j] = Mature
			}
		}
	}
}

// mergeShortRuns absorbs runs shorter than minRun into the preceding run,
// or the following one for the first run, until none remain.
func mergeShortRuns(labels []int, minRun int) {
	for {
		rs := runsOf(labels)
		if len(rs) <= 1 {
			return
		}
		merged := false
		for i, r := range rs {
			if r.end-r.start+1 >= minRun {
				continue
			}
			target := 0
			if i > 0 {
				target = rs[i-1].val
			} else {
				target = rs[i+1].val
			}
			fill(labels, r.start, r.end, target)
			merged = true
			break
		}
		if !merged {
			return
		}
	}
}

type run[T comparable] struct {
	start, end int
	val        T
}

func runsOf[T comparable](xs []T) []run[T] {
	var out []run[T]
	start := 0
	for i := 1; i <= len(xs); i++ {
		if i == len(xs) || xs[i] != xs[start] {
			out = append(out, run[T]{start: start, end: i - 1, val: xs[start]})
			start = i
		}
	}
	return out
}

func fill[T any](xs []T, from, to int, v T) {
	for i := from; i <= to; i++ {
		xs[i] = v
	}
}

// gradient returns central differences with one-sided ends.
func gradient(x []float64) []float64 {
	n := len(x)
	d := make([]float64, n)
	if n < 2 {
		return d
	}
	d[0] = x[1] - x[0]
	d[n-1] = x[n-1] - x[n-2]
	for i := 1; i < n-1; i++ {
		d[i] = (x[i+1] - x[i-1]) / 2
	}
	return d
}

func peakAbs(x []float64) float64 {
	p := 0.0
	for _, v := range x {
		p = math.Max(p, math.Abs(v))
	}
	return p
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
