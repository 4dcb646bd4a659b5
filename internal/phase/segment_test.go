package phase

import (
	"math"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/san-kum/cyclophase/internal/filter"
	"github.com/san-kum/cyclophase/internal/series"
)

var t0 = time.Date(2023, 3, 7, 0, 0, 0, 0, time.UTC)

func track(t *testing.T, n int, f func(i int) float64) series.TimeSeries {
	t.Helper()
	times := make([]time.Time, n)
	values := make([]float64, n)
	for i := range times {
		times[i] = t0.Add(time.Duration(i) * time.Hour)
		values[i] = f(i)
	}
	s, err := series.New(times, values)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	return s
}

func params(t *testing.T, n int) Params {
	t.Helper()
	w, err := filter.DeriveWindows(n)
	if err != nil {
		t.Fatalf("windows: %v", err)
	}
	return Params{Windows: w}
}

func dip(i int) float64 {
	x := (float64(i) - 100) / 30
	return -1e-5*math.Exp(-x*x) - 1e-6 + 2e-7*math.Sin(2.7*float64(i))
}

func kindsOf(s *Set) []Kind {
	var out []Kind
	for _, p := range s.Phases() {
		out = append(out, p.Kind)
	}
	return out
}

func TestSegment_DipAndRecovery(t *testing.T) {
	g := NewWithT(t)
	sig := track(t, 200, dip)

	set, err := Segment(sig, params(t, 200))
	g.Expect(err).NotTo(HaveOccurred())

	kinds := kindsOf(set)
	if kinds[len(kinds)-1] == Residual {
		kinds = kinds[:len(kinds)-1]
	}
	g.Expect(kinds).To(Equal([]Kind{Incipient, Intensification, Mature, Decay}))

	for _, p := range set.Phases() {
		g.Expect(p.Instance).To(Equal(1), p.Name())
	}

	first, last := sig.Span()
	g.Expect(set.At(0).Start).To(Equal(first))
	g.Expect(set.At(set.Len() - 1).End).To(Equal(last))
	g.Expect(set.Within(first, last)).To(Succeed())
	g.Expect(set.Coverage(first, last)).To(BeNumerically(">", 0.97))
	g.Expect(set.Tolerance()).To(BeZero())
}

func TestSegment_Ordered(t *testing.T) {
	g := NewWithT(t)
	set, err := Segment(track(t, 200, dip), params(t, 200))
	g.Expect(err).NotTo(HaveOccurred())

	phases := set.Phases()
	for i, p := range phases {
		g.Expect(p.Start.After(p.End)).To(BeFalse(), p.Name())
		if i > 0 {
			g.Expect(p.Start.After(phases[i-1].End)).To(BeTrue(), p.Name())
		}
	}
}

func TestSegment_RepeatedPhasesGetInstances(t *testing.T) {
	g := NewWithT(t)
	sig := track(t, 200, func(i int) float64 {
		a := (float64(i) - 60) / 15
		b := (float64(i) - 140) / 15
		return -1e-5*math.Exp(-a*a) - 1.2e-5*math.Exp(-b*b)
	})

	set, err := Segment(sig, params(t, 200))
	g.Expect(err).NotTo(HaveOccurred())

	var names []string
	for _, p := range set.Phases() {
		names = append(names, p.Name())
	}
	g.Expect(names).To(ContainElements("intensification", "intensification 2", "mature 2", "decay 2"))

	second, ok := set.Lookup("intensification 2")
	g.Expect(ok).To(BeTrue())
	g.Expect(second.BaseName()).To(Equal(Intensification))
}

func TestSegment_MinIncipientLength(t *testing.T) {
	g := NewWithT(t)
	p := params(t, 200)
	p.MinIncipientLength = 60

	set, err := Segment(track(t, 200, dip), p)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(set.At(0).Kind).To(Equal(Intensification))
	g.Expect(kindsOf(set)).NotTo(ContainElement(Incipient))

	p.MinIncipientLength = 0
	set, err = Segment(track(t, 200, dip), p)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(set.At(0).Kind).To(Equal(Incipient))
}

func TestSegment_NorthernHemisphere(t *testing.T) {
	g := NewWithT(t)
	opts := DefaultOptions()
	opts.Hemisphere = North

	res, err := NewSegmenter(opts).Segment(track(t, 200, func(i int) float64 { return -dip(i) }), params(t, 200))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(kindsOf(res.Set)[:4]).To(Equal([]Kind{Incipient, Intensification, Mature, Decay}))
}

func TestSegment_ShortSeriesTolerance(t *testing.T) {
	g := NewWithT(t)
	sig := track(t, 30, func(i int) float64 {
		return -1e-5*math.Sin(math.Pi*float64(i)/29) - 1e-6
	})

	res, err := NewSegmenter(DefaultOptions()).Segment(sig, params(t, 30))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.Set.Tolerance()).To(Equal(time.Hour))

	start, end := res.Set.Window(0)
	g.Expect(start).To(Equal(res.Set.At(0).Start))
	g.Expect(end).To(Equal(res.Set.At(0).End.Add(time.Hour)))
	g.Expect(res.Processed.Smoothed2).To(HaveLen(30))
	g.Expect(res.Tendency).To(HaveLen(30))
}

func TestSegment_Errors(t *testing.T) {
	constant := func(int) float64 { return -2e-5 }

	tests := []struct {
		name   string
		n      int
		f      func(int) float64
		params Params
		want   error
	}{
		{"too short", 2, constant, Params{Windows: filter.Windows{Filter: 1, Smoothing: 1, Smoothing2: 1}}, series.ErrInsufficientData},
		{"zero window", 40, dip, Params{Windows: filter.Windows{Filter: 0, Smoothing: 9, Smoothing2: 9}}, series.ErrInsufficientData},
		{"constant", 40, constant, Params{Windows: filter.Windows{Filter: 10, Smoothing: 9, Smoothing2: 9}}, series.ErrDegenerateSignal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			_, err := Segment(track(t, tt.n, tt.f), tt.params)
			g.Expect(err).To(MatchError(tt.want))
		})
	}
}

func TestSegment_DegenerateResidualPolicy(t *testing.T) {
	g := NewWithT(t)
	opts := DefaultOptions()
	opts.Degenerate = DegenerateResidual
	sig := track(t, 40, func(int) float64 { return 1e-5 })

	res, err := NewSegmenter(opts).Segment(sig, params(t, 40))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.Set.Len()).To(Equal(1))

	first, last := sig.Span()
	g.Expect(res.Set.At(0)).To(Equal(Phase{Kind: Residual, Instance: 1, Start: first, End: last}))
}

func TestSegment_Idempotent(t *testing.T) {
	g := NewWithT(t)
	sig := track(t, 200, dip)
	a, err := Segment(sig, params(t, 200))
	g.Expect(err).NotTo(HaveOccurred())
	b, err := Segment(sig, params(t, 200))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(a.Phases()).To(Equal(b.Phases()))
}

func TestMergeShortRuns(t *testing.T) {
	labels := []int{0, 0, 0, -1, 0, -1, -1, -1, 1, 1, 1}
	mergeShortRuns(labels, 2)
	want := []int{0, 0, 0, 0, 0, -1, -1, -1, 1, 1, 1}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("mergeShortRuns = %v, want %v", labels, want)
		}
	}
}

func TestGradient(t *testing.T) {
	d := gradient([]float64{0, 1, 4, 9})
	want := []float64{1, 2, 4, 5}
	for i := range want {
		if d[i] != want[i] {
			t.Errorf("gradient[%d] = %v, want %v", i, d[i], want[i])
		}
	}
}
