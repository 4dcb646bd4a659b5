package aggregate_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cyclophase/internal/aggregate"
	"github.com/san-kum/cyclophase/internal/phase"
	"github.com/san-kum/cyclophase/internal/series"
)

var base = time.Date(2023, 3, 7, 0, 0, 0, 0, time.UTC)

func at(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

func mustTable(cols []string, times []time.Time, rows [][]float64) *series.Table {
	t, err := series.NewTable(cols, times, rows)
	Expect(err).NotTo(HaveOccurred())
	return t
}

func mustSet(phases ...phase.Phase) *phase.Set {
	s, err := phase.NewSet(phases, 0)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Aggregate", func() {
	var energetics *series.Table

	BeforeEach(func() {
		energetics = mustTable(
			[]string{"Ck", "Ca"},
			[]time.Time{at(0), at(1), at(2)},
			[][]float64{{1, 4}, {2, 5}, {3, 6}},
		)
	})

	It("averages rows inside the inclusive interval", func() {
		set := mustSet(phase.Phase{Kind: phase.Intensification, Instance: 1, Start: at(0), End: at(1)})

		rows, diag := aggregate.Aggregate(energetics, set)
		Expect(diag).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))

		ck, ok := rows[0].Mean("Ck")
		Expect(ok).To(BeTrue())
		Expect(ck).To(Equal(1.5))
		ca, ok := rows[0].Mean("Ca")
		Expect(ok).To(BeTrue())
		Expect(ca).To(Equal(4.5))
		Expect(rows[0].Count).To(Equal(2))
	})

	It("ignores the shading tolerance", func() {
		set, err := phase.NewSet([]phase.Phase{
			{Kind: phase.Mature, Instance: 1, Start: at(0), End: at(1)},
		}, time.Hour)
		Expect(err).NotTo(HaveOccurred())

		rows, _ := aggregate.Aggregate(energetics, set)
		Expect(rows[0].Count).To(Equal(2))
	})

	It("keeps phase order", func() {
		set := mustSet(
			phase.Phase{Kind: phase.Incipient, Instance: 1, Start: at(0), End: at(0)},
			phase.Phase{Kind: phase.Intensification, Instance: 1, Start: at(1), End: at(1)},
			phase.Phase{Kind: phase.Mature, Instance: 1, Start: at(2), End: at(2)},
		)
		rows, diag := aggregate.Aggregate(energetics, set)
		Expect(diag).NotTo(HaveOccurred())

		var got []float64
		for _, r := range rows {
			v, _ := r.Mean("Ck")
			got = append(got, v)
		}
		Expect(got).To(Equal([]float64{1, 2, 3}))
	})

	It("marks phases without rows as missing, never zero", func() {
		set := mustSet(
			phase.Phase{Kind: phase.Mature, Instance: 1, Start: at(0), End: at(2)},
			phase.Phase{Kind: phase.Decay, Instance: 2, Start: at(10), End: at(12)},
		)

		rows, diag := aggregate.Aggregate(energetics, set)
		Expect(rows).To(HaveLen(2))
		Expect(rows[1].Missing()).To(BeTrue())

		_, ok := rows[1].Mean("Ck")
		Expect(ok).To(BeFalse())
		means, ok := rows[1].Means()
		Expect(ok).To(BeFalse())
		Expect(means).To(BeNil())

		Expect(diag).To(MatchError(series.ErrMissingAggregate))
		missing := aggregate.Missing(diag)
		Expect(missing).To(HaveLen(1))
		var mae *series.MissingAggregateError
		Expect(errors.As(missing[0], &mae)).To(BeTrue())
		Expect(mae.Phase).To(Equal("decay 2"))

		Expect(aggregate.Present(rows)).To(HaveLen(1))
	})

	It("is idempotent", func() {
		set := mustSet(
			phase.Phase{Kind: phase.Intensification, Instance: 1, Start: at(0), End: at(1)},
			phase.Phase{Kind: phase.Decay, Instance: 1, Start: at(2), End: at(5)},
		)
		a, _ := aggregate.Aggregate(energetics, set)
		b, _ := aggregate.Aggregate(energetics, set)
		Expect(a).To(Equal(b))
	})

	It("treats a missing table as no data", func() {
		set := mustSet(phase.Phase{Kind: phase.Mature, Instance: 1, Start: at(0), End: at(1)})
		rows, diag := aggregate.Aggregate(nil, set)
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Missing()).To(BeTrue())
		Expect(diag).To(HaveOccurred())
	})
})

var _ = Describe("Diurnal", func() {
	It("composites anomalies by hour", func() {
		var times []time.Time
		var values []float64
		for day := 0; day < 2; day++ {
			for h := 0; h < 24; h += 3 {
				times = append(times, at(day*24+h))
				v := 1.0
				if h == 12 {
					v = 9
				}
				values = append(values, v)
			}
		}
		s, err := series.New(times, values)
		Expect(err).NotTo(HaveOccurred())

		mean, hours := aggregate.Diurnal(s, aggregate.SynopticHours)
		Expect(mean).To(Equal(2.0))
		Expect(hours).To(HaveLen(8))
		Expect(hours[4].Hour).To(Equal(12))
		Expect(hours[4].Anomaly).To(Equal(7.0))
		Expect(hours[0].Anomaly).To(Equal(-1.0))
		Expect(hours[0].Count).To(Equal(2))
	})

	It("flags hours without samples", func() {
		s, err := series.New([]time.Time{at(0), at(3)}, []float64{1, 3})
		Expect(err).NotTo(HaveOccurred())

		_, hours := aggregate.Diurnal(s, []int{0, 1})
		Expect(hours[0].Valid).To(BeTrue())
		Expect(hours[1].Valid).To(BeFalse())
	})
})
