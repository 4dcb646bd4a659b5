// Package aggregate reduces a secondary time-indexed dataset over phase intervals.
package aggregate

import (
	"time"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/cyclophase/internal/phase"
	"github.com/san-kum/cyclophase/internal/series"
)

// Row is the per-phase aggregate. A row with no matching samples carries no
// values at all; Mean reports ok=false instead of a number.
type Row struct {
	Phase   phase.Phase
	Columns []string
	Count   int
	means   []float64
}

// Missing reports whether no secondary rows fell within the phase.
func (r Row) Missing() bool { return r.Count == 0 }

// Mean returns the mean of col over the phase.
func (r Row) Mean(col string) (float64, bool) {
	if r.Missing() {
		return 0, false
	}
	for i, c := range r.Columns {
		if c == col {
			return r.means[i], true
		}
	}
	return 0, false
}

// Means returns a copy of all column means in column order.
func (r Row) Means() ([]float64, bool) {
	if r.Missing() {
		return nil, false
	}
	return append([]float64(nil), r.means...), true
}

// Aggregate computes, for every phase in order, the mean of each column over
// the rows whose timestamp lies in [Start, End]. The shading tolerance of the
// set is not applied. Rows are always returned for every phase; diag is nil
// or a multierr of *series.MissingAggregateError for phases without data.
func Aggregate(t *series.Table, s *phase.Set) (rows []Row, diag error) {
	if s == nil {
		return nil, nil
	}
	var columns []string
	if t != nil {
		columns = t.Columns
	}

	rows = make([]Row, 0, s.Len())
	for _, p := range s.Phases() {
		row := Row{Phase: p, Columns: columns}
		var sel []int
		if t != nil {
			sel = selectRows(t.Times, p.Start, p.End)
		}
		if len(sel) == 0 {
			diag = multierr.Append(diag, &series.MissingAggregateError{Phase: p.Name()})
			rows = append(rows, row)
			continue
		}

		row.Count = len(sel)
		row.means = make([]float64, len(columns))
		buf := make([]float64, len(sel))
		for j := range columns {
			for k, i := range sel {
				buf[k] = t.Rows[i][j]
			}
			row.means[j] = stat.Mean(buf, nil)
		}
		rows = append(rows, row)
	}
	return rows, diag
}

// Present drops missing rows, keeping order.
func Present(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !r.Missing() {
			out = append(out, r)
		}
	}
	return out
}

// Missing lists the errors carried by a diagnostics value from Aggregate.
func Missing(diag error) []error {
	return multierr.Errors(diag)
}

func selectRows(times []time.Time, start, end time.Time) []int {
	var sel []int
	for i, ts := range times {
		if !ts.Before(start) && !ts.After(end) {
			sel = append(sel, i)
		}
	}
	return sel
}
