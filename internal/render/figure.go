// Package render draws phase, trajectory and Hovmöller figures with
// gonum/plot, plus small text previews for terminals.
package render

import (
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Figure is a plot with its output size. It implements io.WriterTo and
// encodes itself as PNG.
type Figure struct {
	Plot   *plot.Plot
	Width  vg.Length
	Height vg.Length
}

func (f *Figure) WriteTo(w io.Writer) (int64, error) {
	wt, err := f.Plot.WriterTo(f.Width, f.Height, "png")
	if err != nil {
		return 0, fmt.Errorf("render: %w", err)
	}
	return wt.WriteTo(w)
}

func unix(t time.Time) float64 { return float64(t.Unix()) }

// bounds returns the padded value range over every non-empty slice.
func bounds(pad float64, xs ...[]float64) (lo, hi float64) {
	first := true
	for _, x := range xs {
		if len(x) == 0 {
			continue
		}
		mn, mx := floats.Min(x), floats.Max(x)
		if first || mn < lo {
			lo = mn
		}
		if first || mx > hi {
			hi = mx
		}
		first = false
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return lo - pad*span, hi + pad*span
}
