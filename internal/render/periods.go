package render

import (
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/cyclophase/internal/filter"
	"github.com/san-kum/cyclophase/internal/phase"
	"github.com/san-kum/cyclophase/internal/series"
)

const dateFormat = "2006-01-02"

var (
	rawColor       = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	smoothedColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	smoothed2Color = color.RGBA{A: 255}
)

// Periods draws the raw vorticity, both smoothing passes and one shaded band
// per phase. The legend lists each base name once.
func Periods(times []time.Time, proc filter.Processed, set *phase.Set, title string) (*Figure, error) {
	if len(times) == 0 || len(times) != len(proc.Raw) {
		return nil, fmt.Errorf("render: %d timestamps for %d samples: %w", len(times), len(proc.Raw), series.ErrInsufficientData)
	}
	p := timePlot(title, "ζ (850 hPa)")
	lo, hi := bounds(0.05, proc.Raw, proc.Smoothed, proc.Smoothed2)
	if err := addBands(p, set, lo, hi); err != nil {
		return nil, err
	}

	for _, s := range []struct {
		name  string
		y     []float64
		color color.Color
		width vg.Length
	}{
		{"ζ", proc.Raw, rawColor, vg.Points(1)},
		{"ζ smoothed", proc.Smoothed, smoothedColor, vg.Points(1.5)},
		{"ζ smoothed twice", proc.Smoothed2, smoothed2Color, vg.Points(2)},
	} {
		if len(s.y) != len(times) {
			continue
		}
		l, err := plotter.NewLine(timeXYs(times, s.y))
		if err != nil {
			return nil, fmt.Errorf("render: %s: %w", s.name, err)
		}
		l.Color = s.color
		l.Width = s.width
		p.Add(l)
		p.Legend.Add(s.name, l)
	}
	p.Y.Min, p.Y.Max = lo, hi
	return &Figure{Plot: p, Width: 14 * vg.Inch, Height: 6 * vg.Inch}, nil
}

// Steps draws the vorticity tendency the phases were derived from.
func Steps(times []time.Time, tendency []float64, set *phase.Set, title string) (*Figure, error) {
	if len(times) == 0 || len(times) != len(tendency) {
		return nil, fmt.Errorf("render: %d timestamps for %d tendencies: %w", len(times), len(tendency), series.ErrInsufficientData)
	}
	p := timePlot(title, "dζ/dt")
	lo, hi := bounds(0.05, tendency)
	if err := addBands(p, set, lo, hi); err != nil {
		return nil, err
	}

	zero, err := plotter.NewLine(plotter.XYs{{X: unix(times[0]), Y: 0}, {X: unix(times[len(times)-1]), Y: 0}})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	zero.Color = rawColor
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(zero)

	line, points, err := plotter.NewLinePoints(timeXYs(times, tendency))
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	line.Color = smoothed2Color
	points.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(line, points)
	p.Y.Min, p.Y.Max = lo, hi
	return &Figure{Plot: p, Width: 14 * vg.Inch, Height: 6 * vg.Inch}, nil
}

func timePlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Y.Label.Text = ylabel
	p.X.Tick.Marker = plot.TimeTicks{Format: dateFormat}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

// addBands shades every phase window between lo and hi.
func addBands(p *plot.Plot, set *phase.Set, lo, hi float64) error {
	if set == nil {
		return nil
	}
	first := make(map[phase.Kind]*plotter.Polygon)
	for i := 0; i < set.Len(); i++ {
		start, end := set.Window(i)
		x0, x1 := unix(start), unix(end)
		poly, err := plotter.NewPolygon(plotter.XYs{{X: x0, Y: lo}, {X: x1, Y: lo}, {X: x1, Y: hi}, {X: x0, Y: hi}})
		if err != nil {
			return fmt.Errorf("render: band %s: %w", set.At(i).Name(), err)
		}
		k := set.At(i).Kind
		poly.Color = shade(k)
		poly.LineStyle.Width = 0
		p.Add(poly)
		if _, ok := first[k]; !ok {
			first[k] = poly
		}
	}
	for _, e := range LegendEntries(set) {
		p.Legend.Add(e.Label, first[e.Kind])
	}
	return nil
}

func timeXYs(times []time.Time, y []float64) plotter.XYs {
	xys := make(plotter.XYs, len(times))
	for i, t := range times {
		xys[i].X = unix(t)
		xys[i].Y = y[i]
	}
	return xys
}
