package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/cyclophase/internal/aggregate"
	"github.com/san-kum/cyclophase/internal/series"
)

// Channels names the table columns mapped to position, color and size.
type Channels struct {
	X, Y, Color, Size string
}

// LPSChannels is the Lorenz phase space: Ck against Ca, colored by Ge and
// sized by Ke.
var LPSChannels = Channels{X: "Ck", Y: "Ca", Color: "Ge", Size: "Ke"}

func (c Channels) names() []string { return []string{c.X, c.Y, c.Color, c.Size} }

// Point is one trajectory sample.
type Point struct {
	X, Y, C, S float64
	Label      string
}

// PhasePoints maps present aggregate rows to points labelled by phase name.
// Missing rows are skipped.
func PhasePoints(rows []aggregate.Row, ch Channels) ([]Point, error) {
	var pts []Point
	for _, r := range aggregate.Present(rows) {
		var v [4]float64
		for i, name := range ch.names() {
			m, ok := r.Mean(name)
			if !ok {
				return nil, &series.InputFormatError{Column: name, Err: fmt.Errorf("phase %q: column missing", r.Phase.Name())}
			}
			v[i] = m
		}
		pts = append(pts, Point{X: v[0], Y: v[1], C: v[2], S: v[3], Label: r.Phase.Name()})
	}
	return pts, nil
}

// TablePoints maps every table row to an unlabelled point.
func TablePoints(t *series.Table, ch Channels) ([]Point, error) {
	if err := t.Require(ch.names()...); err != nil {
		return nil, err
	}
	idx := make([]int, 4)
	for i, name := range ch.names() {
		idx[i] = t.ColumnIndex(name)
	}
	pts := make([]Point, t.Len())
	for i, row := range t.Rows {
		pts[i] = Point{X: row[idx[0]], Y: row[idx[1]], C: row[idx[2]], S: row[idx[3]]}
	}
	return pts, nil
}

// Limits returns [min-adjust, max+adjust] over values.
func Limits(values []float64, adjust float64) (lo, hi float64) {
	if len(values) == 0 {
		return -adjust, adjust
	}
	return floats.Min(values) - adjust, floats.Max(values) + adjust
}

const (
	minRadius = 4
	maxRadius = 14
)

// Trajectory draws pts in order with arrows between consecutive points.
func Trajectory(pts []Point, ch Channels, adjust float64, title string) (*Figure, error) {
	if len(pts) == 0 {
		return nil, fmt.Errorf("render: trajectory: %w", series.ErrInsufficientData)
	}
	xs, ys, cs, ss := unzip(pts)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = ch.X
	p.Y.Label.Text = ch.Y
	p.Add(plotter.NewGrid())
	p.X.Min, p.X.Max = Limits(xs, adjust)
	p.Y.Min, p.Y.Max = Limits(ys, adjust)

	p.Add(&arrows{pts: pts, style: draw.LineStyle{Color: color.Gray{Y: 90}, Width: vg.Points(1)}})

	cmap := colorScale(cs, adjust)
	smin, smax := Limits(ss, adjust)

	sc, err := plotter.NewScatter(pointXYs(pts))
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  colorAt(cmap, cs[i]),
			Radius: vg.Points(radius(ss[i], smin, smax)),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(sc)

	if pts[0].Label != "" {
		labels := make([]string, len(pts))
		for i, pt := range pts {
			labels[i] = pt.Label
		}
		lb, err := plotter.NewLabels(plotter.XYLabels{XYs: pointXYs(pts), Labels: labels})
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		for i := range lb.TextStyle {
			lb.TextStyle[i].XAlign = draw.XCenter
			lb.TextStyle[i].YAlign = draw.YTop
		}
		lb.Offset = vg.Point{Y: -vg.Points(maxRadius)}
		p.Add(lb)
	}

	p.Legend.Top = true
	p.Legend.Add(fmt.Sprintf("color: %s [%.3g, %.3g]", ch.Color, floats.Min(cs), floats.Max(cs)))
	p.Legend.Add(fmt.Sprintf("size: %s [%.3g, %.3g]", ch.Size, floats.Min(ss), floats.Max(ss)))
	return &Figure{Plot: p, Width: 10 * vg.Inch, Height: 10 * vg.Inch}, nil
}

func unzip(pts []Point) (xs, ys, cs, ss []float64) {
	xs = make([]float64, len(pts))
	ys = make([]float64, len(pts))
	cs = make([]float64, len(pts))
	ss = make([]float64, len(pts))
	for i, pt := range pts {
		xs[i], ys[i], cs[i], ss[i] = pt.X, pt.Y, pt.C, pt.S
	}
	return xs, ys, cs, ss
}

func pointXYs(pts []Point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i].X, xys[i].Y = pt.X, pt.Y
	}
	return xys
}

// colorScale maps the padded color channel range onto a diverging palette.
func colorScale(cs []float64, adjust float64) palette.ColorMap {
	cmin, cmax := Limits(cs, adjust)
	if cmax <= cmin {
		cmin, cmax = cmin-1, cmax+1
	}
	cmap := moreland.SmoothBlueRed()
	cmap.SetMax(cmax)
	cmap.SetMin(cmin)
	return cmap
}

func colorAt(cmap palette.ColorMap, v float64) color.Color {
	c, err := cmap.At(math.Min(math.Max(v, cmap.Min()), cmap.Max()))
	if err != nil {
		return color.Black
	}
	return c
}

// radius maps v linearly from [lo, hi] onto the glyph radius range.
func radius(v, lo, hi float64) float64 {
	if hi <= lo {
		return (minRadius + maxRadius) / 2
	}
	return minRadius + (v-lo)/(hi-lo)*(maxRadius-minRadius)
}

// arrows connects consecutive points with arrowheads at the later point.
type arrows struct {
	pts   []Point
	style draw.LineStyle
}

func (a *arrows) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	head := vg.Points(7)
	for i := 1; i < len(a.pts); i++ {
		from := vg.Point{X: trX(a.pts[i-1].X), Y: trY(a.pts[i-1].Y)}
		to := vg.Point{X: trX(a.pts[i].X), Y: trY(a.pts[i].Y)}
		c.StrokeLines(a.style, c.ClipLinesXY([]vg.Point{from, to})...)

		dx, dy := float64(to.X-from.X), float64(to.Y-from.Y)
		n := math.Hypot(dx, dy)
		if n == 0 {
			continue
		}
		ux, uy := dx/n, dy/n
		base := vg.Point{X: to.X - head*vg.Length(ux), Y: to.Y - head*vg.Length(uy)}
		side := vg.Point{X: -head / 2 * vg.Length(uy), Y: head / 2 * vg.Length(ux)}
		c.FillPolygon(a.style.Color, c.ClipPolygonXY([]vg.Point{
			to,
			{X: base.X + side.X, Y: base.Y + side.Y},
			{X: base.X - side.X, Y: base.Y - side.Y},
		}))
	}
}

func (a *arrows) DataRange() (xmin, xmax, ymin, ymax float64) {
	return plotter.XYRange(pointXYs(a.pts))
}
