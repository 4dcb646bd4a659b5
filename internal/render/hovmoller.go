package render

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/cyclophase/internal/hovmoller"
	"github.com/san-kum/cyclophase/internal/series"
)

const paletteSize = 255

// Hovmoller draws f as a time × pressure heat map clipped to
// [sc.VMin, sc.VMax], with contour lines at sc.Levels and pressure
// increasing downward.
func Hovmoller(f *hovmoller.Field, sc hovmoller.Scale, title string) (*Figure, error) {
	c, r := f.Dims()
	if c < 2 || r < 2 {
		return nil, fmt.Errorf("render: hovmoller needs 2x2 cells, got %dx%d: %w", c, r, series.ErrInsufficientData)
	}
	if sc.VMax <= sc.VMin {
		return nil, fmt.Errorf("render: hovmoller range [%g, %g]: %w", sc.VMin, sc.VMax, series.ErrDegenerateSignal)
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMax(sc.VMax)
	cmap.SetMin(sc.VMin)
	pal := cmap.Palette(paletteSize)
	colors := pal.Colors()

	h := plotter.NewHeatMap(f, pal)
	h.Min, h.Max = sc.VMin, sc.VMax
	h.Underflow = colors[0]
	h.Overflow = colors[len(colors)-1]

	ct := plotter.NewContour(f, sc.Levels, nil)
	ct.LineStyles = []draw.LineStyle{{Color: color.Gray{Y: 40}, Width: vg.Points(0.5)}}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Y.Label.Text = "pressure (Pa)"
	p.X.Tick.Marker = plot.TimeTicks{Format: dateFormat}
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	p.Add(h, ct)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.Add(fmt.Sprintf("≤ %.3g", sc.VMin), &swatch{colors[0]})
	p.Legend.Add("0", &swatch{colors[len(colors)/2]})
	p.Legend.Add(fmt.Sprintf("≥ %.3g", sc.VMax), &swatch{colors[len(colors)-1]})
	return &Figure{Plot: p, Width: 12 * vg.Inch, Height: 6 * vg.Inch}, nil
}

// swatch is a legend thumbnail filled with one color.
type swatch struct{ c color.Color }

func (s *swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.c, pts)
}
