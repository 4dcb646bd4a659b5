package render

import (
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/cyclophase/internal/filter"
	"github.com/san-kum/cyclophase/internal/phase"
)

// SignalPreview renders the raw and twice-smoothed signal as a terminal chart.
func SignalPreview(proc filter.Processed, width, height int, caption string) string {
	if len(proc.Raw) == 0 {
		return ""
	}
	data := [][]float64{proc.Raw}
	legends := []string{"raw"}
	if len(proc.Smoothed2) == len(proc.Raw) {
		data = append(data, proc.Smoothed2)
		legends = append(legends, "smoothed")
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.DarkGray, asciigraph.Blue),
		asciigraph.SeriesLegends(legends...),
	)
}

// PhaseStrip maps each of width columns to the KindMark of the phase covering
// the corresponding sample. Samples outside every phase render as '.'.
func PhaseStrip(set *phase.Set, times []time.Time, width int) string {
	if set == nil || len(times) == 0 || width <= 0 {
		return ""
	}
	phases := set.Phases()
	var sb strings.Builder
	for c := 0; c < width; c++ {
		t := times[c*len(times)/width]
		mark := '.'
		for _, p := range phases {
			if p.Contains(t) {
				mark = KindMark(p.Kind)
				break
			}
		}
		sb.WriteRune(mark)
	}
	return sb.String()
}

// TrajectoryPreview draws pts as a character scatter. Points labelled with a
// phase name are marked with KindMark, others with '•'.
func TrajectoryPreview(pts []Point, width, height int) string {
	if len(pts) == 0 || width < 2 || height < 2 {
		return ""
	}
	xs, ys, _, _ := unzip(pts)
	minX, maxX := bounds(0.1, xs)
	minY, maxY := bounds(0.1, ys)
	rangeX := maxX - minX
	rangeY := maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	// Axes first so points draw over them.
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == '│' {
				canvas[row][col] = '┼'
				continue
			}
			canvas[row][col] = '─'
		}
	}

	for _, p := range pts {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row < 0 || row >= height || col < 0 || col >= width {
			continue
		}
		mark := '•'
		if k, _, err := phase.ParseName(p.Label); err == nil {
			mark = KindMark(k)
		}
		canvas[row][col] = mark
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
