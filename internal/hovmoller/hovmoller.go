// Package hovmoller assembles a time by pressure-level field for contouring.
package hovmoller

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cyclophase/internal/series"
)

const (
	// DefaultClip scales the color bound below the contour range.
	DefaultClip = 0.8
	// DefaultLevels is the number of contour levels.
	DefaultLevels = 10
)

// Field is indexed by (level, time). Levels are sorted ascending.
type Field struct {
	Levels []float64
	Times  []time.Time
	Values *mat.Dense
}

// Assemble builds a field from a table whose columns are level values.
func Assemble(t *series.Table) (*Field, error) {
	if t == nil || t.Len() == 0 || len(t.Columns) == 0 {
		return nil, fmt.Errorf("empty level table: %w", series.ErrInsufficientData)
	}

	type col struct {
		level float64
		idx   int
	}
	cols := make([]col, 0, len(t.Columns))
	for j, name := range t.Columns {
		lv, err := strconv.ParseFloat(strings.TrimSpace(name), 64)
		if err != nil {
			return nil, &series.InputFormatError{Column: name, Err: fmt.Errorf("level column is not numeric")}
		}
		cols = append(cols, col{level: lv, idx: j})
	}
	sort.Slice(cols, func(a, b int) bool { return cols[a].level < cols[b].level })

	f := &Field{
		Levels: make([]float64, len(cols)),
		Times:  append([]time.Time(nil), t.Times...),
		Values: mat.NewDense(len(cols), t.Len(), nil),
	}
	for r, c := range cols {
		f.Levels[r] = c.level
		for i, row := range t.Rows {
			v := row[c.idx]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &series.InputFormatError{Column: t.Columns[c.idx], Line: i + 2, Err: fmt.Errorf("non-finite value")}
			}
			f.Values.Set(r, i, v)
		}
	}
	return f, nil
}

// Scale is a color normalization symmetric about zero.
type Scale struct {
	AbsMax float64
	VMin   float64
	VMax   float64
	Levels []float64
}

// Scale returns the normalization: AbsMax = max(|min|, |max|), color bounds
// at +-clip*AbsMax and n contour levels spanning [-AbsMax, AbsMax].
func (f *Field) Scale(clip float64, n int) (Scale, error) {
	if n < 2 {
		n = DefaultLevels
	}
	data := f.Values.RawMatrix().Data
	absMax := math.Max(math.Abs(floats.Min(data)), math.Abs(floats.Max(data)))
	if absMax == 0 {
		return Scale{}, fmt.Errorf("field is zero everywhere: %w", series.ErrDegenerateSignal)
	}
	bound := clip * absMax
	return Scale{
		AbsMax: absMax,
		VMin:   -bound,
		VMax:   bound,
		Levels: floats.Span(make([]float64, n), -absMax, absMax),
	}, nil
}

// Level returns the row of the field for a pressure level.
func (f *Field) Level(level float64) ([]float64, bool) {
	for r, lv := range f.Levels {
		if lv == level {
			return mat.Row(nil, r, f.Values), true
		}
	}
	return nil, false
}

// Dims, Z, X and Y let a field drive gonum/plot grid plotters: columns are
// times (unix seconds), rows are levels.
func (f *Field) Dims() (c, r int) {
	r, c = f.Values.Dims()
	return c, r
}

func (f *Field) Z(c, r int) float64 { return f.Values.At(r, c) }

func (f *Field) X(c int) float64 { return float64(f.Times[c].Unix()) }

func (f *Field) Y(r int) float64 { return f.Levels[r] }
