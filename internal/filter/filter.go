// Package filter implements the default signal preprocessor: a Lanczos
// low-pass filter followed by two Savitzky-Golay smoothing passes.
package filter

import (
	"fmt"
	"math"

	"github.com/san-kum/cyclophase/internal/series"
	"gonum.org/v1/gonum/mat"
)

// SavgolOrder is the polynomial order of both smoothing passes.
const SavgolOrder = 3

// Windows holds the window sizes, in samples, of the three processing passes.
type Windows struct {
	Filter     int `yaml:"filter" json:"filter"`
	Smoothing  int `yaml:"smoothing" json:"smoothing"`
	Smoothing2 int `yaml:"smoothing_twice" json:"smoothing_twice"`
}

// DeriveWindows derives the windows from the series length: a quarter of the
// length for the filter and a fifth, forced odd, for each smoothing pass.
func DeriveWindows(n int) (Windows, error) {
	w := Windows{
		Filter:     n / 4,
		Smoothing:  n/5 | 1,
		Smoothing2: n/5 | 1,
	}
	if err := w.Validate(); err != nil {
		return Windows{}, fmt.Errorf("%d samples: %w", n, err)
	}
	return w, nil
}

// Validate rejects non-positive windows.
func (w Windows) Validate() error {
	if w.Filter <= 0 || w.Smoothing <= 0 || w.Smoothing2 <= 0 {
		return fmt.Errorf("windows %d/%d/%d: %w", w.Filter, w.Smoothing, w.Smoothing2, series.ErrInsufficientData)
	}
	return nil
}

// Processed holds every stage of the preprocessed signal, aligned with the input.
type Processed struct {
	Raw       []float64
	Filtered  []float64
	Smoothed  []float64
	Smoothed2 []float64
}

// Chain is the default preprocessor.
type Chain struct{}

func NewChain() *Chain { return &Chain{} }

// Process filters the signal and smooths it twice.
func (c *Chain) Process(values []float64, w Windows) (Processed, error) {
	if err := w.Validate(); err != nil {
		return Processed{}, err
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Processed{}, &series.InputFormatError{Line: i + 2, Err: fmt.Errorf("non-finite value %v", v)}
		}
	}

	raw := make([]float64, len(values))
	copy(raw, values)

	filtered := Lanczos(raw, w.Filter)
	smoothed, err := Savgol(filtered, w.Smoothing, SavgolOrder)
	if err != nil {
		return Processed{}, err
	}
	smoothed2, err := Savgol(smoothed, w.Smoothing2, SavgolOrder)
	if err != nil {
		return Processed{}, err
	}

	return Processed{
		Raw:       raw,
		Filtered:  filtered,
		Smoothed:  smoothed,
		Smoothed2: smoothed2,
	}, nil
}

// Lanczos applies a low-pass Lanczos filter with cutoff 1/window cycles per
// sample. Weights are renormalized near the edges, so constants pass unchanged.
func Lanczos(x []float64, window int) []float64 {
	out := make([]float64, len(x))
	if window <= 1 || len(x) == 0 {
		copy(out, x)
		return out
	}

	weights := lanczosWeights(window)
	m := len(weights) - 1

	for i := range x {
		sum, norm := 0.0, 0.0
		for k := -m; k <= m; k++ {
			j := i + k
			if j < 0 || j >= len(x) {
				continue
			}
			wk := weights[abs(k)]
			sum += wk * x[j]
			norm += wk
		}
		out[i] = sum / norm
	}
	return out
}

// lanczosWeights returns the one-sided weights w[0..m].
func lanczosWeights(window int) []float64 {
	m := window / 2
	if m < 1 {
		m = 1
	}
	fc := 1 / float64(window)

	w := make([]float64, m+1)
	w[0] = 2 * fc
	for k := 1; k <= m; k++ {
		fk := float64(k)
		sigma := math.Sin(math.Pi*fk/float64(m)) / (math.Pi * fk / float64(m))
		w[k] = math.Sin(2*math.Pi*fc*fk) / (math.Pi * fk) * sigma
	}
	return w
}

// Savgol applies a Savitzky-Golay filter. Edges are filled by evaluating the
// polynomial fitted to the first and last windows. Windows longer than the
// series shrink to the largest odd length that fits; windows too short for
// the order leave the signal unchanged.
func Savgol(x []float64, window, order int) ([]float64, error) {
	out := make([]float64, len(x))
	copy(out, x)

	if window > len(x) {
		window = len(x)
		if window%2 == 0 {
			window--
		}
	}
	if window%2 == 0 {
		window--
	}
	if window <= order || window < 3 {
		return out, nil
	}

	h := window / 2
	pinv, err := savgolPinv(window, order)
	if err != nil {
		return nil, err
	}

	coeffs := pinv.RawRowView(0)
	for i := h; i < len(x)-h; i++ {
		v := 0.0
		for k, c := range coeffs {
			v += c * x[i-h+k]
		}
		out[i] = v
	}

	fitEdge := func(start int, positions []int) {
		y := mat.NewVecDense(window, append([]float64(nil), x[start:start+window]...))
		var poly mat.VecDense
		poly.MulVec(pinv, y)
		for _, p := range positions {
			u := float64(p-start-h) / float64(h)
			v, pw := 0.0, 1.0
			for j := 0; j <= order; j++ {
				v += poly.AtVec(j) * pw
				pw *= u
			}
			out[p] = v
		}
	}

	head := make([]int, 0, h)
	tail := make([]int, 0, h)
	for i := 0; i < h; i++ {
		head = append(head, i)
		tail = append(tail, len(x)-h+i)
	}
	fitEdge(0, head)
	fitEdge(len(x)-window, tail)

	return out, nil
}

// savgolPinv returns the (order+1) x window least-squares operator for a
// polynomial fit on abscissae scaled to [-1, 1].
func savgolPinv(window, order int) (*mat.Dense, error) {
	h := window / 2
	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		u := float64(i-h) / float64(h)
		pw := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, pw)
			pw *= u
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, fmt.Errorf("savgol window %d order %d: %w", window, order, err)
	}
	var pinv mat.Dense
	pinv.Mul(&inv, a.T())
	return &pinv, nil
}

func abs(k int) int {
	if k < 0 {
		return -k
	}
	return k
}
