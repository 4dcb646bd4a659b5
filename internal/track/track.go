// Package track loads cyclone track files and time-indexed diagnostic tables.
package track

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/cyclophase/internal/phase"
	"github.com/san-kum/cyclophase/internal/series"
)

const (
	// DefaultVorticityColumn is the track column holding the 850 hPa vorticity extreme.
	DefaultVorticityColumn = "min_max_zeta_850"
	// DefaultLatitudeColumn is the optional track column used to infer the hemisphere.
	DefaultLatitudeColumn = "Lat"

	timeColumn = "time"
)

// Track is a vorticity series with the optional latitude of each fix.
type Track struct {
	Vorticity series.TimeSeries
	Latitude  []float64
}

// Hemisphere infers the hemisphere from the mean latitude. ok is false when
// the track carries no latitude.
func (t Track) Hemisphere() (h phase.Hemisphere, ok bool) {
	if len(t.Latitude) == 0 {
		return "", false
	}
	if stat.Mean(t.Latitude, nil) > 0 {
		return phase.North, true
	}
	return phase.South, true
}

// Options select the columns read from a track file.
type Options struct {
	VorticityColumn string
	LatitudeColumn  string
}

// LoadTrack reads a ';'-separated track file.
func LoadTrack(path string, opts Options) (Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return Track{}, err
	}
	defer f.Close()
	return ReadTrack(f, filepath.Base(path), opts)
}

// ReadTrack parses a track file with a "time" column in series.TrackLayout.
func ReadTrack(r io.Reader, name string, opts Options) (Track, error) {
	if opts.VorticityColumn == "" {
		opts.VorticityColumn = DefaultVorticityColumn
	}
	if opts.LatitudeColumn == "" {
		opts.LatitudeColumn = DefaultLatitudeColumn
	}

	header, records, err := readAll(r, ';', name)
	if err != nil {
		return Track{}, err
	}
	ti := indexOf(header, timeColumn)
	if ti < 0 {
		return Track{}, &series.InputFormatError{File: name, Line: 1, Column: timeColumn, Err: errors.New("column not found")}
	}
	zi := indexOf(header, opts.VorticityColumn)
	if zi < 0 {
		return Track{}, &series.InputFormatError{File: name, Line: 1, Column: opts.VorticityColumn, Err: errors.New("column not found")}
	}
	li := indexOf(header, opts.LatitudeColumn)

	times := make([]time.Time, len(records))
	values := make([]float64, len(records))
	var lats []float64
	if li >= 0 {
		lats = make([]float64, len(records))
	}
	for i, rec := range records {
		line := i + 2
		t, err := time.ParseInLocation(series.TrackLayout, strings.TrimSpace(rec[ti]), time.UTC)
		if err != nil {
			if t, err = series.ParseTime(rec[ti]); err != nil {
				return Track{}, &series.InputFormatError{File: name, Line: line, Column: timeColumn, Err: err}
			}
		}
		times[i] = t
		if values[i], err = parseFloat(rec[zi]); err != nil {
			return Track{}, &series.InputFormatError{File: name, Line: line, Column: opts.VorticityColumn, Err: err}
		}
		if li >= 0 {
			if lats[i], err = parseFloat(rec[li]); err != nil {
				return Track{}, &series.InputFormatError{File: name, Line: line, Column: opts.LatitudeColumn, Err: err}
			}
		}
	}

	ts, err := series.New(times, values)
	if err != nil {
		return Track{}, withFile(err, name)
	}
	return Track{Vorticity: ts, Latitude: lats}, nil
}

// TableOptions describe a comma-separated, time-indexed table. An empty
// TimeColumn means the first column is the row key.
type TableOptions struct {
	Comma      rune
	TimeColumn string
}

// LoadEnergetics reads an energetics results file keyed by its first column.
func LoadEnergetics(path string) (*series.Table, error) {
	return LoadTable(path, TableOptions{})
}

// LoadLevels reads a per-level table with a "time" column.
func LoadLevels(path string) (*series.Table, error) {
	return LoadTable(path, TableOptions{TimeColumn: timeColumn})
}

func LoadTable(path string, opts TableOptions) (*series.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTable(f, filepath.Base(path), opts)
}

// ReadTable parses a table whose key column holds timestamps and whose other
// named columns are numeric. Columns with an empty header are ignored.
func ReadTable(r io.Reader, name string, opts TableOptions) (*series.Table, error) {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	header, records, err := readAll(r, opts.Comma, name)
	if err != nil {
		return nil, err
	}

	ti := 0
	if opts.TimeColumn != "" {
		if ti = indexOf(header, opts.TimeColumn); ti < 0 {
			return nil, &series.InputFormatError{File: name, Line: 1, Column: opts.TimeColumn, Err: errors.New("column not found")}
		}
	}

	var columns []string
	var idx []int
	for i, h := range header {
		if i == ti || h == "" {
			continue
		}
		columns = append(columns, h)
		idx = append(idx, i)
	}
	if len(columns) == 0 {
		return nil, &series.InputFormatError{File: name, Line: 1, Err: errors.New("no value columns")}
	}

	times := make([]time.Time, len(records))
	rows := make([][]float64, len(records))
	for i, rec := range records {
		line := i + 2
		t, err := series.ParseTime(rec[ti])
		if err != nil {
			return nil, &series.InputFormatError{File: name, Line: line, Column: header[ti], Err: err}
		}
		times[i] = t
		row := make([]float64, len(idx))
		for j, c := range idx {
			if row[j], err = parseFloat(rec[c]); err != nil {
				return nil, &series.InputFormatError{File: name, Line: line, Column: header[c], Err: err}
			}
		}
		rows[i] = row
	}

	tbl, err := series.NewTable(columns, times, rows)
	if err != nil {
		return nil, withFile(err, name)
	}
	return tbl, nil
}

func readAll(r io.Reader, comma rune, name string) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, &series.InputFormatError{File: name, Err: errors.New("empty file")}
		}
		return nil, nil, &series.InputFormatError{File: name, Line: 1, Err: err}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	records, err := cr.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, nil, &series.InputFormatError{File: name, Line: pe.Line, Err: pe.Err}
		}
		return nil, nil, &series.InputFormatError{File: name, Err: err}
	}
	return header, records, nil
}

func indexOf(header []string, col string) int {
	for i, h := range header {
		if h == col {
			return i
		}
	}
	return -1
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// withFile attaches name to an InputFormatError raised without one.
func withFile(err error, name string) error {
	var ife *series.InputFormatError
	if errors.As(err, &ife) && ife.File == "" {
		ife.File = name
	}
	return err
}
