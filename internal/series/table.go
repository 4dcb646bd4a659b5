package series

import (
	"fmt"
	"sort"
	"time"
)

// Table holds timestamped rows of named numeric columns.
type Table struct {
	Columns []string
	Times   []time.Time
	Rows    [][]float64
}

// NewTable sorts rows chronologically and validates widths and uniqueness of timestamps.
func NewTable(columns []string, times []time.Time, rows [][]float64) (*Table, error) {
	if len(times) != len(rows) {
		return nil, &InputFormatError{Err: fmt.Errorf("%d timestamps for %d rows", len(times), len(rows))}
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return nil, &InputFormatError{Column: c, Err: fmt.Errorf("duplicate column")}
		}
		seen[c] = struct{}{}
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, &InputFormatError{Line: i + 2, Err: fmt.Errorf("row has %d values, want %d", len(r), len(columns))}
		}
	}

	idx := make([]int, len(times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return times[idx[a]].Before(times[idx[b]]) })

	t := &Table{
		Columns: append([]string(nil), columns...),
		Times:   make([]time.Time, len(times)),
		Rows:    make([][]float64, len(rows)),
	}
	for i, j := range idx {
		t.Times[i] = times[j]
		t.Rows[i] = rows[j]
	}
	if err := checkOrder(t.Times); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) Len() int { return len(t.Times) }

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]float64, error) {
	j := t.ColumnIndex(name)
	if j < 0 {
		return nil, &InputFormatError{Column: name, Err: fmt.Errorf("column not found")}
	}
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[j]
	}
	return out, nil
}

// Require checks that every named column exists.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if t.ColumnIndex(n) < 0 {
			return &InputFormatError{Column: n, Err: fmt.Errorf("required column missing")}
		}
	}
	return nil
}

// Series extracts a named column as a TimeSeries.
func (t *Table) Series(name string) (TimeSeries, error) {
	vals, err := t.Column(name)
	if err != nil {
		return TimeSeries{}, err
	}
	times := make([]time.Time, len(t.Times))
	copy(times, t.Times)
	return TimeSeries{Times: times, Values: vals}, nil
}
