package series

import (
	"errors"
	"testing"
	"time"
)

func hourly(n int) []time.Time {
	base := time.Date(2023, 3, 7, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	times := hourly(3)

	tests := []struct {
		name    string
		times   []time.Time
		values  []float64
		wantErr bool
	}{
		{"valid", times, []float64{1, 2, 3}, false},
		{"length mismatch", times, []float64{1, 2}, true},
		{"duplicate", []time.Time{times[0], times[0]}, []float64{1, 2}, true},
		{"decreasing", []time.Time{times[1], times[0]}, []float64{1, 2}, true},
		{"empty", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.times, tt.values)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInputFormat) {
				t.Errorf("expected ErrInputFormat, got %v", err)
			}
		})
	}
}

func TestTimeSeries_Step(t *testing.T) {
	times := hourly(4)
	times = append(times, times[3].Add(6*time.Hour))
	s, err := New(times, make([]float64, len(times)))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := s.Step(); got != time.Hour {
		t.Errorf("Step() = %v, want 1h", got)
	}

	single, _ := New(hourly(1), []float64{1})
	if single.Step() != 0 {
		t.Error("expected zero step for a single sample")
	}
}

func TestNewTable_SortsRows(t *testing.T) {
	times := hourly(3)
	tbl, err := NewTable(
		[]string{"Ck", "Ca"},
		[]time.Time{times[2], times[0], times[1]},
		[][]float64{{3, 6}, {1, 4}, {2, 5}},
	)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	ck, err := tbl.Column("Ck")
	if err != nil {
		t.Fatalf("column: %v", err)
	}
	for i, want := range []float64{1, 2, 3} {
		if ck[i] != want {
			t.Errorf("Ck[%d] = %v, want %v", i, ck[i], want)
		}
	}
}

func TestTable_Require(t *testing.T) {
	tbl, err := NewTable([]string{"Ck"}, hourly(1), [][]float64{{1}})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	err = tbl.Require("Ck", "Ge")
	if err == nil {
		t.Fatal("expected error for missing column")
	}
	var ife *InputFormatError
	if !errors.As(err, &ife) || ife.Column != "Ge" {
		t.Errorf("expected InputFormatError naming Ge, got %v", err)
	}
}

func TestNewTable_Invalid(t *testing.T) {
	times := hourly(2)
	if _, err := NewTable([]string{"a", "a"}, times, [][]float64{{1, 2}, {3, 4}}); err == nil {
		t.Error("expected duplicate column error")
	}
	if _, err := NewTable([]string{"a"}, times, [][]float64{{1}, {2, 3}}); err == nil {
		t.Error("expected ragged row error")
	}
	if _, err := NewTable([]string{"a"}, []time.Time{times[0], times[0]}, [][]float64{{1}, {2}}); err == nil {
		t.Error("expected duplicate timestamp error")
	}
}

func TestMissingAggregateError(t *testing.T) {
	err := error(&MissingAggregateError{Phase: "decay 2"})
	if !errors.Is(err, ErrMissingAggregate) {
		t.Error("expected ErrMissingAggregate")
	}
	if err.Error() != `phase "decay 2": no rows within interval` {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestInputFormatError_Message(t *testing.T) {
	err := &InputFormatError{File: "track.csv", Column: "time", Line: 4, Err: errors.New("bad timestamp")}
	want := `input format track.csv line 4 column "time": bad timestamp`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
