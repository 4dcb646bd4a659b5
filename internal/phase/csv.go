package phase

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/cyclophase/internal/series"
)

var csvHeader = []string{"phase", "start", "end"}

// WriteCSV writes one row per phase: full name, start, end. Timestamps are
// written in UTC, which is how ReadCSV interprets them.
func WriteCSV(w io.Writer, s *Set) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range s.phases {
		row := []string{p.Name(), p.Start.UTC().Format(series.ExportLayout), p.End.UTC().Format(series.ExportLayout)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a phase export. The first header cell may be empty, as in
// exports whose phase names were written as an unnamed index column.
func ReadCSV(r io.Reader, tolerance time.Duration) (*Set, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &series.InputFormatError{Err: fmt.Errorf("empty phase file")}
		}
		return nil, &series.InputFormatError{Err: err}
	}
	if len(header) != 3 || !strings.EqualFold(strings.TrimSpace(header[1]), "start") || !strings.EqualFold(strings.TrimSpace(header[2]), "end") {
		return nil, &series.InputFormatError{Line: 1, Err: fmt.Errorf("header %v, want [phase start end]", header)}
	}

	var phases []Phase
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &series.InputFormatError{Line: line, Err: err}
		}

		kind, instance, err := ParseName(rec[0])
		if err != nil {
			return nil, &series.InputFormatError{Line: line, Column: "phase", Err: err}
		}
		start, err := series.ParseTime(rec[1])
		if err != nil {
			return nil, &series.InputFormatError{Line: line, Column: "start", Err: err}
		}
		end, err := series.ParseTime(rec[2])
		if err != nil {
			return nil, &series.InputFormatError{Line: line, Column: "end", Err: err}
		}
		phases = append(phases, Phase{Kind: kind, Instance: instance, Start: start, End: end})
	}

	return NewSet(phases, tolerance)
}
