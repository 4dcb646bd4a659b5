package storage

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/san-kum/cyclophase/internal/aggregate"
	"github.com/san-kum/cyclophase/internal/phase"
	"github.com/san-kum/cyclophase/internal/render"
	"github.com/san-kum/cyclophase/internal/series"
)

const (
	PeriodsSheet = "Periods"
	DiurnalSheet = "Diurnal"
)

// Summary is the content of a run workbook. Rows and Diurnal are optional.
type Summary struct {
	Name    string
	Phases  *phase.Set
	Rows    []aggregate.Row
	Diurnal []aggregate.HourMean
}

// SummaryFile is the workbook name of a run.
func SummaryFile(name string) string { return fmt.Sprintf("%s_summary.xlsx", name) }

// WriteSummary writes <name>_summary.xlsx with one row per phase and its
// energetics means. Phases without energetics rows leave their mean cells
// empty.
func (s *Store) WriteSummary(sum Summary) (string, error) {
	f, err := summaryWorkbook(sum)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return s.Write(SummaryFile(sum.Name), WriterFunc(func(w io.Writer) error {
		return f.Write(w)
	}))
}

func summaryWorkbook(sum Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", PeriodsSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := writePeriods(f, sum); err != nil {
		f.Close()
		return nil, err
	}
	if len(sum.Diurnal) > 0 {
		if err := writeDiurnal(f, sum.Diurnal); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writePeriods(f *excelize.File, sum Summary) error {
	var columns []string
	if len(sum.Rows) > 0 {
		columns = sum.Rows[0].Columns
	}
	header := []any{"phase", "start", "end", "hours", "samples"}
	for _, c := range columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(PeriodsSheet, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(PeriodsSheet, "A1", last, bold); err != nil {
		return err
	}

	fills := make(map[phase.Kind]int)
	for i, p := range sum.Phases.Phases() {
		row := []any{
			p.Name(),
			p.Start.UTC().Format(series.ExportLayout),
			p.End.UTC().Format(series.ExportLayout),
			p.Duration().Hours(),
		}
		if i < len(sum.Rows) {
			r := sum.Rows[i]
			row = append(row, r.Count)
			if means, ok := r.Means(); ok {
				for _, m := range means {
					row = append(row, m)
				}
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(PeriodsSheet, cell, &row); err != nil {
			return err
		}

		style, ok := fills[p.Kind]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{render.PhaseHex(p.Kind)}},
			})
			if err != nil {
				return err
			}
			fills[p.Kind] = style
		}
		if err := f.SetCellStyle(PeriodsSheet, cell, cell, style); err != nil {
			return err
		}
	}
	return f.SetColWidth(PeriodsSheet, "A", "C", 20)
}

func writeDiurnal(f *excelize.File, hours []aggregate.HourMean) error {
	if _, err := f.NewSheet(DiurnalSheet); err != nil {
		return err
	}
	header := []any{"hour", "anomaly", "samples"}
	if err := f.SetSheetRow(DiurnalSheet, "A1", &header); err != nil {
		return err
	}
	for i, h := range hours {
		row := []any{h.Hour, nil, h.Count}
		if h.Valid {
			row[1] = h.Anomaly
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(DiurnalSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
