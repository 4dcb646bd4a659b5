package aggregate

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/cyclophase/internal/series"
)

// SynopticHours are the 3-hourly analysis times.
var SynopticHours = []int{0, 3, 6, 9, 12, 15, 18, 21}

// HourMean is the composite of one hour of day, as an anomaly from the
// series mean. Valid is false when no sample fell on that hour.
type HourMean struct {
	Hour    int
	Anomaly float64
	Count   int
	Valid   bool
}

// Diurnal composites a series by hour of day (UTC) and subtracts the overall mean.
func Diurnal(s series.TimeSeries, hours []int) (mean float64, out []HourMean) {
	if s.Len() == 0 {
		for _, h := range hours {
			out = append(out, HourMean{Hour: h})
		}
		return 0, out
	}

	mean = stat.Mean(s.Values, nil)
	byHour := make(map[int][]float64)
	for i, t := range s.Times {
		h := t.UTC().Hour()
		byHour[h] = append(byHour[h], s.Values[i])
	}

	for _, h := range hours {
		vals := byHour[h]
		hm := HourMean{Hour: h, Count: len(vals)}
		if len(vals) > 0 {
			hm.Anomaly = stat.Mean(vals, nil) - mean
			hm.Valid = true
		}
		out = append(out, hm)
	}
	return mean, out
}
