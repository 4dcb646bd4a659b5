package series

import (
	"fmt"
	"strings"
	"time"
)

// TrackLayout is the timestamp layout used by track files.
const TrackLayout = "2006-01-02-1504"

// ExportLayout is the layout written to phase exports.
const ExportLayout = "2006-01-02 15:04:05"

var layouts = []string{
	ExportLayout,
	time.RFC3339,
	TrackLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts the timestamp layouts found in track, energetics and
// phase files. Times without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
