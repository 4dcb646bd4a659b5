package series

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// TimeSeries is an ordered scalar signal.
type TimeSeries struct {
	Times  []time.Time
	Values []float64
}

// New validates and returns a series. Timestamps must be strictly increasing.
func New(times []time.Time, values []float64) (TimeSeries, error) {
	if len(times) != len(values) {
		return TimeSeries{}, &InputFormatError{Err: fmt.Errorf("%d timestamps for %d values", len(times), len(values))}
	}
	if err := checkOrder(times); err != nil {
		return TimeSeries{}, err
	}
	return TimeSeries{Times: times, Values: values}, nil
}

func (s TimeSeries) Len() int { return len(s.Times) }

// Span returns the first and last timestamps.
func (s TimeSeries) Span() (time.Time, time.Time) {
	if len(s.Times) == 0 {
		return time.Time{}, time.Time{}
	}
	return s.Times[0], s.Times[len(s.Times)-1]
}

// Step returns the median sampling interval, or zero for fewer than two samples.
func (s TimeSeries) Step() time.Duration {
	return medianStep(s.Times)
}

func checkOrder(times []time.Time) error {
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return &InputFormatError{
				Line: i + 1,
				Err:  fmt.Errorf("timestamp %s not after %s", times[i].Format(time.RFC3339), times[i-1].Format(time.RFC3339)),
			}
		}
	}
	return nil
}

func medianStep(times []time.Time) time.Duration {
	if len(times) < 2 {
		return 0
	}
	steps := make([]time.Duration, len(times)-1)
	for i := 1; i < len(times); i++ {
		steps[i-1] = times[i].Sub(times[i-1])
	}
	sort.Slice(steps, func(a, b int) bool { return steps[a] < steps[b] })
	return steps[len(steps)/2]
}

// IsInputFormat reports whether err stems from malformed input.
func IsInputFormat(err error) bool {
	return errors.Is(err, ErrInputFormat)
}
