package series

import (
	"errors"
	"fmt"
)

// Domain errors for the diagnostics pipeline.
var (
	// ErrInputFormat indicates a malformed file, a missing column or an unparsable timestamp.
	ErrInputFormat = errors.New("series: malformed input")

	// ErrInsufficientData indicates a series too short to derive processing windows.
	ErrInsufficientData = errors.New("series: insufficient data")

	// ErrDegenerateSignal indicates a signal without detectable structure.
	ErrDegenerateSignal = errors.New("series: degenerate signal")

	// ErrMissingAggregate indicates a phase matched no rows of the secondary dataset.
	ErrMissingAggregate = errors.New("series: no rows within phase")
)

// InputFormatError wraps an input problem with the file, column and line it refers to.
type InputFormatError struct {
	File   string
	Column string
	Line   int
	Err    error
}

func (e *InputFormatError) Error() string {
	msg := "input format"
	if e.File != "" {
		msg += " " + e.File
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" column %q", e.Column)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InputFormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInputFormat}
	}
	return []error{ErrInputFormat, e.Err}
}

// MissingAggregateError names the phase that produced no aggregate.
type MissingAggregateError struct {
	Phase string
}

func (e *MissingAggregateError) Error() string {
	return fmt.Sprintf("phase %q: no rows within interval", e.Phase)
}

func (e *MissingAggregateError) Unwrap() error {
	return ErrMissingAggregate
}
