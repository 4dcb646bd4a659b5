// Package phase segments a cyclone's vorticity signal into life-cycle phases.
//
// A [Set] is an ordered, immutable sequence of [Phase] values. Each phase has
// a full identity (kind plus instance number, "decay 2") used for boundaries
// and exports, and a base name (its [Kind]) used to group phases for display.
//
// # Segmentation
//
//	w, _ := filter.DeriveWindows(track.Len())
//	res, err := phase.NewSegmenter(phase.DefaultOptions()).Segment(track, phase.Params{Windows: w})
//	if errors.Is(err, series.ErrDegenerateSignal) {
//	    // constant signal
//	}
//
// Segmentation is a pure function of its inputs and is safe to run
// concurrently on independent tracks.
package phase
