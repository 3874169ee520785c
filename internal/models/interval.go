package models

import "errors"

// Interval is a contiguous, bounded sub-range of frames analysed as one
// classification unit. Bounds are 1-indexed and inclusive. Intervals are
// computed once per run and immutable afterwards.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Frames returns the number of frames the interval spans, including the
// start frame.
func (iv Interval) Frames() int {
	return iv.End - iv.Start + 1
}

// Evaluated returns the number of frames scored against a reference window.
// The start frame defines the window and is not itself evaluated.
func (iv Interval) Evaluated() int {
	return iv.End - iv.Start
}

// Validate checks that the interval bounds are valid.
func (iv Interval) Validate() error {
	if iv.Start < 1 {
		return errors.New("interval start must be positive")
	}
	if iv.End < iv.Start {
		return errors.New("interval end must not precede its start")
	}
	return nil
}
