// Package models defines the core domain entities for mitostat.
// These models represent detector observations, analysis intervals, and the
// per-object stationarity decisions produced by classification and review.
// All models include built-in validation to ensure data integrity throughout
// the pipeline.
//
// Terminology:
//   - Frame: one timepoint/image in the recorded sequence.
//   - Slot: a column position in a frame's object list; slot order is
//     reassigned every frame by coordinate sort and carries no identity
//     across frames.
//   - Reference object: an object anchored at a slot of an interval's first
//     frame, used to define a spatial window for the rest of the interval.
package models

import (
	"errors"
	"math"
)

// Observation is a single 1-D detection: an object seen at coordinate X in
// the given frame. Observations carry no identity; the upstream detector
// emits one per object per frame.
type Observation struct {
	Frame int     `json:"frame"`
	X     float64 `json:"x"`
}

// Validate checks that the observation fields are valid.
func (o Observation) Validate() error {
	if o.Frame < 1 {
		return errors.New("frame index must be positive")
	}
	if math.IsNaN(o.X) || math.IsInf(o.X, 0) {
		return errors.New("coordinate must be finite")
	}
	if o.X < 0 {
		return errors.New("coordinate must not be negative")
	}
	return nil
}
