package models

// TracePoint is one in-window detection of a reference object, kept for
// rendering the object's timeline.
type TracePoint struct {
	Frame int     `json:"frame"`
	X     float64 `json:"x"`
}

// Candidate is the classifier's output for one reference object, before
// arbitration. The anchor is purely positional: it identifies an occupied
// slot of the interval's first frame, never a tracked identity.
type Candidate struct {
	IntervalIndex     int          `json:"interval_index"` // 1-based
	Slot              int          `json:"slot"`
	AnchorX           float64      `json:"anchor_x"`
	HalfWindow        float64      `json:"half_window"` // Δ; window is the open interval (AnchorX−Δ, AnchorX+Δ)
	OccupancyFraction float64      `json:"occupancy_fraction"`
	Tier              Tier         `json:"tier"`
	Warnings          []Warning    `json:"warnings,omitempty"`
	Multiplicity      int          `json:"multiplicity"` // frames with >1 in-window object
	LongestGap        int          `json:"longest_gap"`  // longest unoccupied frame run
	Trace             []TracePoint `json:"trace"`
}

// NeedsConfirmation reports whether the arbiter must consult the
// confirmation provider before finalising this candidate.
func (c *Candidate) NeedsConfirmation() bool {
	return c.Tier == TierHighConfidence || c.Tier == TierLowConfidence
}

// HasWarning reports whether the given warning flag is set.
func (c *Candidate) HasWarning(w Warning) bool {
	for _, have := range c.Warnings {
		if have == w {
			return true
		}
	}
	return false
}
