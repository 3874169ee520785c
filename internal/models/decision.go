package models

import (
	"errors"
	"time"
)

// Verdict is the final stationary/moving call for a reference object.
type Verdict string

const (
	// VerdictStationary marks an object repeatedly occupying its window.
	VerdictStationary Verdict = "stationary"
	// VerdictMoving marks an object that left its window.
	VerdictMoving Verdict = "moving"
)

// Tier is the automatic pre-confirmation classification bucket.
type Tier string

const (
	// TierHighConfidence: occupancy fraction above the high threshold.
	// Tentatively stationary; an explicit rejection is required to flip it.
	TierHighConfidence Tier = "high_confidence"
	// TierLowConfidence: occupancy fraction between the thresholds.
	// Tentatively stationary but only an explicit acceptance keeps it.
	TierLowConfidence Tier = "low_confidence"
	// TierDecisiveMoving: occupancy fraction at or below the low threshold.
	// Moving without any confirmation request.
	TierDecisiveMoving Tier = "decisive_moving"
)

// HighlightColor returns the interim trace colour used while a candidate of
// this tier awaits confirmation. Final colours come from the Verdict.
func (t Tier) HighlightColor() string {
	switch t {
	case TierHighConfidence:
		return "orange"
	case TierLowConfidence:
		return "gold"
	default:
		return "gray"
	}
}

// Color returns the trace colour for a finalised verdict.
func (v Verdict) Color() string {
	if v == VerdictStationary {
		return "green"
	}
	return "red"
}

// Provenance records how a decision was reached.
type Provenance string

const (
	// ProvenanceHighConfidence: automatic high-confidence classification
	// stood (accepted, or no valid answer).
	ProvenanceHighConfidence Provenance = "automatic_high_confidence"
	// ProvenanceLowConfidence: borderline classification resolved by the
	// tier default (or an explicit acceptance of the tentative call).
	ProvenanceLowConfidence Provenance = "automatic_low_confidence"
	// ProvenanceDecisive: below the low threshold; no confirmation asked.
	ProvenanceDecisive Provenance = "automatic_decisive"
	// ProvenanceHumanOverride: an explicit response flipped the tentative
	// classification.
	ProvenanceHumanOverride Provenance = "human_override"
)

// Warning flags an ambiguous or unreliable classification. Warnings are
// surfaced alongside confirmation prompts; they never change the tier.
type Warning string

const (
	// WarnAdjacentObjectProximity: another reference anchor sits closer
	// than one full window width, so windows may capture the neighbour.
	WarnAdjacentObjectProximity Warning = "adjacent_object_proximity"
	// WarnHighMultiplicity: more than one object fell inside the window in
	// over the configured share of evaluated frames.
	WarnHighMultiplicity Warning = "high_multiplicity"
	// WarnLongGap: the window was unoccupied for a run of consecutive
	// frames longer than the gap threshold.
	WarnLongGap Warning = "long_gap"
)

// Decision is the finalised per-reference-object outcome for one interval.
type Decision struct {
	ID                string    `json:"id"`
	IntervalIndex     int       `json:"interval_index"` // 1-based
	Slot              int       `json:"slot"`
	AnchorX           float64   `json:"anchor_x"`
	OccupancyFraction float64   `json:"occupancy_fraction"`
	Tier              Tier      `json:"tier"`
	Verdict           Verdict   `json:"verdict"`
	Provenance        Provenance `json:"provenance"`
	Warnings          []Warning `json:"warnings,omitempty"`
	DecidedAt         time.Time `json:"decided_at"`
}

// Validate checks that the decision fields are consistent.
func (d *Decision) Validate() error {
	if d.ID == "" {
		return errors.New("decision ID must not be empty")
	}
	if d.IntervalIndex < 1 {
		return errors.New("interval index must be positive")
	}
	if d.Slot < 0 {
		return errors.New("slot must not be negative")
	}
	if d.OccupancyFraction < 0.0 || d.OccupancyFraction > 1.0 {
		return errors.New("occupancy fraction must be between 0.0 and 1.0")
	}
	switch d.Verdict {
	case VerdictStationary, VerdictMoving:
	default:
		return errors.New("verdict must be 'stationary' or 'moving'")
	}
	switch d.Tier {
	case TierHighConfidence, TierLowConfidence, TierDecisiveMoving:
	default:
		return errors.New("unknown tier")
	}
	switch d.Provenance {
	case ProvenanceHighConfidence, ProvenanceLowConfidence, ProvenanceDecisive, ProvenanceHumanOverride:
	default:
		return errors.New("unknown provenance")
	}
	if d.Tier == TierDecisiveMoving && d.Verdict != VerdictMoving {
		return errors.New("decisive tier must carry a moving verdict")
	}
	return nil
}

// IntervalResult aggregates the decisions of one interval. Objects that first
// appear after the interval's start frame are never classified and are not
// represented here at all.
type IntervalResult struct {
	Index           int        `json:"index"` // 1-based
	Interval        Interval   `json:"interval"`
	Decisions       []Decision `json:"decisions"`
	StationaryCount int        `json:"stationary_count"`
}

// CountStationary recomputes the stationary tally from the decision list.
func (r *IntervalResult) CountStationary() int {
	n := 0
	for i := range r.Decisions {
		if r.Decisions[i].Verdict == VerdictStationary {
			n++
		}
	}
	return n
}

// Validate checks that the result is internally consistent.
func (r *IntervalResult) Validate() error {
	if r.Index < 1 {
		return errors.New("interval index must be positive")
	}
	if err := r.Interval.Validate(); err != nil {
		return err
	}
	if r.StationaryCount != r.CountStationary() {
		return errors.New("stationary count must match the decision list")
	}
	for i := range r.Decisions {
		if err := r.Decisions[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
