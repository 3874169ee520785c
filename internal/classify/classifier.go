package classify

import (
	"fmt"

	"github.com/rewired-gh/mitostat/internal/logger"
	"github.com/rewired-gh/mitostat/internal/models"
)

// windowFraction is the half-width of a reference window as a share of the
// global maximum coordinate.
const windowFraction = 0.01

// Params holds the classification thresholds.
type Params struct {
	HighThreshold         float64 // occupancy fraction above which stationary is automatic
	LowThreshold          float64 // occupancy fraction at or below which moving is decisive
	MultiplicityThreshold float64 // share of evaluated frames with >1 in-window object
	GapThreshold          int     // consecutive unoccupied frames before a gap warning
}

// DefaultParams returns the canonical thresholds.
func DefaultParams() Params {
	return Params{
		HighThreshold:         0.9,
		LowThreshold:          0.7,
		MultiplicityThreshold: 0.5,
		GapThreshold:          30,
	}
}

// Validate checks that the thresholds are usable.
func (p Params) Validate() error {
	if p.HighThreshold <= 0 || p.HighThreshold >= 1 {
		return fmt.Errorf("high threshold must be in (0, 1), got %f: %w", p.HighThreshold, models.ErrConfiguration)
	}
	if p.LowThreshold <= 0 || p.LowThreshold >= 1 {
		return fmt.Errorf("low threshold must be in (0, 1), got %f: %w", p.LowThreshold, models.ErrConfiguration)
	}
	if p.LowThreshold >= p.HighThreshold {
		return fmt.Errorf("low threshold %f must be below high threshold %f: %w", p.LowThreshold, p.HighThreshold, models.ErrConfiguration)
	}
	if p.MultiplicityThreshold < 0 || p.MultiplicityThreshold > 1 {
		return fmt.Errorf("multiplicity threshold must be in [0, 1], got %f: %w", p.MultiplicityThreshold, models.ErrConfiguration)
	}
	if p.GapThreshold < 1 {
		return fmt.Errorf("gap threshold must be at least 1, got %d: %w", p.GapThreshold, models.ErrConfiguration)
	}
	return nil
}

// Classifier scores the reference objects of an interval against the
// position matrix. It is deterministic and side-effect-free: evaluating the
// same matrix and interval twice yields identical candidates.
type Classifier struct {
	params Params
}

// NewClassifier creates a classifier with validated thresholds.
func NewClassifier(p Params) (*Classifier, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{params: p}, nil
}

// Evaluate classifies every reference object of the interval: each occupied
// slot of the interval's start frame anchors an open window
// (x0−Δ, x0+Δ), Δ = 1% of the matrix's global maximum coordinate, and every
// later frame of the interval is scanned for objects strictly inside it.
// Objects that first appear after the start frame are never candidates.
func (c *Classifier) Evaluate(m *PositionMatrix, index int, iv models.Interval) ([]models.Candidate, error) {
	if err := iv.Validate(); err != nil {
		return nil, fmt.Errorf("interval %d: %v: %w", index, err, models.ErrConfiguration)
	}
	if iv.End > m.Frames() {
		return nil, fmt.Errorf("interval %d ends at frame %d beyond matrix of %d frames: %w", index, iv.End, m.Frames(), models.ErrConfiguration)
	}

	delta := windowFraction * m.MaxX()
	evaluated := iv.Evaluated()

	var candidates []models.Candidate
	for slot, anchor := range m.Row(iv.Start) {
		if IsAbsent(anchor) {
			continue
		}
		candidates = append(candidates, c.scoreReference(m, index, iv, slot, anchor, delta, evaluated))
	}

	// Adjacent-anchor proximity is a relation between candidates, so it is
	// flagged after all anchors are known. Slot order is anchor-position
	// order: rows are coordinate-sorted.
	for i := range candidates {
		if candidates[i].OccupancyFraction <= c.params.LowThreshold {
			continue
		}
		crowded := false
		if i > 0 && candidates[i].AnchorX-candidates[i-1].AnchorX < 2*delta {
			crowded = true
		}
		if i < len(candidates)-1 && candidates[i+1].AnchorX-candidates[i].AnchorX < 2*delta {
			crowded = true
		}
		if crowded {
			candidates[i].Warnings = append(candidates[i].Warnings, models.WarnAdjacentObjectProximity)
		}
	}

	tally := map[models.Tier]int{}
	for i := range candidates {
		tally[candidates[i].Tier]++
	}
	logger.Debug("Evaluate: interval %d [%d-%d] references=%d high=%d low=%d decisive=%d delta=%.4f",
		index, iv.Start, iv.End, len(candidates),
		tally[models.TierHighConfidence], tally[models.TierLowConfidence], tally[models.TierDecisiveMoving], delta)

	return candidates, nil
}

// scoreReference scans the interval's frames after the start frame for
// occupancy of one reference window.
func (c *Classifier) scoreReference(m *PositionMatrix, index int, iv models.Interval, slot int, anchor, delta float64, evaluated int) models.Candidate {
	lo, hi := anchor-delta, anchor+delta

	occupied := 0
	multiplicity := 0
	gap, longestGap := 0, 0
	trace := []models.TracePoint{{Frame: iv.Start, X: anchor}}

	for f := iv.Start + 1; f <= iv.End; f++ {
		hits := 0
		for _, v := range m.Row(f) {
			if IsAbsent(v) {
				continue
			}
			// Open interval: boundary-equal coordinates do not count.
			if v > lo && v < hi {
				hits++
				trace = append(trace, models.TracePoint{Frame: f, X: v})
			}
		}
		if hits > 0 {
			occupied++
			if hits > 1 {
				multiplicity++
			}
			gap = 0
		} else {
			gap++
			if gap > longestGap {
				longestGap = gap
			}
		}
	}

	fraction := 0.0
	if evaluated > 0 {
		fraction = float64(occupied) / float64(evaluated)
	}

	// First matching tier wins; boundaries are strict.
	var tier models.Tier
	switch {
	case fraction > c.params.HighThreshold:
		tier = models.TierHighConfidence
	case fraction > c.params.LowThreshold:
		tier = models.TierLowConfidence
	default:
		tier = models.TierDecisiveMoving
	}

	cand := models.Candidate{
		IntervalIndex:     index,
		Slot:              slot,
		AnchorX:           anchor,
		HalfWindow:        delta,
		OccupancyFraction: fraction,
		Tier:              tier,
		Multiplicity:      multiplicity,
		LongestGap:        longestGap,
		Trace:             trace,
	}

	// Warnings are only computed for objects that will be surfaced to a
	// human or auto-accepted.
	if fraction > c.params.LowThreshold {
		if float64(multiplicity) > c.params.MultiplicityThreshold*float64(evaluated) {
			cand.Warnings = append(cand.Warnings, models.WarnHighMultiplicity)
		}
		if longestGap > c.params.GapThreshold {
			cand.Warnings = append(cand.Warnings, models.WarnLongGap)
		}
	}

	return cand
}
