// Package review arbitrates tentative classifications into final decisions.
//
// The classifier's high- and low-confidence candidates are presented to a
// confirmation Provider — a human at a terminal, a reviewer on Telegram, or
// a scripted provider in tests — one at a time, strictly in order. The
// defaults are asymmetric on purpose: a high-confidence candidate stays
// stationary unless explicitly rejected, while a borderline candidate falls
// back to moving unless explicitly accepted. Any answer the provider cannot
// recognise behaves like no answer at all, so an unattended run degrades to
// deterministic fallbacks rather than stalling or guessing.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rewired-gh/mitostat/internal/logger"
	"github.com/rewired-gh/mitostat/internal/models"
)

// Response is a confirmation provider's answer for one candidate.
type Response int

const (
	// ResponseNone means no answer, or an answer the provider could not
	// recognise. The tier default applies.
	ResponseNone Response = iota
	// ResponseAccept explicitly keeps the tentative stationary call.
	ResponseAccept
	// ResponseReject explicitly flips the candidate to moving.
	ResponseReject
)

// ErrAborted reports that the operator ended the run during review. The
// in-progress interval's result must be discarded; results already saved for
// prior intervals remain valid.
var ErrAborted = errors.New("review aborted by operator")

// Provider is the human-in-the-loop capability boundary. Confirm blocks
// until a response arrives, the provider's own no-answer rule fires, or ctx
// is cancelled. Only one Confirm call is outstanding at a time.
type Provider interface {
	Confirm(ctx context.Context, c models.Candidate) (Response, error)
}

// AutoProvider answers nothing for every candidate, so each tier's default
// applies. It makes unattended runs explicit rather than a special case.
type AutoProvider struct{}

// Confirm always returns ResponseNone.
func (AutoProvider) Confirm(ctx context.Context, c models.Candidate) (Response, error) {
	if err := ctx.Err(); err != nil {
		return ResponseNone, ErrAborted
	}
	return ResponseNone, nil
}

// Arbiter finalises candidates into per-interval decisions.
type Arbiter struct {
	provider Provider
}

// New creates an arbiter using the given confirmation provider.
func New(p Provider) *Arbiter {
	return &Arbiter{provider: p}
}

// Resolve maps an interval's candidates to final decisions and aggregates
// the stationary count. An empty candidate list is a valid outcome (the
// interval's start frame may be a dropped frame) and yields a result with
// zero decisions. Resolve suspends on the provider for every candidate
// that needs confirmation; on abort it returns ErrAborted and the partial
// result is discarded by the caller.
func (a *Arbiter) Resolve(ctx context.Context, index int, iv models.Interval, candidates []models.Candidate) (models.IntervalResult, error) {
	result := models.IntervalResult{Index: index, Interval: iv}

	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return models.IntervalResult{}, ErrAborted
		}
		c := candidates[i]

		decision, err := a.decide(ctx, c)
		if err != nil {
			return models.IntervalResult{}, err
		}
		result.Decisions = append(result.Decisions, decision)
	}

	result.StationaryCount = result.CountStationary()
	return result, nil
}

// decide applies the tier rules to one candidate.
func (a *Arbiter) decide(ctx context.Context, c models.Candidate) (models.Decision, error) {
	d := models.Decision{
		ID:                uuid.New().String(),
		IntervalIndex:     c.IntervalIndex,
		Slot:              c.Slot,
		AnchorX:           c.AnchorX,
		OccupancyFraction: c.OccupancyFraction,
		Tier:              c.Tier,
		Warnings:          c.Warnings,
		DecidedAt:         time.Now(),
	}

	switch c.Tier {
	case models.TierDecisiveMoving:
		d.Verdict = models.VerdictMoving
		d.Provenance = models.ProvenanceDecisive
		return d, nil

	case models.TierHighConfidence:
		resp, err := a.provider.Confirm(ctx, c)
		if err != nil {
			return models.Decision{}, fmt.Errorf("confirm interval %d slot %d: %w", c.IntervalIndex, c.Slot, err)
		}
		// Anything short of an explicit rejection keeps the automatic call.
		if resp == ResponseReject {
			d.Verdict = models.VerdictMoving
			d.Provenance = models.ProvenanceHumanOverride
		} else {
			d.Verdict = models.VerdictStationary
			d.Provenance = models.ProvenanceHighConfidence
		}
		return d, nil

	case models.TierLowConfidence:
		resp, err := a.provider.Confirm(ctx, c)
		if err != nil {
			return models.Decision{}, fmt.Errorf("confirm interval %d slot %d: %w", c.IntervalIndex, c.Slot, err)
		}
		switch resp {
		case ResponseAccept:
			// The human confirmed the tentative tier; not an override.
			d.Verdict = models.VerdictStationary
			d.Provenance = models.ProvenanceLowConfidence
		case ResponseReject:
			d.Verdict = models.VerdictMoving
			d.Provenance = models.ProvenanceHumanOverride
		default:
			// No or unrecognised answer: borderline falls back to moving.
			d.Verdict = models.VerdictMoving
			d.Provenance = models.ProvenanceLowConfidence
		}
		return d, nil

	default:
		logger.Warn("decide: unknown tier %q for interval %d slot %d, treating as decisive moving", c.Tier, c.IntervalIndex, c.Slot)
		d.Tier = models.TierDecisiveMoving
		d.Verdict = models.VerdictMoving
		d.Provenance = models.ProvenanceDecisive
		return d, nil
	}
}
