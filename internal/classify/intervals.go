// Package classify implements the stationarity classification core: frame
// sequence segmentation into bounded analysis intervals, the dense per-frame
// position matrix, and the windowed-presence classifier that scores each
// reference object of an interval.
//
// Classification has no object identity. A reference object is an occupied
// slot of an interval's first frame; every later frame of the interval is
// scanned for any object inside a fixed-width window around that anchor.
// The occupancy fraction across the interval drives a three-tier call:
//
//	fraction > high  → automatic stationary (high confidence)
//	fraction > low   → tentative stationary, needs human confirmation
//	fraction ≤ low   → moving, decisive
//
// All comparisons are deliberately strict/non-strict exactly as stated: the
// window membership test is an open interval, and the tier boundaries use >
// so that a fraction equal to a threshold falls into the lower tier.
package classify

import (
	"fmt"

	"github.com/rewired-gh/mitostat/internal/models"
)

const (
	// maxIntervals caps the number of analysis intervals per run. Frames
	// beyond the fifth interval are simply not covered.
	maxIntervals = 5

	// finalIntervalSlack is how many frames short of a full window the last
	// interval may run. Fewer remaining frames than windowSize−slack and the
	// prospective interval is dropped instead.
	finalIntervalSlack = 100
)

// Segmentation holds the computed analysis intervals. Note is non-empty when
// the final prospective interval was dropped because too few frames
// remained; this is informational, not an error, and processing continues
// with the intervals present.
type Segmentation struct {
	Intervals []models.Interval
	Note      string
}

// SegmentFrames computes up to five contiguous analysis intervals from the
// total frame count, the window size, and the treatment onset frame.
//
// An onset frame of 1 means "no treatment": the run gets exactly one
// baseline interval of windowSize frames (clamped to the recording). With a
// treatment, the first interval ends at the onset — truncated to
// [1, onset] when the onset arrives before a full window fits — and further
// whole windows are appended while frames remain.
func SegmentFrames(totalFrames, windowSize, onsetFrame int) (Segmentation, error) {
	if windowSize < 1 {
		return Segmentation{}, fmt.Errorf("window size must be positive, got %d: %w", windowSize, models.ErrConfiguration)
	}
	if totalFrames < 1 {
		return Segmentation{}, fmt.Errorf("total frames must be at least 1, got %d: %w", totalFrames, models.ErrConfiguration)
	}
	if onsetFrame < 1 {
		return Segmentation{}, fmt.Errorf("onset frame must be positive, got %d: %w", onsetFrame, models.ErrConfiguration)
	}
	if onsetFrame > totalFrames {
		return Segmentation{}, fmt.Errorf("onset frame %d beyond recording of %d frames: %w", onsetFrame, totalFrames, models.ErrConfiguration)
	}

	if onsetFrame == 1 {
		end := windowSize
		if end > totalFrames {
			end = totalFrames
		}
		return Segmentation{Intervals: []models.Interval{{Start: 1, End: end}}}, nil
	}

	var first models.Interval
	if onsetFrame < windowSize {
		// The onset itself truncates the baseline window.
		first = models.Interval{Start: 1, End: onsetFrame}
	} else {
		first = models.Interval{Start: onsetFrame - windowSize + 1, End: onsetFrame}
	}

	intervals := []models.Interval{first}
	note := ""
	for len(intervals) < maxIntervals {
		prev := intervals[len(intervals)-1]
		switch {
		case prev.End >= totalFrames:
			// Recording fully covered.
		case prev.End+windowSize <= totalFrames:
			intervals = append(intervals, models.Interval{Start: prev.End + 1, End: prev.End + windowSize})
			continue
		case prev.End+windowSize-finalIntervalSlack <= totalFrames:
			// One final undersized interval runs to the end of the recording.
			intervals = append(intervals, models.Interval{Start: prev.End + 1, End: totalFrames})
			continue
		default:
			note = fmt.Sprintf("only %d intervals: frames %d-%d are too few for another window", len(intervals), prev.End+1, totalFrames)
		}
		break
	}

	return Segmentation{Intervals: intervals, Note: note}, nil
}
