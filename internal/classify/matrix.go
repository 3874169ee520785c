package classify

import (
	"fmt"
	"math"
	"sort"

	"github.com/rewired-gh/mitostat/internal/models"
)

// Absent is the sentinel marking an empty matrix cell. Cells compare via
// IsAbsent, never ==.
func Absent() float64 { return math.NaN() }

// IsAbsent reports whether a matrix cell holds the absent sentinel.
func IsAbsent(v float64) bool { return math.IsNaN(v) }

// PositionMatrix is the dense frame-by-slot coordinate matrix built once per
// dataset and read-only afterwards. Rows are frames (1..totalFrames) in time
// order; columns are slots ordered by ascending coordinate within each
// frame. Slot order is reassigned every frame and carries no identity across
// frames. Rows of frames with no detections are entirely absent,
// representing a dropped or out-of-focus frame rather than "zero objects".
type PositionMatrix struct {
	rows [][]float64
	maxX float64
}

// BuildMatrix converts detector observations into a PositionMatrix spanning
// frames 1..totalFrames. Within each frame, coordinates are sorted ascending
// and the row is padded to the global maximum objects-per-frame with the
// absent sentinel.
//
// Compatibility rule, preserved deliberately: a coordinate of exactly 0 in
// any slot after the first is indistinguishable from "absent" in the source
// data format and is normalised to the sentinel. An object genuinely parked
// at position 0 can therefore only survive in slot 0.
func BuildMatrix(observations []models.Observation, totalFrames int) (*PositionMatrix, error) {
	if totalFrames < 1 {
		return nil, fmt.Errorf("total frames must be at least 1, got %d: %w", totalFrames, models.ErrConfiguration)
	}

	byFrame := make(map[int][]float64)
	maxSlots := 0
	maxX := 0.0
	for i, obs := range observations {
		if err := obs.Validate(); err != nil {
			return nil, fmt.Errorf("observation %d: %v: %w", i, err, models.ErrData)
		}
		if obs.Frame > totalFrames {
			return nil, fmt.Errorf("observation %d: frame %d beyond recording of %d frames: %w", i, obs.Frame, totalFrames, models.ErrData)
		}
		byFrame[obs.Frame] = append(byFrame[obs.Frame], obs.X)
		if len(byFrame[obs.Frame]) > maxSlots {
			maxSlots = len(byFrame[obs.Frame])
		}
		if obs.X > maxX {
			maxX = obs.X
		}
	}

	rows := make([][]float64, totalFrames)
	for f := 1; f <= totalFrames; f++ {
		row := make([]float64, maxSlots)
		xs := byFrame[f]
		sort.Float64s(xs)
		for s := 0; s < maxSlots; s++ {
			switch {
			case s >= len(xs):
				row[s] = Absent()
			case s > 0 && xs[s] == 0:
				row[s] = Absent()
			default:
				row[s] = xs[s]
			}
		}
		rows[f-1] = row
	}

	return &PositionMatrix{rows: rows, maxX: maxX}, nil
}

// Frames returns the number of rows (frames) in the matrix.
func (m *PositionMatrix) Frames() int { return len(m.rows) }

// Slots returns the fixed row width: the maximum objects-per-frame across
// the whole sequence.
func (m *PositionMatrix) Slots() int {
	if len(m.rows) == 0 {
		return 0
	}
	return len(m.rows[0])
}

// Row returns the slot coordinates of the given 1-indexed frame. The
// returned slice is the matrix's backing storage; callers must not modify it.
func (m *PositionMatrix) Row(frame int) []float64 {
	return m.rows[frame-1]
}

// At returns the coordinate at (frame, slot), frame 1-indexed.
func (m *PositionMatrix) At(frame, slot int) float64 {
	return m.rows[frame-1][slot]
}

// MaxX returns the global maximum coordinate across all frames. The
// classifier derives its window half-width from this.
func (m *PositionMatrix) MaxX() float64 { return m.maxX }
