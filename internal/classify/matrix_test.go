package classify

import (
	"errors"
	"testing"

	"github.com/rewired-gh/mitostat/internal/models"
)

func obs(frame int, xs ...float64) []models.Observation {
	out := make([]models.Observation, 0, len(xs))
	for _, x := range xs {
		out = append(out, models.Observation{Frame: frame, X: x})
	}
	return out
}

func TestBuildMatrixSortsAndPads(t *testing.T) {
	var observations []models.Observation
	observations = append(observations, obs(1, 30.0, 10.0, 20.0)...)
	observations = append(observations, obs(2, 15.0)...)

	m, err := BuildMatrix(observations, 2)
	if err != nil {
		t.Fatalf("BuildMatrix failed: %v", err)
	}

	if m.Frames() != 2 {
		t.Fatalf("Frames() = %d, want 2", m.Frames())
	}
	if m.Slots() != 3 {
		t.Fatalf("Slots() = %d, want 3", m.Slots())
	}

	want := []float64{10.0, 20.0, 30.0}
	for s, x := range want {
		if got := m.At(1, s); got != x {
			t.Errorf("At(1, %d) = %v, want %v", s, got, x)
		}
	}

	if got := m.At(2, 0); got != 15.0 {
		t.Errorf("At(2, 0) = %v, want 15", got)
	}
	for s := 1; s < 3; s++ {
		if !IsAbsent(m.At(2, s)) {
			t.Errorf("At(2, %d) = %v, want absent", s, m.At(2, s))
		}
	}

	if got := m.MaxX(); got != 30.0 {
		t.Errorf("MaxX() = %v, want 30", got)
	}
}

func TestBuildMatrixDroppedFrameIsAllAbsent(t *testing.T) {
	var observations []models.Observation
	observations = append(observations, obs(1, 5.0, 8.0)...)
	observations = append(observations, obs(3, 5.1)...)

	m, err := BuildMatrix(observations, 3)
	if err != nil {
		t.Fatalf("BuildMatrix failed: %v", err)
	}

	for s := 0; s < m.Slots(); s++ {
		if !IsAbsent(m.At(2, s)) {
			t.Errorf("dropped frame slot %d = %v, want absent", s, m.At(2, s))
		}
	}
}

func TestBuildMatrixZeroBeyondFirstSlot(t *testing.T) {
	// A zero coordinate sorts first, so zeros past slot 0 only occur with
	// several zero detections in one frame. They normalise to absent.
	observations := obs(1, 0.0, 0.0, 12.0)
	observations = append(observations, obs(2, 12.0)...)

	m, err := BuildMatrix(observations, 2)
	if err != nil {
		t.Fatalf("BuildMatrix failed: %v", err)
	}

	if got := m.At(1, 0); got != 0.0 {
		t.Errorf("At(1, 0) = %v, want 0 (slot 0 keeps a genuine zero)", got)
	}
	if !IsAbsent(m.At(1, 1)) {
		t.Errorf("At(1, 1) = %v, want absent", m.At(1, 1))
	}
	if got := m.At(1, 2); got != 12.0 {
		t.Errorf("At(1, 2) = %v, want 12", got)
	}
}

func TestBuildMatrixErrors(t *testing.T) {
	tests := []struct {
		name         string
		observations []models.Observation
		totalFrames  int
		wantErr      error
	}{
		{"zero total frames", obs(1, 5.0), 0, models.ErrConfiguration},
		{"frame beyond recording", obs(9, 5.0), 5, models.ErrData},
		{"invalid observation", []models.Observation{{Frame: 1, X: -4}}, 5, models.ErrData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildMatrix(tt.observations, tt.totalFrames)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v should wrap %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildMatrixNoObservations(t *testing.T) {
	m, err := BuildMatrix(nil, 3)
	if err != nil {
		t.Fatalf("BuildMatrix failed: %v", err)
	}
	if m.Slots() != 0 {
		t.Errorf("Slots() = %d, want 0", m.Slots())
	}
	if m.MaxX() != 0 {
		t.Errorf("MaxX() = %v, want 0", m.MaxX())
	}
}
