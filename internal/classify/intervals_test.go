package classify

import (
	"errors"
	"testing"

	"github.com/rewired-gh/mitostat/internal/models"
)

func TestSegmentFrames(t *testing.T) {
	tests := []struct {
		name        string
		totalFrames int
		windowSize  int
		onsetFrame  int
		want        []models.Interval
		wantNote    bool
	}{
		{
			name:        "no treatment exact window",
			totalFrames: 450, windowSize: 450, onsetFrame: 1,
			want: []models.Interval{{Start: 1, End: 450}},
		},
		{
			name:        "no treatment short recording clamps",
			totalFrames: 200, windowSize: 450, onsetFrame: 1,
			want: []models.Interval{{Start: 1, End: 200}},
		},
		{
			name:        "no treatment never extends past one interval",
			totalFrames: 2000, windowSize: 450, onsetFrame: 1,
			want: []models.Interval{{Start: 1, End: 450}},
		},
		{
			name:        "onset before a full window truncates baseline",
			totalFrames: 1000, windowSize: 450, onsetFrame: 300,
			want:     []models.Interval{{Start: 1, End: 300}, {Start: 301, End: 750}},
			wantNote: true,
		},
		{
			name:        "onset at exactly one window",
			totalFrames: 900, windowSize: 450, onsetFrame: 450,
			want: []models.Interval{{Start: 1, End: 450}, {Start: 451, End: 900}},
		},
		{
			name:        "late onset anchors baseline to onset",
			totalFrames: 1460, windowSize: 450, onsetFrame: 560,
			want: []models.Interval{{Start: 111, End: 560}, {Start: 561, End: 1010}, {Start: 1011, End: 1460}},
		},
		{
			name:        "undersized final interval within slack",
			totalFrames: 1110, windowSize: 450, onsetFrame: 300,
			want: []models.Interval{{Start: 1, End: 300}, {Start: 301, End: 750}, {Start: 751, End: 1110}},
		},
		{
			name:        "leftover below slack is dropped with a note",
			totalFrames: 1000, windowSize: 450, onsetFrame: 300,
			want:     []models.Interval{{Start: 1, End: 300}, {Start: 301, End: 750}},
			wantNote: true,
		},
		{
			name:        "cap at five intervals without a note",
			totalFrames: 10000, windowSize: 450, onsetFrame: 300,
			want: []models.Interval{
				{Start: 1, End: 300},
				{Start: 301, End: 750},
				{Start: 751, End: 1200},
				{Start: 1201, End: 1650},
				{Start: 1651, End: 2100},
			},
		},
		{
			name:        "recording ends exactly at last full window",
			totalFrames: 750, windowSize: 450, onsetFrame: 300,
			want: []models.Interval{{Start: 1, End: 300}, {Start: 301, End: 750}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, err := SegmentFrames(tt.totalFrames, tt.windowSize, tt.onsetFrame)
			if err != nil {
				t.Fatalf("SegmentFrames failed: %v", err)
			}
			if len(seg.Intervals) != len(tt.want) {
				t.Fatalf("got %d intervals %v, want %d %v", len(seg.Intervals), seg.Intervals, len(tt.want), tt.want)
			}
			for i, iv := range seg.Intervals {
				if iv != tt.want[i] {
					t.Errorf("interval %d = %+v, want %+v", i+1, iv, tt.want[i])
				}
			}
			if (seg.Note != "") != tt.wantNote {
				t.Errorf("note = %q, wantNote %v", seg.Note, tt.wantNote)
			}
		})
	}
}

func TestSegmentFramesContiguity(t *testing.T) {
	seg, err := SegmentFrames(2300, 450, 320)
	if err != nil {
		t.Fatalf("SegmentFrames failed: %v", err)
	}
	if len(seg.Intervals) > 5 {
		t.Fatalf("got %d intervals, cap is 5", len(seg.Intervals))
	}
	for i := 1; i < len(seg.Intervals); i++ {
		if seg.Intervals[i].Start != seg.Intervals[i-1].End+1 {
			t.Errorf("gap between interval %d and %d: %+v, %+v",
				i, i+1, seg.Intervals[i-1], seg.Intervals[i])
		}
	}
	for i, iv := range seg.Intervals {
		if err := iv.Validate(); err != nil {
			t.Errorf("interval %d invalid: %v", i+1, err)
		}
	}
}

func TestSegmentFramesErrors(t *testing.T) {
	tests := []struct {
		name        string
		totalFrames int
		windowSize  int
		onsetFrame  int
	}{
		{"zero window", 1000, 0, 1},
		{"zero total frames", 0, 450, 1},
		{"zero onset", 1000, 450, 0},
		{"onset beyond recording", 1000, 450, 1001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SegmentFrames(tt.totalFrames, tt.windowSize, tt.onsetFrame)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("error %v should wrap ErrConfiguration", err)
			}
		})
	}
}
