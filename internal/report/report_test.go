package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rewired-gh/mitostat/internal/models"
)

func testReport(index int) IntervalReport {
	iv := models.Interval{Start: 1, End: 300}
	return IntervalReport{
		Result: models.IntervalResult{
			Index:    index,
			Interval: iv,
			Decisions: []models.Decision{
				{
					ID: "d-1", IntervalIndex: index, Slot: 0, AnchorX: 42.5,
					OccupancyFraction: 0.95, Tier: models.TierHighConfidence,
					Verdict: models.VerdictStationary, Provenance: models.ProvenanceHighConfidence,
					DecidedAt: time.Now(),
				},
				{
					ID: "d-2", IntervalIndex: index, Slot: 1, AnchorX: 87.0,
					OccupancyFraction: 0.1, Tier: models.TierDecisiveMoving,
					Verdict: models.VerdictMoving, Provenance: models.ProvenanceDecisive,
					DecidedAt: time.Now(),
				},
			},
			StationaryCount: 1,
		},
		Candidates: []models.Candidate{
			{
				IntervalIndex: index, Slot: 0, AnchorX: 42.5, OccupancyFraction: 0.95,
				Tier:  models.TierHighConfidence,
				Trace: []models.TracePoint{{Frame: 1, X: 42.5}, {Frame: 2, X: 42.6}},
			},
			{
				IntervalIndex: index, Slot: 1, AnchorX: 87.0, OccupancyFraction: 0.1,
				Tier:  models.TierDecisiveMoving,
				Trace: []models.TracePoint{{Frame: 1, X: 87.0}},
			},
		},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, "trace.csv", []IntervalReport{testReport(1), testReport(2)})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	html := buf.String()
	if !strings.Contains(html, "Interval 1: frames 1-300") {
		t.Error("report missing first interval title")
	}
	if !strings.Contains(html, "Interval 2: frames 1-300") {
		t.Error("report missing second interval title")
	}
	if !strings.Contains(html, "slot 0 (x=42.5)") {
		t.Error("report missing series name for slot 0")
	}
	if !strings.Contains(html, "green") {
		t.Error("report missing stationary colour")
	}
	if !strings.Contains(html, "red") {
		t.Error("report missing moving colour")
	}
	if !strings.Contains(html, "trace.csv") {
		t.Error("report missing source name")
	}
}

func TestRenderMissingDecisionFails(t *testing.T) {
	r := testReport(1)
	r.Result.Decisions = r.Result.Decisions[:1]
	r.Result.StationaryCount = 1

	var buf bytes.Buffer
	if err := Render(&buf, "trace.csv", []IntervalReport{r}); err == nil {
		t.Fatal("expected error for candidate without a decision")
	}
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, "trace.csv", nil); err != nil {
		t.Fatalf("Render failed on an empty run: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected page scaffolding even without charts")
	}
}
