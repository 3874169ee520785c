// Package storage persists classification runs and their per-interval
// results to SQLite. The schema is created on open. Saving an interval
// result replaces any prior rows for that (run, interval) in a single
// transaction, so redoing the analysis of one interval is idempotent and
// never disturbs the results of other intervals.
package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rewired-gh/mitostat/internal/models"
)

// Storage is the result sink. Safe for the single-writer pipeline; database
// access goes through database/sql.
type Storage struct {
	db *sql.DB
}

// RunParams is the parameter snapshot stored with each run so a saved run is
// reproducible from the database alone.
type RunParams struct {
	Source                string
	TotalFrames           int
	WindowSize            int
	OnsetFrame            int
	HighThreshold         float64
	LowThreshold          float64
	MultiplicityThreshold float64
	GapThreshold          int
}

// New opens (or creates) the result database at path. Use ":memory:" for
// tests.
func New(path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id                 TEXT PRIMARY KEY,
			source                 TEXT,
			total_frames           BIGINT,
			window_size            BIGINT,
			onset_frame            BIGINT,
			high_threshold         DOUBLE,
			low_threshold          DOUBLE,
			multiplicity_threshold DOUBLE,
			gap_threshold          BIGINT,
			created_at             TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS interval_results (
			run_id           TEXT NOT NULL,
			interval_index   BIGINT NOT NULL,
			start_frame      BIGINT NOT NULL,
			end_frame        BIGINT NOT NULL,
			stationary_count BIGINT NOT NULL,
			saved_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, interval_index),
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS decisions (
			decision_id        TEXT PRIMARY KEY,
			run_id             TEXT NOT NULL,
			interval_index     BIGINT NOT NULL,
			slot               BIGINT NOT NULL,
			anchor_x           DOUBLE NOT NULL,
			occupancy_fraction DOUBLE NOT NULL,
			tier               TEXT NOT NULL,
			verdict            TEXT NOT NULL,
			provenance         TEXT NOT NULL,
			warnings           TEXT,
			decided_at         TIMESTAMP NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the underlying database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// CreateRun records a new run with its parameter snapshot and returns the
// generated run ID.
func (s *Storage) CreateRun(p RunParams) (string, error) {
	runID := uuid.New().String()
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, source, total_frames, window_size, onset_frame,
			high_threshold, low_threshold, multiplicity_threshold, gap_threshold)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, p.Source, p.TotalFrames, p.WindowSize, p.OnsetFrame,
		p.HighThreshold, p.LowThreshold, p.MultiplicityThreshold, p.GapThreshold,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return runID, nil
}

// RunExists reports whether a run ID is present.
func (s *Storage) RunExists(runID string) (bool, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up run: %w", err)
	}
	return n > 0, nil
}

// SaveIntervalResult saves one interval's result, replacing any previously
// saved rows for the same (run, interval). Other intervals are untouched.
func (s *Storage) SaveIntervalResult(runID string, res models.IntervalResult) error {
	if err := res.Validate(); err != nil {
		return fmt.Errorf("invalid interval result: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM decisions WHERE run_id = ? AND interval_index = ?`, runID, res.Index); err != nil {
		return fmt.Errorf("failed to clear prior decisions: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM interval_results WHERE run_id = ? AND interval_index = ?`, runID, res.Index); err != nil {
		return fmt.Errorf("failed to clear prior interval result: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO interval_results (run_id, interval_index, start_frame, end_frame, stationary_count)
		VALUES (?, ?, ?, ?, ?)`,
		runID, res.Index, res.Interval.Start, res.Interval.End, res.StationaryCount,
	); err != nil {
		return fmt.Errorf("failed to save interval result: %w", err)
	}

	for i := range res.Decisions {
		d := &res.Decisions[i]
		if _, err := tx.Exec(`
			INSERT INTO decisions (decision_id, run_id, interval_index, slot, anchor_x,
				occupancy_fraction, tier, verdict, provenance, warnings, decided_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, runID, res.Index, d.Slot, d.AnchorX,
			d.OccupancyFraction, string(d.Tier), string(d.Verdict), string(d.Provenance),
			joinWarnings(d.Warnings), d.DecidedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("failed to save decision for slot %d: %w", d.Slot, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit interval result: %w", err)
	}
	return nil
}

// IntervalResults loads all saved interval results for a run, ordered by
// interval index.
func (s *Storage) IntervalResults(runID string) ([]models.IntervalResult, error) {
	rows, err := s.db.Query(`
		SELECT interval_index, start_frame, end_frame, stationary_count
		FROM interval_results WHERE run_id = ? ORDER BY interval_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query interval results: %w", err)
	}
	defer rows.Close()

	var results []models.IntervalResult
	for rows.Next() {
		var res models.IntervalResult
		if err := rows.Scan(&res.Index, &res.Interval.Start, &res.Interval.End, &res.StationaryCount); err != nil {
			return nil, fmt.Errorf("failed to scan interval result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read interval results: %w", err)
	}

	for i := range results {
		decisions, err := s.decisionsFor(runID, results[i].Index)
		if err != nil {
			return nil, err
		}
		results[i].Decisions = decisions
	}
	return results, nil
}

// decisionsFor loads the decisions of one saved interval, ordered by slot.
func (s *Storage) decisionsFor(runID string, intervalIndex int) ([]models.Decision, error) {
	rows, err := s.db.Query(`
		SELECT decision_id, interval_index, slot, anchor_x, occupancy_fraction,
			tier, verdict, provenance, warnings, decided_at
		FROM decisions WHERE run_id = ? AND interval_index = ? ORDER BY slot`, runID, intervalIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []models.Decision
	for rows.Next() {
		var d models.Decision
		var tier, verdict, provenance, warnings, decidedAt string
		if err := rows.Scan(&d.ID, &d.IntervalIndex, &d.Slot, &d.AnchorX, &d.OccupancyFraction,
			&tier, &verdict, &provenance, &warnings, &decidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d.Tier = models.Tier(tier)
		d.Verdict = models.Verdict(verdict)
		d.Provenance = models.Provenance(provenance)
		d.Warnings = splitWarnings(warnings)
		if t, err := time.Parse(time.RFC3339Nano, decidedAt); err == nil {
			d.DecidedAt = t
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read decisions: %w", err)
	}
	return decisions, nil
}

func joinWarnings(warnings []models.Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = string(w)
	}
	return strings.Join(parts, ",")
}

func splitWarnings(joined string) []models.Warning {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	warnings := make([]models.Warning, len(parts))
	for i, p := range parts {
		warnings[i] = models.Warning(p)
	}
	return warnings
}
