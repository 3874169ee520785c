// Package ingest reads observation traces from CSV. Each record carries a
// frame number and an x coordinate; a header row is skipped when its first
// field is not numeric. Frames may repeat (several objects per frame) and
// may be missing entirely (dropped frames), but frame numbers must not
// decrease: detector output is time-ordered and a backwards jump means a
// corrupt or concatenated file.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rewired-gh/mitostat/internal/models"
)

// ReadObservations parses observations from r and returns them together
// with the total frame count, taken as the highest frame number seen.
func ReadObservations(r io.Reader) ([]models.Observation, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	var (
		observations []models.Observation
		totalFrames  int
		record       int
		lastFrame    int
	)
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: failed to read record %d: %v", models.ErrData, record+1, err)
		}
		record++

		frame, err := strconv.Atoi(fields[0])
		if err != nil {
			if record == 1 {
				// Header row.
				continue
			}
			return nil, 0, fmt.Errorf("%w: record %d: invalid frame %q", models.ErrData, record, fields[0])
		}
		x, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: record %d: invalid coordinate %q", models.ErrData, record, fields[1])
		}

		obs := models.Observation{Frame: frame, X: x}
		if err := obs.Validate(); err != nil {
			return nil, 0, fmt.Errorf("%w: record %d: %v", models.ErrData, record, err)
		}
		if frame < lastFrame {
			return nil, 0, fmt.Errorf("%w: record %d: frame %d after frame %d, frames must not decrease", models.ErrData, record, frame, lastFrame)
		}
		lastFrame = frame
		if frame > totalFrames {
			totalFrames = frame
		}
		observations = append(observations, obs)
	}

	if len(observations) == 0 {
		return nil, 0, fmt.Errorf("%w: no observations found", models.ErrData)
	}
	return observations, totalFrames, nil
}

// LoadFile reads observations from a CSV file on disk.
func LoadFile(path string) ([]models.Observation, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	observations, totalFrames, err := ReadObservations(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return observations, totalFrames, nil
}
