package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rewired-gh/mitostat/internal/models"
)

// TerminalProvider prompts the operator on a terminal. Answers: y/yes
// accepts, n/no rejects, an empty or unrecognised line is no answer and the
// tier default applies. End of input aborts the run.
type TerminalProvider struct {
	out   io.Writer
	lines chan string
}

// NewTerminalProvider creates a provider reading answers line-by-line from
// in and writing prompts to out.
func NewTerminalProvider(in io.Reader, out io.Writer) *TerminalProvider {
	p := &TerminalProvider{
		out:   out,
		lines: make(chan string),
	}
	go func() {
		defer close(p.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			p.lines <- strings.TrimSpace(scanner.Text())
		}
	}()
	return p
}

// Confirm prints the candidate summary and blocks for one answer line.
func (p *TerminalProvider) Confirm(ctx context.Context, c models.Candidate) (Response, error) {
	fmt.Fprint(p.out, formatPrompt(c))

	select {
	case <-ctx.Done():
		return ResponseNone, ErrAborted
	case line, ok := <-p.lines:
		if !ok {
			return ResponseNone, ErrAborted
		}
		return parseAnswer(line), nil
	}
}

// formatPrompt renders one candidate for the operator.
func formatPrompt(c models.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "interval %d, object at x=%.2f (slot %d): occupancy %.0f%%",
		c.IntervalIndex, c.AnchorX, c.Slot, c.OccupancyFraction*100)
	if c.Tier == models.TierHighConfidence {
		b.WriteString(" [high confidence]")
	} else {
		b.WriteString(" [borderline]")
	}
	if len(c.Warnings) > 0 {
		parts := make([]string, len(c.Warnings))
		for i, w := range c.Warnings {
			parts[i] = string(w)
		}
		fmt.Fprintf(&b, " warnings: %s", strings.Join(parts, ", "))
	}
	defaultHint := "reject"
	if c.Tier == models.TierHighConfidence {
		defaultHint = "accept"
	}
	fmt.Fprintf(&b, "\nkeep stationary? [y/n, enter=%s]: ", defaultHint)
	return b.String()
}

// parseAnswer maps an operator line to a response.
func parseAnswer(line string) Response {
	switch strings.ToLower(line) {
	case "y", "yes":
		return ResponseAccept
	case "n", "no":
		return ResponseReject
	default:
		return ResponseNone
	}
}
