// Package report renders an HTML review page for a finished run. Each
// interval gets one scatter chart with a series per reference object,
// colored by the verdict so a reviewer can scan the outcome at a glance.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/rewired-gh/mitostat/internal/models"
)

// IntervalReport pairs an interval's decisions with the candidate traces
// they were decided from.
type IntervalReport struct {
	Result     models.IntervalResult
	Candidates []models.Candidate
}

// Render writes the full report page to w.
func Render(w io.Writer, source string, reports []IntervalReport) error {
	page := components.NewPage()
	page.PageTitle = "Stationarity Report"

	for _, r := range reports {
		chart, err := intervalChart(source, r)
		if err != nil {
			return err
		}
		page.AddCharts(chart)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// RenderFile renders the report page to a file on disk.
func RenderFile(path, source string, reports []IntervalReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	return Render(f, source, reports)
}

// intervalChart builds one scatter chart for an interval. Each reference
// object becomes a series over (frame, x), colored green when judged
// stationary and red when judged moving.
func intervalChart(source string, r IntervalReport) (*charts.Scatter, error) {
	verdicts := make(map[int]models.Verdict, len(r.Result.Decisions))
	for _, d := range r.Result.Decisions {
		verdicts[d.Slot] = d.Verdict
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Interval %d: frames %d-%d", r.Result.Index, r.Result.Interval.Start, r.Result.Interval.End),
			Subtitle: fmt.Sprintf("source=%s stationary=%d/%d",
				source, r.Result.StationaryCount, len(r.Result.Decisions)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "frame", NameLocation: "middle", NameGap: 25,
			Min: r.Result.Interval.Start, Max: r.Result.Interval.End,
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "x"}),
	)

	for _, c := range r.Candidates {
		verdict, ok := verdicts[c.Slot]
		if !ok {
			return nil, fmt.Errorf("no decision for slot %d in interval %d", c.Slot, r.Result.Index)
		}

		data := make([]opts.ScatterData, 0, len(c.Trace))
		for _, p := range c.Trace {
			data = append(data, opts.ScatterData{Value: []interface{}{p.Frame, p.X}})
		}
		scatter.AddSeries(
			fmt.Sprintf("slot %d (x=%.1f)", c.Slot, c.AnchorX),
			data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: verdict.Color()}),
		)
	}

	return scatter, nil
}
