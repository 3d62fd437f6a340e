package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EngBaraka/covid19-insights/internal/dataset"
	"github.com/EngBaraka/covid19-insights/internal/owid"
)

// Result summarizes a completed run.
type Result struct {
	// SourceRows is the row count of the raw dataset, Rows the count after
	// filtering to the configured locations.
	SourceRows int
	Rows       int

	Locations []string
	FirstDate time.Time
	LastDate  time.Time

	// Snapshot holds the cleaned, derived latest record per location.
	Snapshot owid.Table

	// ReportPath is empty on dry runs.
	ReportPath string

	Duration time.Duration
}

// Run executes the stages in order: acquire, filter, sort, forward-fill,
// derive, snapshot, charts, map, report. A map failure is logged and skipped;
// every other stage failure aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := p.clock.Now()
	p.log.Info("Operation started: run_pipeline",
		slog.Int("locations", len(p.cfg.Locations)),
		slog.Bool("dry_run", p.cfg.DryRun))

	p.log.Info("Operation started: load_dataset")
	table, err := p.cfg.Loader.Load(ctx)
	if err != nil {
		p.log.Error("Operation failed: load_dataset", slog.String("error", err.Error()))
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	p.log.Info("Operation completed: load_dataset", slog.Int("rows", len(table)))

	filtered := dataset.Filter(table, p.cfg.Locations)
	if len(filtered) == 0 {
		p.log.Error("Operation failed: clean_dataset", slog.String("error", ErrEmptyDataset.Error()))
		return nil, ErrEmptyDataset
	}
	sorted := dataset.SortByLocationDate(filtered)
	cleaned, err := dataset.ForwardFill(sorted, p.cfg.Metrics)
	if err != nil {
		p.log.Error("Operation failed: clean_dataset", slog.String("error", err.Error()))
		return nil, fmt.Errorf("forward fill: %w", err)
	}
	derived := dataset.Derive(cleaned)
	first, last := derived.DateRange()
	p.log.Info("Operation completed: clean_dataset",
		slog.Int("rows", len(derived)),
		slog.String("first_date", first.Format(owid.DateLayout)),
		slog.String("last_date", last.Format(owid.DateLayout)))

	snapshot := dataset.LatestSnapshot(derived)

	result := &Result{
		SourceRows: len(table),
		Rows:       len(derived),
		Locations:  derived.Locations(),
		FirstDate:  first,
		LastDate:   last,
		Snapshot:   snapshot,
	}

	if p.cfg.DryRun {
		p.log.Info("Dry run enabled, skipping chart and report output")
		result.Duration = p.clock.Since(start)
		return result, nil
	}

	if err := p.cfg.Charts.RenderCharts(derived); err != nil {
		return nil, fmt.Errorf("render charts: %w", err)
	}

	if err := p.cfg.Map.RenderMap(snapshot); err != nil {
		p.log.Warn("Could not render interactive map, continuing",
			slog.String("error", err.Error()))
	}

	path, err := p.cfg.Report.WriteReport(snapshot)
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	result.ReportPath = path

	result.Duration = p.clock.Since(start)
	p.log.Info("Operation completed: run_pipeline",
		slog.Duration("duration", result.Duration))
	return result, nil
}
