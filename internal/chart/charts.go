// Package chart renders the static PNG charts and the interactive choropleth
// map from cleaned dataset tables.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/EngBaraka/covid19-insights/internal/dataset"
	"github.com/EngBaraka/covid19-insights/internal/owid"
	"github.com/EngBaraka/covid19-insights/internal/pipeline"
)

const (
	// DefaultDir receives every rendered artifact.
	DefaultDir = "visualizations"

	TotalCasesFilename          = "total_cases.png"
	NewCasesFilename            = "new_cases.png"
	VaccinationProgressFilename = "vaccination_progress.png"

	// rollingWindow is the smoothing window for the daily new cases chart.
	rollingWindow = 7

	chartWidth  = 14 * vg.Inch
	chartHeight = 7 * vg.Inch
)

// palette cycles through per-location line colors.
var palette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
}

// Config holds the chart renderer configuration.
type Config struct {
	Logger *slog.Logger

	// Dir receives the PNG files. Defaults to DefaultDir.
	Dir string
}

// Validate checks required fields and applies defaults.
func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Dir == "" {
		c.Dir = DefaultDir
	}
	return nil
}

// Renderer draws the three static time-series charts.
type Renderer struct {
	cfg *Config
	log *slog.Logger
}

// New creates a chart renderer from the given configuration.
func New(cfg *Config) (*Renderer, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chart config: %w", err)
	}
	return &Renderer{cfg: cfg, log: cfg.Logger}, nil
}

// RenderCharts draws all three charts into the configured directory. The
// first failure aborts the remaining charts.
func (r *Renderer) RenderCharts(t owid.Table) error {
	if err := os.MkdirAll(r.cfg.Dir, 0755); err != nil {
		return pipeline.NewFileIOError("render_charts", "failed to create chart directory", err).
			WithContext("dir", r.cfg.Dir)
	}

	r.log.Info("Operation started: render_charts", "dir", r.cfg.Dir, "locations", len(t.Locations()))

	charts := []struct {
		filename string
		render   func(owid.Table, string) error
	}{
		{TotalCasesFilename, r.renderTotalCases},
		{NewCasesFilename, r.renderNewCases},
		{VaccinationProgressFilename, r.renderVaccinationProgress},
	}
	for _, c := range charts {
		path := filepath.Join(r.cfg.Dir, c.filename)
		if err := c.render(t, path); err != nil {
			r.log.Error("Operation failed: render_charts", "chart", c.filename, "error", err)
			return fmt.Errorf("render %s: %w", c.filename, err)
		}
		r.log.Info("Chart rendered", "path", path)
	}

	r.log.Info("Operation completed: render_charts", "dir", r.cfg.Dir)
	return nil
}

// renderTotalCases draws cumulative cases per location on a log-scale Y
// axis. Non-positive values cannot appear on a log scale and are skipped.
func (r *Renderer) renderTotalCases(t owid.Table, path string) error {
	p := newTimePlot("Total COVID-19 Cases Over Time", "Total Cases (log scale)")
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	lines := 0
	for i, loc := range t.Locations() {
		pts := linePoints(t.ForLocation(loc), func(rec owid.Record) float64 {
			if rec.TotalCases <= 0 {
				return math.NaN()
			}
			return rec.TotalCases
		})
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return pipeline.NewRenderError("render_total_cases", "failed to build line", err).
				WithContext("location", loc)
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(2.5)
		p.Add(line)
		p.Legend.Add(loc, line)
		lines++
	}
	if lines == 0 {
		// A log axis cannot draw an empty range.
		p.Y.Scale = plot.LinearScale{}
		p.Y.Tick.Marker = plot.DefaultTicks{}
	}

	return savePlot(p, "render_total_cases", path)
}

// renderNewCases draws the 7-day rolling average of daily new cases. The
// first window-1 days have no average and are skipped.
func (r *Renderer) renderNewCases(t owid.Table, path string) error {
	p := newTimePlot("Daily New Cases (7-Day Moving Average)", "New Cases")
	p.Add(plotter.NewGrid())

	for i, loc := range t.Locations() {
		series := t.ForLocation(loc)
		vals := make([]float64, len(series))
		for j, rec := range series {
			vals[j] = rec.NewCases
		}
		smoothed := dataset.RollingMean(vals, rollingWindow)

		pts := make(plotter.XYs, 0, len(series))
		for j, rec := range series {
			if math.IsNaN(smoothed[j]) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(rec.Date.Unix()), Y: smoothed[j]})
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return pipeline.NewRenderError("render_new_cases", "failed to build line", err).
				WithContext("location", loc)
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(loc, line)
	}

	return savePlot(p, "render_new_cases", path)
}

// renderVaccinationProgress draws the fully vaccinated share of the
// population per location.
func (r *Renderer) renderVaccinationProgress(t owid.Table, path string) error {
	p := newTimePlot("Full Vaccination Progress", "% Population Fully Vaccinated")

	for i, loc := range t.Locations() {
		pts := linePoints(t.ForLocation(loc), func(rec owid.Record) float64 {
			return rec.FullVaccinationPercentage
		})
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return pipeline.NewRenderError("render_vaccination_progress", "failed to build line", err).
				WithContext("location", loc)
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(2.5)
		p.Add(line)
		p.Legend.Add(loc, line)
	}

	return savePlot(p, "render_vaccination_progress", path)
}

// newTimePlot builds a plot with the shared date axis and legend styling.
func newTimePlot(title, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Legend.Top = true
	p.Legend.Left = true
	return p
}

// linePoints extracts one location's series as plot points, dropping NaN
// values so gaps never draw as zero.
func linePoints(series []owid.Record, value func(owid.Record) float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(series))
	for _, rec := range series {
		v := value(rec)
		if math.IsNaN(v) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(rec.Date.Unix()), Y: v})
	}
	return pts
}

func savePlot(p *plot.Plot, operation, path string) error {
	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return pipeline.NewRenderError(operation, "failed to save chart", err).
			WithContext("path", path)
	}
	return nil
}
