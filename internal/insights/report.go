package insights

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/EngBaraka/covid19-insights/internal/owid"
	"github.com/EngBaraka/covid19-insights/internal/pipeline"
)

//go:embed templates/insights.md.tmpl
var reportTemplate string

const (
	// ReportFilename is the file written under the configured directory.
	ReportFilename = "insights.md"

	DefaultReportDir = "output"
)

var printer = message.NewPrinter(language.English)

// templateData holds all data needed for template rendering.
type templateData struct {
	Date        string
	Summary     *Summary
	GeneratedAt string
	Version     string
}

// newReportTemplate creates the report template with custom formatting
// functions.
func newReportTemplate() (*template.Template, error) {
	funcMap := template.FuncMap{
		"count":   formatCount,
		"percent": formatPercent,
		"rate":    formatRate,
	}
	return template.New("insights").Funcs(funcMap).Parse(reportTemplate)
}

// formatCount renders a case count with comma grouping, e.g. 103,436,829.
func formatCount(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return printer.Sprintf("%.0f", v)
}

// formatPercent renders an already-scaled percentage, e.g. 55.7%.
func formatPercent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v)
}

// formatRate renders a 0..1 ratio as a percentage, e.g. 1.08%.
func formatRate(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

// WriterConfig holds the report writer configuration.
type WriterConfig struct {
	Logger *slog.Logger

	// Dir receives ReportFilename. Defaults to DefaultReportDir.
	Dir string

	// Clock stamps the report footer. Defaults to the real clock.
	Clock clockwork.Clock

	// Version names the binary build in the footer. Defaults to "dev".
	Version string
}

// Validate checks required fields and applies defaults.
func (c *WriterConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Dir == "" {
		c.Dir = DefaultReportDir
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	return nil
}

// Writer renders insight summaries to markdown files.
type Writer struct {
	cfg  *WriterConfig
	log  *slog.Logger
	tmpl *template.Template
}

// NewWriter creates a report writer from the given configuration.
func NewWriter(cfg *WriterConfig) (*Writer, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report writer config: %w", err)
	}
	tmpl, err := newReportTemplate()
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &Writer{cfg: cfg, log: cfg.Logger, tmpl: tmpl}, nil
}

// WriteReport summarizes the snapshot, renders the report, and writes it to
// the configured directory. Returns the written path.
func (w *Writer) WriteReport(snapshot owid.Table) (string, error) {
	summary, err := Summarize(snapshot)
	if err != nil {
		return "", fmt.Errorf("summarize snapshot: %w", err)
	}

	data := templateData{
		Date:        summary.Date.Format(owid.DateLayout),
		Summary:     summary,
		GeneratedAt: w.cfg.Clock.Now().UTC().Format(time.RFC3339),
		Version:     w.cfg.Version,
	}
	var buf bytes.Buffer
	if err := w.tmpl.Execute(&buf, data); err != nil {
		return "", pipeline.NewRenderError("write_report", "failed to render report template", err)
	}

	if err := os.MkdirAll(w.cfg.Dir, 0755); err != nil {
		return "", pipeline.NewFileIOError("write_report", "failed to create report directory", err).
			WithContext("dir", w.cfg.Dir)
	}
	path := filepath.Join(w.cfg.Dir, ReportFilename)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", pipeline.NewFileIOError("write_report", "failed to write report", err).
			WithContext("path", path)
	}

	w.log.Info("Operation completed: write_report",
		"path", path, "locations", summary.Locations, "as_of", data.Date)
	return path, nil
}
