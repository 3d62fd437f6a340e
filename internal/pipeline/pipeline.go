// Package pipeline orchestrates the analysis run: acquire the dataset, clean
// and derive it, render charts, and write the insight report. It owns the
// shared interfaces the leaf packages implement, the error taxonomy, and
// logger construction.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"

	"github.com/EngBaraka/covid19-insights/internal/dataset"
	"github.com/EngBaraka/covid19-insights/internal/owid"
)

// HTTPClient is the interface remote sources use to issue requests, so tests
// can substitute mocks.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DataLoader produces the raw dataset, trying its sources in order.
type DataLoader interface {
	Load(ctx context.Context) (owid.Table, error)
}

// ChartRenderer writes the static charts for a cleaned table.
type ChartRenderer interface {
	RenderCharts(t owid.Table) error
}

// MapRenderer writes the interactive map for a latest snapshot. Failures are
// soft: Run logs them and continues.
type MapRenderer interface {
	RenderMap(snapshot owid.Table) error
}

// ReportWriter renders the insight report for a latest snapshot and returns
// the written path.
type ReportWriter interface {
	WriteReport(snapshot owid.Table) (string, error)
}

type Config struct {
	Logger *slog.Logger
	Loader DataLoader
	Charts ChartRenderer
	Map    MapRenderer
	Report ReportWriter
	Clock  clockwork.Clock

	// Locations defaults to dataset.DefaultLocations, Metrics to
	// owid.TrackedMetrics.
	Locations []string
	Metrics   []owid.Metric

	// DryRun stops after the snapshot stage: no chart, map, or report files
	// are written.
	DryRun bool
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Loader == nil {
		return errors.New("loader is required")
	}
	if c.Charts == nil {
		return errors.New("chart renderer is required")
	}
	if c.Map == nil {
		return errors.New("map renderer is required")
	}
	if c.Report == nil {
		return errors.New("report writer is required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if len(c.Locations) == 0 {
		c.Locations = dataset.DefaultLocations
	}
	if len(c.Metrics) == 0 {
		c.Metrics = owid.TrackedMetrics
	}
	return nil
}

type Pipeline struct {
	cfg   Config
	log   *slog.Logger
	clock clockwork.Clock
}

func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:   cfg,
		log:   cfg.Logger,
		clock: cfg.Clock,
	}, nil
}
