package chart

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/EngBaraka/covid19-insights/internal/owid"
	"github.com/EngBaraka/covid19-insights/internal/pipeline"
)

//go:embed templates/*
var templatesFS embed.FS

// MapFilename is the choropleth output file under the configured directory.
const MapFilename = "vaccination_map.html"

// jsonFloat marshals NaN as null, which plotly treats as a missing value.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// mapEntry is one country on the choropleth, keyed by ISO 3166-1 alpha-3
// code. The hover card shows the remaining fields.
type mapEntry struct {
	ISOCode                   string    `json:"iso_code"`
	Location                  string    `json:"location"`
	FullVaccinationPercentage jsonFloat `json:"full_vaccination_percentage"`
	TotalCases                jsonFloat `json:"total_cases"`
	TotalDeaths               jsonFloat `json:"total_deaths"`
	Population                jsonFloat `json:"population"`
}

// MapConfig holds the choropleth renderer configuration.
type MapConfig struct {
	Logger *slog.Logger

	// Dir receives MapFilename. Defaults to DefaultDir.
	Dir string
}

// Validate checks required fields and applies defaults.
func (c *MapConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Dir == "" {
		c.Dir = DefaultDir
	}
	return nil
}

// Choropleth renders the interactive vaccination map as a standalone HTML
// page backed by plotly.js.
type Choropleth struct {
	cfg  *MapConfig
	log  *slog.Logger
	tmpl *template.Template
}

// NewChoropleth creates a map renderer from the given configuration.
func NewChoropleth(cfg *MapConfig) (*Choropleth, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid map config: %w", err)
	}
	tmpl, err := template.New("choropleth.html.tmpl").ParseFS(templatesFS, "templates/choropleth.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse choropleth template: %w", err)
	}
	return &Choropleth{cfg: cfg, log: cfg.Logger, tmpl: tmpl}, nil
}

// RenderMap writes the choropleth page for a latest snapshot. Records
// without an ISO code cannot be placed on the map and are dropped.
func (c *Choropleth) RenderMap(snapshot owid.Table) error {
	entries := make([]mapEntry, 0, len(snapshot))
	for _, rec := range snapshot {
		if rec.ISOCode == "" {
			c.log.Debug("Skipping record without ISO code", "location", rec.Location)
			continue
		}
		entries = append(entries, mapEntry{
			ISOCode:                   rec.ISOCode,
			Location:                  rec.Location,
			FullVaccinationPercentage: jsonFloat(rec.FullVaccinationPercentage),
			TotalCases:                jsonFloat(rec.TotalCases),
			TotalDeaths:               jsonFloat(rec.TotalDeaths),
			Population:                jsonFloat(rec.Population),
		})
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return pipeline.NewRenderError("render_map", "failed to encode map data", err)
	}

	var buf bytes.Buffer
	data := struct {
		Title   string
		Entries template.JS
	}{
		Title:   "Global Vaccination Progress",
		Entries: template.JS(payload),
	}
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return pipeline.NewRenderError("render_map", "failed to render map template", err)
	}

	if err := os.MkdirAll(c.cfg.Dir, 0755); err != nil {
		return pipeline.NewFileIOError("render_map", "failed to create map directory", err).
			WithContext("dir", c.cfg.Dir)
	}
	path := filepath.Join(c.cfg.Dir, MapFilename)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return pipeline.NewFileIOError("render_map", "failed to write map", err).
			WithContext("path", path)
	}

	c.log.Info("Operation completed: render_map", "path", path, "countries", len(entries))
	return nil
}
