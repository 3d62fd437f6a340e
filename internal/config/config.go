// Package config loads the optional YAML run configuration. Zero-config runs
// use the fixed defaults; a file only overrides the keys it sets.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/EngBaraka/covid19-insights/internal/chart"
	"github.com/EngBaraka/covid19-insights/internal/dataset"
	"github.com/EngBaraka/covid19-insights/internal/insights"
	"github.com/EngBaraka/covid19-insights/internal/pipeline"
	"github.com/EngBaraka/covid19-insights/internal/source"
)

const (
	DefaultRetryBackoff    = time.Second
	DefaultRetryMaxBackoff = 30 * time.Second
)

// Retry mirrors source.RetryPolicy in file form.
type Retry struct {
	MaxRetries int           `yaml:"max_retries"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// Config is the full run configuration.
type Config struct {
	// Sources are http(s) URLs or local paths, tried in order.
	Sources []string `yaml:"sources"`

	// Countries is the location allow-list for cleaning.
	Countries []string `yaml:"countries"`

	BackupPath  string        `yaml:"backup_path"`
	ChartsDir   string        `yaml:"charts_dir"`
	OutputDir   string        `yaml:"output_dir"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Retry       Retry         `yaml:"retry"`
}

// Default returns the standard configuration: OWID primary, the GitHub
// mirror, then the local backup, over the default country list.
func Default() *Config {
	return &Config{
		Sources: []string{
			source.DefaultOWIDURL,
			source.DefaultOWIDMirrorURL,
			source.DefaultBackupPath,
		},
		Countries:   slices.Clone(dataset.DefaultLocations),
		BackupPath:  source.DefaultBackupPath,
		ChartsDir:   chart.DefaultDir,
		OutputDir:   insights.DefaultReportDir,
		HTTPTimeout: source.DefaultHTTPTimeout,
		Retry: Retry{
			MaxRetries: 0,
			Backoff:    DefaultRetryBackoff,
			MaxBackoff: DefaultRetryMaxBackoff,
		},
	}
}

// Validate checks the configuration and fills defaults for blank paths.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("at least one source is required")
	}
	if len(c.Countries) == 0 {
		return errors.New("at least one country is required")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("http timeout must be positive")
	}
	if c.Retry.MaxRetries < 0 {
		return errors.New("retry count cannot be negative")
	}
	if c.BackupPath == "" {
		c.BackupPath = source.DefaultBackupPath
	}
	if c.ChartsDir == "" {
		c.ChartsDir = chart.DefaultDir
	}
	if c.OutputDir == "" {
		c.OutputDir = insights.DefaultReportDir
	}
	if c.Retry.Backoff <= 0 {
		c.Retry.Backoff = DefaultRetryBackoff
	}
	if c.Retry.MaxBackoff <= 0 {
		c.Retry.MaxBackoff = DefaultRetryMaxBackoff
	}
	return nil
}

// RetryPolicy converts the file form into the loader's policy.
func (c *Config) RetryPolicy() source.RetryPolicy {
	return source.RetryPolicy{
		MaxRetries:      uint64(c.Retry.MaxRetries),
		InitialInterval: c.Retry.Backoff,
		MaxInterval:     c.Retry.MaxBackoff,
	}
}

// Load reads and validates a YAML config file. Keys the file omits keep
// their defaults; unknown keys are rejected. An empty file is valid.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pipeline.NewFileIOError("load_config", "failed to open config file", err).
			WithContext("path", path)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, pipeline.NewParseError("load_config", "failed to parse config file", err).
			WithContext("path", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
