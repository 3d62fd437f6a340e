package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/EngBaraka/covid19-insights/internal/owid"
	"github.com/EngBaraka/covid19-insights/internal/pipeline"
)

// RetryPolicy controls per-source retries. The zero value disables retries,
// so each source gets exactly one attempt.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Config holds the loader configuration.
type Config struct {
	Logger *slog.Logger

	// Sources are tried in order; the first one whose payload parses wins.
	Sources []Source

	// BackupPath receives the raw payload of the winning source.
	BackupPath string

	Retry RetryPolicy
}

// Validate checks required fields and applies defaults.
func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if len(c.Sources) == 0 {
		return pipeline.ErrNoSources
	}
	if c.BackupPath == "" {
		c.BackupPath = DefaultBackupPath
	}
	if c.Retry.InitialInterval <= 0 {
		c.Retry.InitialInterval = time.Second
	}
	if c.Retry.MaxInterval <= 0 {
		c.Retry.MaxInterval = 30 * time.Second
	}
	return nil
}

// Loader walks an ordered source list until one yields a parseable dataset.
type Loader struct {
	cfg *Config
	log *slog.Logger
}

// New creates a loader from the given configuration.
func New(cfg *Config) (*Loader, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid loader config: %w", err)
	}
	return &Loader{cfg: cfg, log: cfg.Logger}, nil
}

// Load tries each source in order and returns the first table that parses.
// Individual source failures are logged and accumulated; when every source
// fails, the returned error wraps ErrAllSourcesFailed together with the
// per-source causes. On success the raw payload is written to the backup
// path as a side effect; backup failures never fail the load.
func (l *Loader) Load(ctx context.Context) (owid.Table, error) {
	var errs []error
	for _, src := range l.cfg.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		l.log.Info("Operation started: fetch_source", "source", src.Name())
		data, err := l.fetch(ctx, src)
		if err != nil {
			l.log.Warn("Source failed, trying next", "source", src.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}

		table, err := owid.ParseCSV(bytes.NewReader(data))
		if err != nil {
			l.log.Warn("Source payload did not parse, trying next", "source", src.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}

		l.log.Info("Operation completed: fetch_source",
			"source", src.Name(), "rows", len(table), "bytes", len(data))
		l.writeBackup(data, src)
		return table, nil
	}
	return nil, fmt.Errorf("%w: %w", pipeline.ErrAllSourcesFailed, errors.Join(errs...))
}

// fetch runs a single source, retrying per the configured policy.
func (l *Loader) fetch(ctx context.Context, src Source) ([]byte, error) {
	if l.cfg.Retry.MaxRetries == 0 {
		return src.Fetch(ctx)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = l.cfg.Retry.InitialInterval
	bo.MaxInterval = l.cfg.Retry.MaxInterval

	var data []byte
	op := func() error {
		var err error
		data, err = src.Fetch(ctx)
		if err != nil {
			l.log.Debug("Fetch attempt failed, backing off", "source", src.Name(), "error", err)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, l.cfg.Retry.MaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return data, nil
}

// writeBackup persists the raw payload so the next run can fall back to it.
// Skipped when the winning source is the backup file itself.
func (l *Loader) writeBackup(data []byte, src Source) {
	if src.Name() == l.cfg.BackupPath {
		return
	}
	if dir := filepath.Dir(l.cfg.BackupPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			l.log.Warn("Could not create backup directory, skipping backup",
				"path", l.cfg.BackupPath, "error", err)
			return
		}
	}
	if err := os.WriteFile(l.cfg.BackupPath, data, 0644); err != nil {
		l.log.Warn("Could not write local backup, continuing", "path", l.cfg.BackupPath, "error", err)
		return
	}
	l.log.Info("Local backup updated", "path", l.cfg.BackupPath, "bytes", len(data))
}
