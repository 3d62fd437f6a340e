package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EngBaraka/covid19-insights/internal/dataset"
	"github.com/EngBaraka/covid19-insights/internal/pipeline"
	"github.com/EngBaraka/covid19-insights/internal/source"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestConfig_Default(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Sources, 3)
	assert.Equal(t, source.DefaultOWIDURL, cfg.Sources[0])
	assert.Equal(t, source.DefaultOWIDMirrorURL, cfg.Sources[1])
	assert.Equal(t, source.DefaultBackupPath, cfg.Sources[2])

	assert.Equal(t, dataset.DefaultLocations, cfg.Countries)
	assert.Equal(t, "visualizations", cfg.ChartsDir)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Zero(t, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.Backoff)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxBackoff)
}

func TestConfig_Default_CopiesCountryList(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Countries[0] = "Atlantis"
	assert.NotEqual(t, "Atlantis", dataset.DefaultLocations[0])
}

func TestConfig_RetryPolicy(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Retry = Retry{MaxRetries: 3, Backoff: 2 * time.Second, MaxBackoff: time.Minute}

	policy := cfg.RetryPolicy()
	assert.Equal(t, uint64(3), policy.MaxRetries)
	assert.Equal(t, 2*time.Second, policy.InitialInterval)
	assert.Equal(t, time.Minute, policy.MaxInterval)
}

func TestConfig_Load(t *testing.T) {
	t.Parallel()

	t.Run("partial_override_keeps_defaults", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "countries:\n  - Kenya\ncharts_dir: out/charts\n")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, []string{"Kenya"}, cfg.Countries)
		assert.Equal(t, "out/charts", cfg.ChartsDir)
		assert.Equal(t, Default().Sources, cfg.Sources)
		assert.Equal(t, "output", cfg.OutputDir)
		assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	})

	t.Run("duration_strings", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `
http_timeout: 45s
retry:
  max_retries: 3
  backoff: 2s
  max_backoff: 1m
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 45*time.Second, cfg.HTTPTimeout)
		assert.Equal(t, 3, cfg.Retry.MaxRetries)
		assert.Equal(t, 2*time.Second, cfg.Retry.Backoff)
		assert.Equal(t, time.Minute, cfg.Retry.MaxBackoff)
	})

	t.Run("empty_file_keeps_defaults", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("unknown_key_rejected", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "bogus_key: 1\n")

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bogus_key")
	})

	t.Run("empty_sources_rejected", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "sources: []\n")

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one source is required")
	})

	t.Run("negative_retries_rejected", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "retry:\n  max_retries: -1\n")

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry count cannot be negative")
	})

	t.Run("zero_timeout_rejected", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "http_timeout: 0s\n")

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http timeout must be positive")
	})

	t.Run("missing_file", func(t *testing.T) {
		t.Parallel()
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)

		var perr *pipeline.PipelineError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, pipeline.ErrorTypeFileIO, perr.Type)
	})

	t.Run("malformed_yaml", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "sources: [\n")

		_, err := Load(path)
		require.Error(t, err)

		var perr *pipeline.PipelineError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, pipeline.ErrorTypeParse, perr.Type)
	})
}
