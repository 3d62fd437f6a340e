package insights

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EngBaraka/covid19-insights/internal/owid"
	"github.com/EngBaraka/covid19-insights/internal/pipeline"
)

// requireTextEqual fails with a unified diff, which reads far better than a
// raw string mismatch for a multi-line report.
func requireTextEqual(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	edits := myers.ComputeEdits(span.URIFromPath(ReportFilename), want, got)
	diff := fmt.Sprint(gotextdiff.ToUnified("want", "got", want, edits))
	t.Fatalf("report mismatch:\n%s", diff)
}

const goldenReport = `
### COVID-19 Analysis Insights (as of 2023-04-26)

1. **Case Trends**:
   - Highest total cases: United States (103,436,829)
   - Lowest vaccination rate: Kenya (18.5%)

2. **Vaccination Progress**:
   - Most vaccinated: Brazil (81.3%)
   - Average vaccination rate: 55.7%

3. **Mortality**:
   - Highest death rate: Brazil (1.90%)
   - Lowest death rate: United States (1.08%)

4. **Regional Observations**:
   - African nations showed delayed but steep case curves
   - European nations achieved faster vaccination rollout

---
Generated 2023-04-26T10:30:00Z by covid-insights test
`

func TestInsights_WriterConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("missing_logger", func(t *testing.T) {
		t.Parallel()
		cfg := &WriterConfig{}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("defaults_applied", func(t *testing.T) {
		t.Parallel()
		cfg := &WriterConfig{Logger: logger.With("test", t.Name())}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultReportDir, cfg.Dir)
		assert.Equal(t, "dev", cfg.Version)
		assert.NotNil(t, cfg.Clock)
	})

	t.Run("nil_config", func(t *testing.T) {
		t.Parallel()
		_, err := NewWriter(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config is required")
	})
}

func TestInsights_WriteReport(t *testing.T) {
	t.Parallel()

	t.Run("golden_report", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "nested", "output")
		w, err := NewWriter(&WriterConfig{
			Logger:  logger.With("test", t.Name()),
			Dir:     dir,
			Clock:   clockwork.NewFakeClockAt(time.Date(2023, 4, 26, 10, 30, 0, 0, time.UTC)),
			Version: "test",
		})
		require.NoError(t, err)

		snapshot := owid.Table{
			snapshotRec(t, "Brazil", "2023-04-26", 37076053, 81.3, 0.019),
			snapshotRec(t, "Kenya", "2023-04-26", 343073, 18.5, 0.0165),
			snapshotRec(t, "United States", "2023-04-26", 103436829, 67.3, 0.0108),
		}

		path, err := w.WriteReport(snapshot)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, ReportFilename), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		requireTextEqual(t, goldenReport, string(data))
	})

	t.Run("empty_snapshot", func(t *testing.T) {
		t.Parallel()
		w, err := NewWriter(&WriterConfig{
			Logger: logger.With("test", t.Name()),
			Dir:    t.TempDir(),
		})
		require.NoError(t, err)

		_, err = w.WriteReport(owid.Table{})
		require.Error(t, err)
		assert.ErrorIs(t, err, pipeline.ErrEmptySnapshot)
	})

	t.Run("overwrites_previous_report", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		w, err := NewWriter(&WriterConfig{
			Logger: logger.With("test", t.Name()),
			Dir:    dir,
		})
		require.NoError(t, err)

		stale := filepath.Join(dir, ReportFilename)
		require.NoError(t, os.WriteFile(stale, []byte("old report"), 0644))

		snapshot := owid.Table{snapshotRec(t, "Kenya", "2023-04-26", 343073, 18.5, 0.0165)}
		path, err := w.WriteReport(snapshot)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "old report")
		assert.Contains(t, string(data), "Kenya")
	})
}
