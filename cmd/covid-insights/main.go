package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/EngBaraka/covid19-insights/internal/chart"
	"github.com/EngBaraka/covid19-insights/internal/config"
	"github.com/EngBaraka/covid19-insights/internal/insights"
	"github.com/EngBaraka/covid19-insights/internal/pipeline"
	"github.com/EngBaraka/covid19-insights/internal/source"
)

const (
	defaultLogLevel = "info"

	envConfig     = "COVID_INSIGHTS_CONFIG"
	envLogLevel   = "COVID_INSIGHTS_LOG_LEVEL"
	envBackupPath = "COVID_INSIGHTS_BACKUP_PATH"
	envChartsDir  = "COVID_INSIGHTS_CHARTS_DIR"
	envOutputDir  = "COVID_INSIGHTS_OUTPUT_DIR"
)

var (
	configPath string
	logLevel   string
	dryRun     bool
	backupPath string
	chartsDir  string
	outputDir  string

	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "covid-insights",
	Short: "COVID-19 dataset analysis pipeline",
	Long: `covid-insights downloads the Our World in Data COVID-19 dataset,
cleans and derives per-country metrics, renders charts and an interactive
vaccination map, and writes a markdown insight report.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("covid-insights %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, clean, chart, and summarize the latest dataset",
	Long: `Run the full pipeline: try each configured source until one parses,
clean and derive the per-country series, render the three charts and the
vaccination choropleth, and write the insight report.`,
	Run: func(cmd *cobra.Command, args []string) {
		applyEnvFallbacks(cmd)
		log := pipeline.NewLogger(pipeline.LogLevel(logLevel))

		cfg, err := loadConfig(log)
		if err != nil {
			log.Error("Operation failed: load_config", "error", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("backup-path") {
			cfg.BackupPath = backupPath
		}
		if cmd.Flags().Changed("charts-dir") {
			cfg.ChartsDir = chartsDir
		}
		if cmd.Flags().Changed("output-dir") {
			cfg.OutputDir = outputDir
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		p, err := buildPipeline(log, cfg)
		if err != nil {
			log.Error("Operation failed: build_pipeline", "error", err)
			os.Exit(1)
		}

		res, err := p.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Operation cancelled by signal")
				return
			}
			log.Error("Operation failed: run_pipeline", "error", err)
			os.Exit(1)
		}

		printSnapshot(res)
		printMetricStats(res.Snapshot)
		if res.ReportPath != "" {
			fmt.Printf("\nInsight report written to %s\n", res.ReportPath)
		}
	},
}

// applyEnvFallbacks fills flags the user did not set from a .env file or the
// environment. Flags always win over environment values.
func applyEnvFallbacks(cmd *cobra.Command) {
	// Load .env file if it exists
	_ = godotenv.Load()

	bindEnv(cmd.Root().PersistentFlags(), map[string]string{
		"config":    envConfig,
		"log-level": envLogLevel,
	})
	bindEnv(cmd.Flags(), map[string]string{
		"backup-path": envBackupPath,
		"charts-dir":  envChartsDir,
		"output-dir":  envOutputDir,
	})
}

// bindEnv sets each mapped flag from its environment variable unless the flag
// was given on the command line. An applied value marks the flag as changed,
// so it overrides the config file the same way a command-line flag does.
func bindEnv(fs *pflag.FlagSet, env map[string]string) {
	fs.VisitAll(func(f *pflag.Flag) {
		name, ok := env[f.Name]
		if !ok || f.Changed {
			return
		}
		if v := os.Getenv(name); v != "" {
			_ = fs.Set(f.Name, v)
		}
	})
}

func loadConfig(log *slog.Logger) (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	log.Info("Loading configuration", "path", configPath)
	return config.Load(configPath)
}

// buildSources maps configured source strings onto fetchers: anything with
// an http(s) scheme is remote, everything else is a local path.
func buildSources(entries []string, client pipeline.HTTPClient) []source.Source {
	sources := make([]source.Source, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry, "http://") || strings.HasPrefix(entry, "https://") {
			sources = append(sources, source.NewHTTPSource(entry, client))
		} else {
			sources = append(sources, source.NewFileSource(entry))
		}
	}
	return sources
}

func buildPipeline(log *slog.Logger, cfg *config.Config) (*pipeline.Pipeline, error) {
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	loader, err := source.New(&source.Config{
		Logger:     log,
		Sources:    buildSources(cfg.Sources, client),
		BackupPath: cfg.BackupPath,
		Retry:      cfg.RetryPolicy(),
	})
	if err != nil {
		return nil, fmt.Errorf("build loader: %w", err)
	}

	charts, err := chart.New(&chart.Config{Logger: log, Dir: cfg.ChartsDir})
	if err != nil {
		return nil, fmt.Errorf("build chart renderer: %w", err)
	}

	choropleth, err := chart.NewChoropleth(&chart.MapConfig{Logger: log, Dir: cfg.ChartsDir})
	if err != nil {
		return nil, fmt.Errorf("build map renderer: %w", err)
	}

	report, err := insights.NewWriter(&insights.WriterConfig{
		Logger:  log,
		Dir:     cfg.OutputDir,
		Version: version,
	})
	if err != nil {
		return nil, fmt.Errorf("build report writer: %w", err)
	}

	return pipeline.New(pipeline.Config{
		Logger:    log,
		Loader:    loader,
		Charts:    charts,
		Map:       choropleth,
		Report:    report,
		Locations: cfg.Countries,
		DryRun:    dryRun,
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an optional YAML config file (env: COVID_INSIGHTS_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "Log level (debug, info, warn, error) (env: COVID_INSIGHTS_LOG_LEVEL)")

	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Clean and summarize without writing charts or the report")
	runCmd.Flags().StringVar(&backupPath, "backup-path", source.DefaultBackupPath, "Path for the raw dataset backup (env: COVID_INSIGHTS_BACKUP_PATH)")
	runCmd.Flags().StringVar(&chartsDir, "charts-dir", chart.DefaultDir, "Directory for rendered charts and the map (env: COVID_INSIGHTS_CHARTS_DIR)")
	runCmd.Flags().StringVar(&outputDir, "output-dir", insights.DefaultReportDir, "Directory for the insight report (env: COVID_INSIGHTS_OUTPUT_DIR)")

	cobra.EnableCommandSorting = false

	rootCmd.AddCommand(runCmd)
}

func main() {
	// Add version command last so it appears after auto-generated commands
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
