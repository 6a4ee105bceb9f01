package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/pagediff/internal/config"
	"github.com/nao1215/pagediff/internal/database"
	"github.com/nao1215/pagediff/internal/engine"
	applog "github.com/nao1215/pagediff/internal/log"
	"github.com/nao1215/pagediff/internal/model"
	"github.com/nao1215/pagediff/internal/provider"
	"github.com/nao1215/pagediff/internal/report"
	"github.com/spf13/cobra"
)

// errDifferencesFound is returned when differences reach the --fail-on
// severity.
var errDifferencesFound = errors.New("differences found")

// exitCode maps a command error to a process exit code, following diff(1):
// 1 when differences were found, 2 for any other failure.
func exitCode(err error) int {
	if errors.Is(err, errDifferencesFound) {
		return 1
	}
	return 2
}

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	defaults := config.NewConfig()

	cmd := &cobra.Command{
		Use:   "compare <base> <compare>",
		Short: "Compare two revisions of a document",
		Long: `Compare pairs the pages of two document revisions and reports their differences.

Documents are PDF files or JSON document models (one object per page with
text, text runs, images and fonts). Rendered page images enable the visual
signals; without them pages are paired on text alone.

Each report is saved to the history database unless --no-save is given.

Examples:
  # Compare two PDF revisions
  pagediff compare contract-v1.pdf contract-v2.pdf

  # Use rendered pages for visual matching
  pagediff compare --base-images v1/ --compare-images v2/ v1.pdf v2.pdf

  # Pair visually identical pages first
  pagediff compare --strategy two-phase v1.pdf v2.pdf

  # Write a Markdown report
  pagediff compare -m -o report.md v1.json v2.json

  # Fail in CI when a major difference is found
  pagediff compare --fail-on major v1.pdf v2.pdf`,
		Args: cobra.ExactArgs(2),
		RunE: runCompareCmd,
	}

	// Tuning flags; they override the tuning file when given.
	cmd.Flags().StringP("config", "c", "",
		"Tuning file path (default: .pagediff in current or home directory)")
	cmd.Flags().StringP("strategy", "s", defaults.Strategy,
		"Matching strategy: fused or two-phase")
	cmd.Flags().Float64("threshold", defaults.Threshold,
		"Minimum fused similarity for two pages to be paired")
	cmd.Flags().Float64("visual-threshold", defaults.VisualThreshold,
		"Phase-one threshold of the two-phase strategy")
	cmd.Flags().Int("concurrency", defaults.Concurrency,
		"Number of pages processed concurrently")
	cmd.Flags().DurationP("timeout", "t", defaults.Timeout,
		"Time budget of the comparison")

	// Raster flags
	cmd.Flags().String("base-images", "",
		"Directory with rendered pages of the base document")
	cmd.Flags().String("compare-images", "",
		"Directory with rendered pages of the compare document")
	cmd.Flags().String("render-pattern", defaults.RenderPattern,
		"File name pattern of rendered pages without extension (receives the 1-based page number)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("show-empty", false,
		"List pages without differences in the text report")
	cmd.Flags().String("fail-on", "",
		"Exit with status 1 when a difference of this severity or higher is found (cosmetic, minor, major, critical)")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not save the report to the history database")
	cmd.Flags().String("db-dir", defaults.DBDir,
		"Directory of the history database")

	return cmd
}

// compareOptions are the compare flags that are not part of Config.
type compareOptions struct {
	showEmpty bool
	failOn    *model.Severity
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	opts, err := buildCompareOptions(cmd)
	if err != nil {
		return err
	}

	logger := applog.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCompare(ctx, cfg, opts, cmd.OutOrStdout(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the tuning file and the
// command flags, in that order of precedence.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly given tuning file must exist; the default locations
	// are optional.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := file.ApplyTo(cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if flags.Changed("strategy") {
		if cfg.Strategy, err = flags.GetString("strategy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("threshold") {
		if cfg.Threshold, err = flags.GetFloat64("threshold"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("visual-threshold") {
		if cfg.VisualThreshold, err = flags.GetFloat64("visual-threshold"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("render-pattern") {
		if cfg.RenderPattern, err = flags.GetString("render-pattern"); err != nil {
			return nil, err
		}
	}

	if cfg.BaseImageDir, err = flags.GetString("base-images"); err != nil {
		return nil, err
	}
	if cfg.CompareImageDir, err = flags.GetString("compare-images"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	cfg.Verbose = getVerboseFlag(cmd)

	if len(args) == 2 {
		cfg.BasePath = args[0]
		cfg.ComparePath = args[1]
	}
	return cfg, nil
}

// buildCompareOptions reads the report-only flags.
func buildCompareOptions(cmd *cobra.Command) (compareOptions, error) {
	var opts compareOptions

	showEmpty, err := cmd.Flags().GetBool("show-empty")
	if err != nil {
		return opts, err
	}
	opts.showEmpty = showEmpty

	failOn, err := cmd.Flags().GetString("fail-on")
	if err != nil {
		return opts, err
	}
	if failOn != "" {
		sev, err := model.ParseSeverity(failOn)
		if err != nil {
			return opts, fmt.Errorf("invalid --fail-on: %w", err)
		}
		opts.failOn = &sev
	}
	return opts, nil
}

// runCompare loads both documents, runs the engine and outputs the report.
func runCompare(ctx context.Context, cfg *config.Config, opts compareOptions, out io.Writer, logger *slog.Logger) error {
	base, err := loadDocument(ctx, cfg.BasePath, cfg.BaseImageDir, cfg.RenderPattern, logger)
	if err != nil {
		return err
	}
	compare, err := loadDocument(ctx, cfg.ComparePath, cfg.CompareImageDir, cfg.RenderPattern, logger)
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg, engine.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	rep, compareErr := eng.Compare(ctx, base, compare)

	// A partial report is still written and saved; its status says so.
	if err := outputReport(cfg, rep, out, opts); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if cfg.SaveToDB {
		if err := saveReport(ctx, cfg.DBDir, rep, logger); err != nil {
			logger.Error("failed to save report", "comparison", rep.ID, "error", err)
		}
	}
	if compareErr != nil {
		return compareErr
	}

	if opts.failOn != nil {
		if n := countAtLeast(rep, *opts.failOn); n > 0 {
			return fmt.Errorf("%w: %d at or above %s", errDifferencesFound, n, opts.failOn.String())
		}
	}
	return nil
}

// loadDocument reads a document and attaches its rendered pages.
func loadDocument(ctx context.Context, path, imageDir, pattern string, logger *slog.Logger) (*model.Document, error) {
	doc, err := provider.Load(ctx, path, provider.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if imageDir == "" {
		return doc, nil
	}

	renderer := provider.NewImageDirRenderer(pattern, provider.WithLogger(logger))
	n, err := renderer.Render(ctx, doc, imageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load page images for %s: %w", path, err)
	}
	logger.Info("page images attached", "document", doc.Name, "rendered", n, "pages", doc.PageCount())
	return doc, nil
}

// countAtLeast counts the differences with severity sev or higher.
func countAtLeast(rep *model.Report, sev model.Severity) int {
	n := 0
	for _, s := range model.Severities {
		if s >= sev {
			n += rep.Summary.CountSeverity(s)
		}
	}
	return n
}

// outputReport outputs the report in the requested format.
func outputReport(cfg *config.Config, rep *model.Report, stdout io.Writer, opts compareOptions) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports quote document content, so they are only readable by the owner.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output,
			report.WithShowEmpty(opts.showEmpty),
			report.WithVerbose(cfg.Verbose),
		)
	}
	_, err := w.Write(rep)
	return err
}

// saveReport stores the report in the history database.
func saveReport(ctx context.Context, dbDir string, rep *model.Report, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Partial reports are saved even after cancellation.
	if err := db.SaveReport(context.WithoutCancel(ctx), rep); err != nil {
		return err
	}
	logger.Info("report saved to database", "comparison", rep.ID, "db", db.Path())
	return nil
}
