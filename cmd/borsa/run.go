package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MMucahit/borsa/internal/dataprocessing"
	"github.com/MMucahit/borsa/internal/exporter"
	"github.com/MMucahit/borsa/internal/files"
	"github.com/MMucahit/borsa/internal/operations"
	"github.com/MMucahit/borsa/internal/validation"
	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

type runCmd struct {
	takas         string
	akd           string
	hacim         string
	mode          string
	alignment     string
	year          int
	month         int
	requireVolume bool
	threshold     string
	outDir        string
	format        string
	extract       bool

	out io.Writer
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "reconcile Takas snapshots against AKD net transfers" }
func (*runCmd) Usage() string {
	return `borsa run --takas <path> --akd <path> [--hacim <path>] [--mode archive|flat]
          [--alignment positional|period-key] [--year YYYY] [--threshold X]
          [--out DIR] [--format xlsx|csv] [--extract]

  Each path may be a folder, a .zip archive or a single .xlsx/.csv file.
  Prints the institution summary and, with --out, writes the detail,
  summary and volume tables.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.takas, "takas", "", "Takas snapshots (folder, zip or file)")
	f.StringVar(&c.akd, "akd", "", "AKD net transfer reports (folder, zip or file)")
	f.StringVar(&c.hacim, "hacim", "", "optional trading volume reports (folder, zip or file)")
	f.StringVar(&c.mode, "mode", "", "source mode: archive (dates from folders) or flat (month from file name)")
	f.StringVar(&c.alignment, "alignment", "", "period alignment: positional or period-key")
	f.IntVar(&c.year, "year", 0, "year for flat mode and undated folders")
	f.IntVar(&c.month, "month", 0, "month for undated folders")
	f.BoolVar(&c.requireVolume, "require-volume", false, "fail when no volume report can be located")
	f.StringVar(&c.threshold, "threshold", "0", "only print institutions whose |control| exceeds this value")
	f.StringVar(&c.outDir, "out", "", "directory for the exported tables; nothing is written when empty")
	f.StringVar(&c.format, "format", string(exporter.FormatXLSX), "export format: xlsx or csv")
	f.BoolVar(&c.extract, "extract", false, "extract zip inputs into a per-run workspace before reading")
}

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.takas == "" || c.akd == "" {
		fmt.Fprintln(os.Stderr, "both --takas and --akd are required")
		return subcommands.ExitUsageError
	}
	threshold, err := decimal.NewFromString(c.threshold)
	if err != nil || threshold.IsNegative() {
		fmt.Fprintf(os.Stderr, "invalid --threshold %q: must be a non-negative number\n", c.threshold)
		return subcommands.ExitUsageError
	}
	format, err := exporter.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	cfg, logger, err := environment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	validator := validation.NewFileValidator(logger)
	for _, input := range []string{c.takas, c.akd, c.hacim} {
		if input == "" {
			continue
		}
		if err := validator.ValidateInput(input); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	if c.outDir != "" {
		if err := validator.ValidateOutputDirectory(c.outDir); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}

	result, err := c.reconcile(ctx, cfg.Server.WorkspaceDir, c.options(cfg.Reconcile.RunOptions()), logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	filtered, err := dataprocessing.FilterByControl(result.Summaries, threshold)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := printRun(c.out, result, filtered); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.outDir == "" {
		return subcommands.ExitSuccess
	}
	paths, err := exporter.New(c.outDir, logger).ExportRun(result, format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	for _, p := range paths {
		fmt.Fprintf(c.out, "wrote %s\n", p)
	}
	return subcommands.ExitSuccess
}

// options overrides the configured defaults with every flag that was set
func (c *runCmd) options(opts domain.RunOptions) domain.RunOptions {
	if c.mode != "" {
		opts.SourceMode = domain.SourceMode(c.mode)
	}
	if c.alignment != "" {
		opts.Alignment = domain.AlignmentStrategy(c.alignment)
	}
	if c.year != 0 {
		opts.DefaultYear = c.year
	}
	if c.month != 0 {
		opts.DefaultMonth = c.month
	}
	if c.requireVolume {
		opts.RequireVolume = true
	}
	return opts
}

func (c *runCmd) reconcile(ctx context.Context, workspaceDir string, opts domain.RunOptions, logger *slog.Logger) (*domain.Result, error) {
	runID := uuid.NewString()
	discovery := files.NewDiscovery("", logger)

	var ws *files.Workspace
	if c.extract {
		var err error
		if ws, err = files.NewWorkspace(workspaceDir, runID, logger); err != nil {
			return nil, err
		}
		defer func() {
			if err := ws.Close(); err != nil {
				logger.Warn("Workspace cleanup failed", slog.String("error", err.Error()))
			}
		}()
	}

	var duplicates []domain.SkippedItem
	collect := func(kind domain.SourceKind, input string) ([]domain.RawItem, error) {
		if input == "" {
			return nil, nil
		}
		items, err := discovery.Collect(input)
		if err != nil {
			return nil, err
		}
		if ws == nil || !strings.EqualFold(filepath.Ext(input), ".zip") {
			return items, nil
		}
		dir, skipped, err := ws.Extract(kind, items)
		if err != nil {
			return nil, err
		}
		duplicates = append(duplicates, skipped...)
		return discovery.CollectFolder(dir)
	}

	req := operations.Request{RunID: runID, Options: opts}
	var err error
	if req.Takas, err = collect(domain.SourceKindTakas, c.takas); err != nil {
		return nil, err
	}
	if req.AKD, err = collect(domain.SourceKindAKD, c.akd); err != nil {
		return nil, err
	}
	if req.Hacim, err = collect(domain.SourceKindHacim, c.hacim); err != nil {
		return nil, err
	}

	engine, err := operations.NewEngine(operations.EngineOptions{Logger: logger})
	if err != nil {
		return nil, err
	}
	result, err := engine.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(duplicates) > 0 {
		result.Skipped = append(duplicates, result.Skipped...)
	}
	return result, nil
}

// printRun writes the run overview and the filtered institution summary
func printRun(w io.Writer, result *domain.Result, summaries []domain.InstitutionSummary) error {
	fmt.Fprintf(w, "Run %s: %d periods, %d rows, %d institutions\n",
		result.RunID, len(result.Periods()), len(result.Rows), len(result.Summaries))

	for _, s := range result.Skipped {
		fmt.Fprintf(w, "skipped %s %s: %s\n", s.Kind, s.Path, s.Reason)
	}
	for _, u := range result.Unmatched {
		fmt.Fprintf(w, "unmatched period %s: %s\n", u.Period, u.Reason)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	table := exporter.SummaryTable(summaries, result.TotalResidual)
	if err := exporter.NewCSVWriter("", nil).WriteTable(tw, table, exporter.WriteOptions{Comma: '\t'}); err != nil {
		return err
	}
	return tw.Flush()
}
