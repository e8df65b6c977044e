package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/MMucahit/borsa/internal/files"
	"github.com/MMucahit/borsa/internal/validation"
	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

type locateCmd struct {
	kind  string
	mode  string
	year  int
	month int

	out io.Writer
}

func (*locateCmd) Name() string     { return "locate" }
func (*locateCmd) Synopsis() string { return "list the dated sources found in folders, archives or files" }
func (*locateCmd) Usage() string {
	return `borsa locate --kind takas|akd|hacim [--mode archive|flat] [--year YYYY] <path>...

  Prints every source in chronological order with its period label, then
  every skipped item with the reason it could not be dated.
`
}

func (c *locateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "", "source kind: takas, akd or hacim")
	f.StringVar(&c.mode, "mode", "", "source mode: archive or flat")
	f.IntVar(&c.year, "year", 0, "year for flat mode and undated folders")
	f.IntVar(&c.month, "month", 0, "month for undated folders")
}

func (c *locateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind := domain.SourceKind(c.kind)
	if !kind.Valid() || f.NArg() == 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	cfg, logger, err := environment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	opts := files.LocatorOptions{
		Mode:         domain.SourceMode(cfg.Reconcile.SourceMode),
		DefaultYear:  cfg.Reconcile.DefaultYear,
		DefaultMonth: cfg.Reconcile.DefaultMonth,
	}
	if c.mode != "" {
		opts.Mode = domain.SourceMode(c.mode)
	}
	if c.year != 0 {
		opts.DefaultYear = c.year
	}
	if c.month != 0 {
		opts.DefaultMonth = c.month
	}

	validator := validation.NewFileValidator(logger)
	discovery := files.NewDiscovery("", logger)
	var items []domain.RawItem
	for _, input := range f.Args() {
		if err := validator.ValidateInput(input); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		collected, err := discovery.Collect(input)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		items = append(items, collected...)
	}

	located := files.NewLocator(opts, logger).Locate(kind, items)
	if err := printLocated(c.out, located); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if located.Empty() {
		fmt.Fprintln(os.Stderr, domain.NewNoMatchingSourcesError(kind))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printLocated(w io.Writer, located *files.Located) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tYEAR\tMONTH\tDAY\tPATH")
	for _, src := range located.Sources {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", src.Label, src.Key.Year, src.Key.Month, src.Key.Day, src.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, s := range located.Skipped {
		fmt.Fprintf(w, "skipped %s: %s\n", s.Path, s.Reason)
	}
	return nil
}
