// Command borsa runs the Takas/AKD reconciliation on local folders, zip
// archives or single files and writes the result tables to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/MMucahit/borsa/internal/config"
	"github.com/MMucahit/borsa/internal/infrastructure"
	"github.com/MMucahit/borsa/pkg/contracts"
)

var (
	configFile = flag.String("config", "", "path to a YAML configuration file")
	verbose    = flag.Bool("v", false, "log at debug level")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&versionCmd{out: os.Stdout}, "")
	commander.Register(&runCmd{out: os.Stdout}, "reconcile")
	commander.Register(&locateCmd{out: os.Stdout}, "reconcile")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// environment loads the configuration and a logger writing to stderr, so
// stdout only carries command output.
func environment() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, nil, err
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}
	logger, err := infrastructure.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

type versionCmd struct {
	out io.Writer
}

func (*versionCmd) Name() string             { return "version" }
func (*versionCmd) Synopsis() string         { return "print version information" }
func (*versionCmd) Usage() string            { return "borsa version\n" }
func (*versionCmd) SetFlags(f *flag.FlagSet) {}

func (c *versionCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Fprintln(c.out, contracts.GetFullVersionString())
	return subcommands.ExitSuccess
}
