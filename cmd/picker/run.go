package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"DividendSentinel/internal/runner"
)

type runCmd struct {
	refresh bool
	dryRun  bool
	policy  string
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "pick this week's stock and record the purchase" }
func (*runCmd) Usage() string {
	return `picker [-config <path>] run [-refresh] [-dry-run] [-policy <name>]

  Reads the ledger, values the holdings, ranks the index candidates, selects
  one stock and appends the purchase to the ledger.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.refresh, "refresh", false, "ignore a fresh candidate snapshot and scrape again")
	f.BoolVar(&c.dryRun, "dry-run", false, "select without appending to the ledger or writing the spreadsheet reports")
	f.StringVar(&c.policy, "policy", "", "fallback policy: low-market-cap-sector or concentration-cap")
}

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, c.policy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	if _, err := a.runner.Run(ctx, runner.Options{Refresh: c.refresh, DryRun: c.dryRun}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
