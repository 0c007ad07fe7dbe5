package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"DividendSentinel/internal/report"
)

type candidatesCmd struct {
	refresh bool
	limit   int
	pretty  bool
}

func (*candidatesCmd) Name() string     { return "candidates" }
func (*candidatesCmd) Synopsis() string { return "display the yield-ranked index candidates" }
func (*candidatesCmd) Usage() string {
	return `picker [-config <path>] candidates [-refresh] [-n <rows>] [-pretty]

  Prints the candidate table, from the snapshot when it is fresh.
`
}

func (c *candidatesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.refresh, "refresh", false, "ignore a fresh candidate snapshot and scrape again")
	f.IntVar(&c.limit, "n", 0, "rows to display, 0 for all")
	f.BoolVar(&c.pretty, "pretty", false, "render the markdown for the terminal")
}

func (c *candidatesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	rows, cached, err := a.runner.LoadCandidates(ctx, a.runner.NewRunID(), c.refresh)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading candidates: %v\n", err)
		return subcommands.ExitFailure
	}
	a.log.Info().Bool("from_snapshot", cached).Int("rows", len(rows)).Msg("candidates loaded")

	out := &report.TerminalSink{W: os.Stdout, Pretty: c.pretty, Limit: c.limit}
	if err := out.WriteCandidates(ctx, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
