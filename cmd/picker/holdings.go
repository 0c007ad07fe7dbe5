package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"DividendSentinel/internal/report"
)

type holdingsCmd struct {
	pretty bool
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display holdings valued at current prices" }
func (*holdingsCmd) Usage() string {
	return `picker [-config <path>] holdings [-pretty]

  Aggregates the ledger per code and prints the holdings with the sector order.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.pretty, "pretty", false, "render the markdown for the terminal")
}

func (c *holdingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	_, h, err := a.runner.LoadHoldings(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading holdings: %v\n", err)
		return subcommands.ExitFailure
	}
	out := &report.TerminalSink{W: os.Stdout, Pretty: c.pretty}
	if err := out.WriteHoldings(ctx, h); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
