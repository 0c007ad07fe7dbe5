package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	md "github.com/nao1215/markdown"

	"DividendSentinel/internal/recorder"
)

type historyCmd struct {
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display recent runs from the history database" }
func (*historyCmd) Usage() string {
	return `picker [-config <path>] history [-n <runs>]
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 10, "number of runs to display")
}

func (c *historyCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if cfg.Database.HistoryPath == "" {
		fmt.Fprintln(os.Stderr, "Error: database.history_path is not configured")
		return subcommands.ExitUsageError
	}
	h, err := recorder.NewSQLiteHistory(cfg.Database.HistoryPath, newMigrateLogger(cfg.Log.Level))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer h.Close()

	runs, err := h.Runs(c.limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(historyMarkdown(runs))
	return subcommands.ExitSuccess
}

func historyMarkdown(runs []recorder.RunEvent) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Run history")

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.StartedAt.Format("2006-01-02 15:04"),
			r.Outcome,
			r.Policy,
			r.Stage,
			r.Code,
			r.CompanyName,
			fmt.Sprint(r.Quantity),
			r.Error,
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"Started", "Outcome", "Policy", "Stage", "Code", "Company", "Quantity", "Error"},
		Rows:   rows,
	})
	return doc.String()
}
