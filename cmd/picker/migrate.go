package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"DividendSentinel/internal/gsheet"
	"DividendSentinel/internal/ledger"
	"DividendSentinel/internal/model"
	"DividendSentinel/pkg/logger"
)

var errTargetNotEmpty = errors.New("target ledger already holds lots; pass -force to replace them")

type migrateCmd struct {
	to    string
	force bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "copy the spreadsheet ledger into a SQLite ledger" }
func (*migrateCmd) Usage() string {
	return `picker [-config <path>] migrate [-to <sqlite path>] [-force]

  Copies every lot of the ledger worksheet into an empty SQLite ledger.
  With -force an existing SQLite ledger is replaced.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.to, "to", "", "SQLite ledger path (default ledger.sqlite_path)")
	f.BoolVar(&c.force, "force", false, "replace lots already in the SQLite ledger")
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if cfg.Ledger.SpreadsheetKey == "" {
		fmt.Fprintln(os.Stderr, "Error: ledger.spreadsheet_key is required to migrate")
		return subcommands.ExitUsageError
	}
	to := c.to
	if to == "" {
		to = cfg.Ledger.SQLitePath
	}
	log := newMigrateLogger(cfg.Log.Level)

	client, err := gsheet.New(ctx, cfg.Ledger.SpreadsheetKey, cfg.Ledger.CredentialsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening spreadsheet: %v\n", err)
		return subcommands.ExitFailure
	}
	lots, err := ledger.NewSheetsStore(client, cfg.Ledger.LedgerSheet).Lots(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	dst, err := ledger.NewSQLiteStore(to, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer dst.Close()
	if err := importLots(ctx, dst, lots, c.force); err != nil {
		fmt.Fprintf(os.Stderr, "Error importing: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("imported %d lots into %s\n", len(lots), to)
	return subcommands.ExitSuccess
}

type lotImporter interface {
	Count(ctx context.Context) (int, error)
	Import(ctx context.Context, lots []model.HoldingLot) error
	Replace(ctx context.Context, lots []model.HoldingLot) error
}

// importLots loads lots into dst. A non-empty dst is only overwritten with force.
func importLots(ctx context.Context, dst lotImporter, lots []model.HoldingLot, force bool) error {
	n, err := dst.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return dst.Import(ctx, lots)
	}
	if !force {
		return fmt.Errorf("%w (%d lots)", errTargetNotEmpty, n)
	}
	return dst.Replace(ctx, lots)
}

// newMigrateLogger raises the default info level to warn so store open and
// close messages stay out of command output. Debug and trace are kept.
func newMigrateLogger(level string) zerolog.Logger {
	if logger.ParseLevel(level) == zerolog.InfoLevel {
		level = "warn"
	}
	return logger.New(logger.Config{Level: level})
}
