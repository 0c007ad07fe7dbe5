package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"DividendSentinel/internal/collector"
	"DividendSentinel/internal/config"
	"DividendSentinel/internal/gsheet"
	"DividendSentinel/internal/ledger"
	"DividendSentinel/internal/notifier"
	"DividendSentinel/internal/recorder"
	"DividendSentinel/internal/report"
	"DividendSentinel/internal/runner"
	"DividendSentinel/internal/strategy"
	"DividendSentinel/pkg/logger"
)

// app holds the collaborators shared by the subcommands.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	sheets   *gsheet.Client
	ledger   ledger.Store
	history  recorder.History
	telegram *notifier.TelegramNotifier
	runner   *runner.Runner
}

// loadConfig reads and validates the configuration; policy overrides selection.policy when set.
func loadConfig(policy string) (*config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		return nil, err
	}
	if policy != "" {
		cfg.Selection.Policy = policy
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp builds every collaborator. Failures here abort before any ledger write.
func openApp(ctx context.Context, policy string) (*app, error) {
	cfg, err := loadConfig(policy)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	a := &app{cfg: cfg, log: log}

	if cfg.Ledger.SpreadsheetKey != "" && cfg.Ledger.CredentialsFile != "" {
		a.sheets, err = gsheet.New(ctx, cfg.Ledger.SpreadsheetKey, cfg.Ledger.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("open spreadsheet: %w", err)
		}
	}

	switch cfg.Ledger.Backend {
	case config.BackendSQLite:
		a.ledger, err = ledger.NewSQLiteStore(cfg.Ledger.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
	default:
		if a.sheets == nil {
			return nil, fmt.Errorf("open ledger: spreadsheet is not configured")
		}
		a.ledger = ledger.NewSheetsStore(a.sheets, cfg.Ledger.LedgerSheet)
	}

	if cfg.Database.HistoryPath != "" {
		h, err := recorder.NewSQLiteHistory(cfg.Database.HistoryPath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init run history failed, using noop")
			a.history = recorder.NewNoopHistory()
		} else {
			a.history = h
		}
	} else {
		a.history = recorder.NewNoopHistory()
	}

	sel, err := strategy.NewSelector(cfg.Selection.Policy, cfg.Selection.TopN, strategy.Caps{
		Stock:  cfg.Selection.StockCapPct,
		Sector: cfg.Selection.SectorCapPct,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	rec := recorder.NewPurchaseRecorder(a.ledger, decimal.NewFromFloat(cfg.Purchase.BudgetUnit), log)

	r := runner.New(a.ledger, newCollector(cfg, log), sel, rec, log)
	r.History = a.history
	r.Snapshot = runner.SnapshotOptions{Path: cfg.Snapshot.Path, MaxAge: cfg.Snapshot.MaxAge}
	if a.sheets != nil && cfg.Ledger.Backend == config.BackendSheets {
		r.Reports = &report.SheetsSink{
			Sheets:          a.sheets,
			HoldingsSheet:   cfg.Ledger.HoldingsSheet,
			CandidatesSheet: cfg.Ledger.CandidatesSheet,
		}
	}
	if cfg.Report.Terminal {
		r.Console = &report.TerminalSink{W: os.Stdout, Pretty: cfg.Report.Pretty, Limit: cfg.Report.Limit}
	}

	notifiers := notifier.Multi{notifier.WriterNotifier{W: os.Stdout}}
	if cfg.TelegramEnabled() {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		notifiers = append(notifiers, a.telegram)
	}
	r.Notifier = notifiers
	a.runner = r

	log.Info().
		Str("ledger", cfg.Ledger.Backend).
		Str("policy", cfg.Selection.Policy).
		Str("loader", cfg.Source.Loader).
		Str("quotes", cfg.Source.QuoteProvider).
		Bool("telegram", a.telegram != nil).
		Msg("picker ready")
	return a, nil
}

func (a *app) close() {
	if a.history != nil {
		a.history.Close()
	}
	if a.ledger != nil {
		a.ledger.Close()
	}
}

func newCollector(cfg *config.Config, log zerolog.Logger) *collector.Collector {
	var newLoader collector.LoaderFactory
	switch cfg.Source.Loader {
	case "chrome":
		opts := collector.ChromeOptions{ExecPath: cfg.Source.ChromePath, Proxy: cfg.Proxy, Timeout: cfg.Source.Timeout}
		newLoader = func(ctx context.Context) (collector.PageLoader, error) {
			return collector.NewChromeLoader(ctx, opts)
		}
	default:
		newLoader = func(context.Context) (collector.PageLoader, error) {
			return collector.NewHTTPLoader(cfg.Source.Timeout, cfg.Proxy), nil
		}
	}

	nikkei := collector.NewNikkeiSource(newLoader, log)
	var quotes collector.QuoteFetcher = nikkei
	if cfg.Source.QuoteProvider == "yahoo" {
		quotes = collector.NewYahooQuoteFetcher(log)
	}
	return collector.NewCollector(nikkei, quotes, cfg.Source.Indexes, log)
}
