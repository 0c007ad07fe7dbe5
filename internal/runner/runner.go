// Package runner executes one weekly pick: read the ledger, value the holdings,
// rank the candidates, select a stock and record the purchase.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"DividendSentinel/internal/calculator"
	"DividendSentinel/internal/collector"
	"DividendSentinel/internal/ledger"
	"DividendSentinel/internal/model"
	"DividendSentinel/internal/notifier"
	"DividendSentinel/internal/recorder"
	"DividendSentinel/internal/report"
	"DividendSentinel/internal/snapshot"
	"DividendSentinel/internal/strategy"
)

// SnapshotOptions locates the candidate cache.
type SnapshotOptions struct {
	Path   string
	MaxAge time.Duration
}

// Options controls a single run.
type Options struct {
	Refresh bool // ignore a fresh snapshot and scrape again
	DryRun  bool // skip the ledger append and the persistent reports
}

// Result is what a run produced.
type Result struct {
	RunID      string
	Lots       []model.HoldingLot
	Holdings   calculator.Holdings
	Candidates []model.CandidateRow
	FromCache  bool
	Selection  *model.Selection
	Purchase   *model.Purchase
	Outcome    string
}

// Runner wires the pipeline stages together. Reports, Console, Notifier and
// History are optional.
type Runner struct {
	Ledger    ledger.Store
	Collector *collector.Collector
	Selector  *strategy.Selector
	Recorder  *recorder.PurchaseRecorder
	Reports   report.Sink
	Console   report.Sink
	Notifier  notifier.Notifier
	History   recorder.History
	Snapshot  SnapshotOptions
	Now       func() time.Time
	NewRunID  func() string

	mu  sync.Mutex
	log zerolog.Logger
}

// New creates a Runner with a noop history and wall-clock time.
func New(store ledger.Store, col *collector.Collector, sel *strategy.Selector, rec *recorder.PurchaseRecorder, log zerolog.Logger) *Runner {
	return &Runner{
		Ledger:    store,
		Collector: col,
		Selector:  sel,
		Recorder:  rec,
		History:   recorder.NewNoopHistory(),
		Now:       time.Now,
		NewRunID:  func() string { return uuid.NewString() },
		log:       log.With().Str("component", "runner").Logger(),
	}
}

// LoadHoldings reads the ledger and values every held code at its current quote.
func (r *Runner) LoadHoldings(ctx context.Context) ([]model.HoldingLot, calculator.Holdings, error) {
	lots, err := r.Ledger.Lots(ctx)
	if err != nil {
		return nil, calculator.Holdings{}, fmt.Errorf("read ledger: %w", err)
	}
	quotes, err := r.Collector.HoldingQuotes(ctx, calculator.HeldCodes(lots))
	if err != nil {
		return nil, calculator.Holdings{}, err
	}
	h := calculator.AggregateHoldings(lots, quotes)
	r.log.Info().
		Int("lots", len(lots)).
		Int("positions", len(h.Positions)).
		Int64("market_value", h.TotalMarketValue()).
		Strs("sector_order", h.SectorOrder).
		Msg("holdings aggregated")
	return lots, h, nil
}

// LoadCandidates returns the ranked candidate table, from the snapshot when it
// is fresh, non-empty and refresh is false, otherwise by scraping. A non-empty
// scraped table is written back to the snapshot under runID.
func (r *Runner) LoadCandidates(ctx context.Context, runID string, refresh bool) ([]model.CandidateRow, bool, error) {
	path := r.Snapshot.Path
	if !refresh && path != "" && snapshot.Fresh(path, r.Snapshot.MaxAge, r.Now()) {
		snap, err := snapshot.Read(path)
		switch {
		case err != nil:
			r.log.Warn().Err(err).Str("path", path).Msg("snapshot unreadable, scraping")
		case len(snap.Rows) == 0:
			r.log.Warn().Str("path", path).Str("snapshot_run", snap.RunID).Msg("snapshot empty, scraping")
		default:
			r.log.Info().Str("path", path).Str("snapshot_run", snap.RunID).Int("rows", len(snap.Rows)).Msg("using candidate snapshot")
			return calculator.RankCandidates(snap.Rows), true, nil
		}
	}

	rows, err := r.Collector.Candidates(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		r.log.Warn().Msg("scrape returned no candidates, snapshot left untouched")
		return rows, false, nil
	}
	if path != "" {
		if err := snapshot.Write(path, runID, rows); err != nil {
			r.log.Warn().Err(err).Str("path", path).Msg("snapshot not written")
		}
	}
	return rows, false, nil
}

// Run executes the whole pipeline once. Runs are serialized.
// Selection exhaustion is reported through the notifier, not as an error.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := r.Now()
	res := &Result{RunID: r.NewRunID()}
	log := r.log.With().Str("run_id", res.RunID).Logger()
	log.Info().Bool("dry_run", opts.DryRun).Bool("refresh", opts.Refresh).Str("policy", r.Selector.Policy.Name()).Msg("run started")

	err := r.run(ctx, opts, res, log)
	if err != nil {
		res.Outcome = recorder.OutcomeFailed
		log.Error().Err(err).Msg("run failed")
	}
	r.recordHistory(res, started, err)
	return res, err
}

func (r *Runner) run(ctx context.Context, opts Options, res *Result, log zerolog.Logger) error {
	lots, holdings, err := r.LoadHoldings(ctx)
	if err != nil {
		return err
	}
	res.Lots, res.Holdings = lots, holdings

	rows, fromCache, err := r.LoadCandidates(ctx, res.RunID, opts.Refresh)
	if err != nil {
		return err
	}
	res.Candidates, res.FromCache = rows, fromCache

	if err := r.writeReports(ctx, opts.DryRun, holdings, rows); err != nil {
		return err
	}

	in := &strategy.Input{
		Candidates:  rows,
		Holdings:    holdings,
		HeldSectors: calculator.HeldSectors(lots),
	}
	sel, ok := r.Selector.Select(in)
	if !ok {
		res.Outcome = recorder.OutcomeNoPick
		log.Info().Int("candidates", len(rows)).Msg("no suitable stock found")
		r.notify(ctx, notifier.FormatNoPick(r.Now()))
		return nil
	}
	res.Selection = &sel
	log.Info().
		Str("code", sel.Code).
		Str("company", sel.CompanyName).
		Str("sector", sel.Sector).
		Str("stage", string(sel.Stage)).
		Bool("top_up", sel.FromHolding).
		Msg("stock selected")

	switch {
	case opts.DryRun:
		res.Outcome = recorder.OutcomeDryRun
	default:
		p, err := r.Recorder.Record(ctx, sel)
		switch {
		case errors.Is(err, recorder.ErrNoPrice):
			res.Outcome = recorder.OutcomeNoPrice
			log.Warn().Str("code", sel.Code).Msg("selection has no price, purchase not recorded")
		case err != nil:
			return err
		default:
			res.Outcome = recorder.OutcomePicked
			res.Purchase = &p
		}
	}
	r.notify(ctx, notifier.FormatPick(sel, res.Purchase, opts.DryRun, r.Now()))
	return nil
}

func (r *Runner) writeReports(ctx context.Context, dryRun bool, h calculator.Holdings, rows []model.CandidateRow) error {
	if r.Console != nil {
		if err := r.Console.WriteHoldings(ctx, h); err != nil {
			r.log.Warn().Err(err).Msg("print holdings report")
		}
		if err := r.Console.WriteCandidates(ctx, rows); err != nil {
			r.log.Warn().Err(err).Msg("print candidate report")
		}
	}
	if dryRun || r.Reports == nil {
		return nil
	}
	if err := r.Reports.WriteHoldings(ctx, h); err != nil {
		return err
	}
	return r.Reports.WriteCandidates(ctx, rows)
}

func (r *Runner) notify(ctx context.Context, text string) {
	if r.Notifier == nil {
		return
	}
	if err := r.Notifier.Notify(ctx, text); err != nil {
		r.log.Error().Err(err).Msg("send notification")
	}
}

func (r *Runner) recordHistory(res *Result, started time.Time, runErr error) {
	if r.History == nil {
		return
	}
	evt := &recorder.RunEvent{
		RunID:      res.RunID,
		StartedAt:  started,
		Policy:     r.Selector.Policy.Name(),
		Candidates: len(res.Candidates),
		Holdings:   len(res.Holdings.Positions),
		FromCache:  res.FromCache,
		Outcome:    res.Outcome,
	}
	if s := res.Selection; s != nil {
		evt.Stage = string(s.Stage)
		evt.Code = s.Code
		evt.CompanyName = s.CompanyName
		evt.Sector = s.Sector
		if s.Price != nil {
			evt.Price = *s.Price
		}
	}
	if p := res.Purchase; p != nil {
		evt.Quantity = p.Quantity
	}
	if runErr != nil {
		evt.Error = runErr.Error()
	}
	if err := r.History.RecordRun(evt); err != nil {
		r.log.Error().Err(err).Msg("record run history")
	}
}
