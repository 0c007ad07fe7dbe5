// Package report writes the holdings and candidate tables to their destinations.
package report

import (
	"context"
	"errors"
	"strconv"

	"DividendSentinel/internal/calculator"
	"DividendSentinel/internal/model"
)

// Sink receives the two tables produced by a run. Each write replaces the
// previous content of its destination.
type Sink interface {
	WriteHoldings(ctx context.Context, h calculator.Holdings) error
	WriteCandidates(ctx context.Context, rows []model.CandidateRow) error
}

// Table headers.
var (
	HoldingsHeader   = []string{"証券コード", "セクター", "会社名", "株価", "合計株数", "時価総額"}
	CandidatesHeader = []string{"証券コード", "セクター", "配当利回り(%)", "会社名", "株価", "URL", "指数"}
)

// HoldingsTable renders positions in ranked order. Nulls render as empty cells.
func HoldingsTable(h calculator.Holdings) [][]string {
	out := make([][]string, 0, len(h.Positions))
	for _, p := range h.Positions {
		out = append(out, []string{
			p.Code,
			p.Sector,
			p.CompanyName,
			formatNullable(p.Price),
			strconv.FormatFloat(p.TotalShares, 'f', -1, 64),
			strconv.FormatInt(p.MarketValue, 10),
		})
	}
	return out
}

// CandidatesTable renders candidate rows in their given order.
func CandidatesTable(rows []model.CandidateRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Code,
			r.Sector,
			formatNullable(r.DividendYield),
			r.CompanyName,
			formatNullable(r.Price),
			r.SourceURL,
			r.SourceIndex,
		})
	}
	return out
}

func formatNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Multi writes to every sink and joins their errors.
type Multi []Sink

func (m Multi) WriteHoldings(ctx context.Context, h calculator.Holdings) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteHoldings(ctx, h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) WriteCandidates(ctx context.Context, rows []model.CandidateRow) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteCandidates(ctx, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
