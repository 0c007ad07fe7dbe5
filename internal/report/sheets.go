package report

import (
	"context"
	"fmt"

	"DividendSentinel/internal/calculator"
	"DividendSentinel/internal/model"
)

// Overwriter replaces the whole content of a worksheet.
type Overwriter interface {
	Overwrite(ctx context.Context, sheet string, rows [][]interface{}) error
}

// SheetsSink writes the reports to spreadsheet worksheets.
type SheetsSink struct {
	Sheets          Overwriter
	HoldingsSheet   string
	CandidatesSheet string
}

func (s *SheetsSink) WriteHoldings(ctx context.Context, h calculator.Holdings) error {
	rows := make([][]interface{}, 0, len(h.Positions)+1)
	rows = append(rows, cells(HoldingsHeader))
	for _, p := range h.Positions {
		var price interface{} = ""
		if p.Price != nil {
			price = *p.Price
		}
		rows = append(rows, []interface{}{p.Code, p.Sector, p.CompanyName, price, p.TotalShares, p.MarketValue})
	}
	if err := s.Sheets.Overwrite(ctx, s.HoldingsSheet, rows); err != nil {
		return fmt.Errorf("write holdings report: %w", err)
	}
	return nil
}

func (s *SheetsSink) WriteCandidates(ctx context.Context, rows []model.CandidateRow) error {
	out := make([][]interface{}, 0, len(rows)+1)
	out = append(out, cells(CandidatesHeader))
	for _, r := range CandidatesTable(rows) {
		out = append(out, cells(r))
	}
	if err := s.Sheets.Overwrite(ctx, s.CandidatesSheet, out); err != nil {
		return fmt.Errorf("write candidates report: %w", err)
	}
	return nil
}

func cells(r []string) []interface{} {
	out := make([]interface{}, len(r))
	for i, c := range r {
		out[i] = c
	}
	return out
}
