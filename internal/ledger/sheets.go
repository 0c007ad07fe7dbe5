package ledger

import (
	"context"
	"errors"
	"fmt"

	"DividendSentinel/internal/gsheet"
	"DividendSentinel/internal/model"
)

// Worksheets is the part of the spreadsheet client the ledger needs.
type Worksheets interface {
	Read(ctx context.Context, sheet string) ([][]string, error)
	Append(ctx context.Context, sheet string, row []interface{}) error
}

// SheetsStore keeps the ledger in one worksheet of a spreadsheet.
type SheetsStore struct {
	Sheets Worksheets
	Sheet  string
}

// NewSheetsStore creates a store over the named worksheet.
func NewSheetsStore(ws Worksheets, sheet string) *SheetsStore {
	return &SheetsStore{Sheets: ws, Sheet: sheet}
}

func (s *SheetsStore) read(ctx context.Context) ([][]string, error) {
	rows, err := s.Sheets.Read(ctx, s.Sheet)
	if errors.Is(err, gsheet.ErrNotFound) {
		return nil, fmt.Errorf("worksheet %q: %w", s.Sheet, ErrNotFound)
	}
	return rows, err
}

func (s *SheetsStore) Lots(ctx context.Context) ([]model.HoldingLot, error) {
	rows, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return ParseRows(rows), nil
}

func (s *SheetsStore) Append(ctx context.Context, p model.Purchase) error {
	rows, err := s.read(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		header := make([]interface{}, len(Header))
		for i, h := range Header {
			header[i] = h
		}
		if err := s.Sheets.Append(ctx, s.Sheet, header); err != nil {
			return fmt.Errorf("write ledger header: %w", err)
		}
	}
	return s.Sheets.Append(ctx, s.Sheet, Row(p))
}

func (s *SheetsStore) Close() error { return nil }
