// Package ledger reads and appends the purchase history the holdings are derived from.
package ledger

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"DividendSentinel/internal/model"
)

// ErrNotFound is returned when the ledger table or worksheet does not exist.
var ErrNotFound = errors.New("ledger: not found")

// Store is an append-only table of purchases.
type Store interface {
	Lots(ctx context.Context) ([]model.HoldingLot, error)
	Append(ctx context.Context, p model.Purchase) error
	Close() error
}

// Column headers of the ledger worksheet, in append order.
const (
	ColDate     = "日付"
	ColCode     = "証券コード"
	ColName     = "会社名"
	ColSector   = "セクター"
	ColUnitCost = "取得単価"
	ColQuantity = "株数"
)

// Header is the header row written to an empty ledger.
var Header = []string{ColDate, ColCode, ColName, ColSector, ColUnitCost, ColQuantity}

// ParseRows converts a table whose first row is the header into lots.
// Columns are located by header name; a header that is missing falls back to
// its position in Header. Numeric fields that do not parse become null.
func ParseRows(rows [][]string) []model.HoldingLot {
	if len(rows) == 0 {
		return nil
	}
	idx := columnIndex(rows[0])
	lots := make([]model.HoldingLot, 0, len(rows)-1)
	for _, r := range rows[1:] {
		if blank(r) {
			continue
		}
		lots = append(lots, ParseLot(
			cell(r, idx[ColDate]),
			cell(r, idx[ColCode]),
			cell(r, idx[ColName]),
			cell(r, idx[ColSector]),
			cell(r, idx[ColUnitCost]),
			cell(r, idx[ColQuantity]),
		))
	}
	return lots
}

// ParseLot builds a lot from raw field text.
func ParseLot(date, code, name, sector, unitCost, quantity string) model.HoldingLot {
	return model.HoldingLot{
		Date:        strings.TrimSpace(date),
		Code:        NormalizeCode(code),
		CompanyName: strings.TrimSpace(name),
		Sector:      strings.TrimSpace(sector),
		UnitCost:    parseNumber(unitCost),
		Quantity:    parseNumber(quantity),
	}
}

// NormalizeCode returns the canonical form of a numeric ticker code, or "" when
// s is not numeric. "7203", " 7203 " and "7203.0" all map to "7203".
func NormalizeCode(s string) string {
	v := parseNumber(s)
	if v == nil || *v < 0 || *v != float64(int64(*v)) {
		return ""
	}
	return strconv.FormatInt(int64(*v), 10)
}

func parseNumber(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(Header))
	for i, name := range Header {
		idx[name] = i
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, ok := idx[h]; ok {
			idx[h] = i
		}
	}
	return idx
}

func cell(r []string, i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

func blank(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Row renders a purchase in ledger column order.
func Row(p model.Purchase) []interface{} {
	price, _ := p.Price.Float64()
	return []interface{}{p.Date, p.Code, p.CompanyName, p.Sector, price, p.Quantity}
}
