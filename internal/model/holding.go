package model

import "github.com/shopspring/decimal"

// HoldingLot is one ledger row. Code is empty and UnitCost/Quantity are nil
// when the stored value was not numeric.
type HoldingLot struct {
	Date        string
	Code        string
	CompanyName string
	Sector      string
	UnitCost    *float64
	Quantity    *float64
}

// HoldingPosition is the aggregated state of one held code.
type HoldingPosition struct {
	Code        string
	CompanyName string
	Sector      string
	Price       *float64
	TotalShares float64
	MarketValue int64
}

// Purchase is the ledger row appended for an accepted selection.
type Purchase struct {
	Date        string
	Code        int
	CompanyName string
	Sector      string
	Price       decimal.Decimal
	Quantity    int64
}
