// Package recorder turns a selection into a ledger purchase and keeps a history of runs.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"DividendSentinel/internal/ledger"
	"DividendSentinel/internal/model"
)

// DefaultBudgetUnit is the nominal amount spent on one pick.
var DefaultBudgetUnit = decimal.NewFromInt(2000)

// ErrNoPrice is returned when the selection has no usable price.
var ErrNoPrice = errors.New("selection has no price")

// DateLayout is the ledger date format.
const DateLayout = "2006-01-02"

// NewPurchase builds the ledger row for sel. Quantity is budget/price rounded up.
func NewPurchase(sel model.Selection, budget decimal.Decimal, now time.Time) (model.Purchase, error) {
	if sel.Price == nil || *sel.Price <= 0 {
		return model.Purchase{}, fmt.Errorf("%s: %w", sel.Code, ErrNoPrice)
	}
	code, err := strconv.Atoi(sel.Code)
	if err != nil {
		return model.Purchase{}, fmt.Errorf("code %q: %w", sel.Code, err)
	}
	price := decimal.NewFromFloat(*sel.Price)
	return model.Purchase{
		Date:        now.Format(DateLayout),
		Code:        code,
		CompanyName: sel.CompanyName,
		Sector:      sel.Sector,
		Price:       price,
		Quantity:    budget.Div(price).Ceil().IntPart(),
	}, nil
}

// PurchaseRecorder appends accepted selections to the ledger.
type PurchaseRecorder struct {
	Ledger     ledger.Store
	BudgetUnit decimal.Decimal
	Now        func() time.Time
	log        zerolog.Logger
}

// NewPurchaseRecorder creates a recorder. A non-positive budget falls back to DefaultBudgetUnit.
func NewPurchaseRecorder(store ledger.Store, budget decimal.Decimal, log zerolog.Logger) *PurchaseRecorder {
	if !budget.IsPositive() {
		budget = DefaultBudgetUnit
	}
	return &PurchaseRecorder{
		Ledger:     store,
		BudgetUnit: budget,
		Now:        time.Now,
		log:        log.With().Str("component", "recorder").Logger(),
	}
}

// Record appends exactly one ledger row for sel and returns it.
func (r *PurchaseRecorder) Record(ctx context.Context, sel model.Selection) (model.Purchase, error) {
	p, err := NewPurchase(sel, r.BudgetUnit, r.Now())
	if err != nil {
		return model.Purchase{}, err
	}
	if err := r.Ledger.Append(ctx, p); err != nil {
		return model.Purchase{}, fmt.Errorf("append purchase: %w", err)
	}
	r.log.Info().
		Int("code", p.Code).
		Str("company", p.CompanyName).
		Str("price", p.Price.String()).
		Int64("quantity", p.Quantity).
		Msg("purchase recorded")
	return p, nil
}
