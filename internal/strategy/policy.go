package strategy

import (
	"sort"

	"DividendSentinel/internal/model"
)

const (
	PolicyLowMarketCapSector = "low-market-cap-sector"
	PolicyConcentrationCap   = "concentration-cap"
)

// LowMarketCapSector walks the held sectors from the smallest aggregate market
// value upwards and buys into the first one the pool covers. When every pool
// code of that sector is already held it tops up the smallest position of the sector.
type LowMarketCapSector struct{}

func (LowMarketCapSector) Name() string { return PolicyLowMarketCapSector }

func (LowMarketCapSector) Pick(in *Input, pool []model.CandidateRow) (model.Selection, bool) {
	order := in.Holdings.SectorOrder
	for i := len(order) - 1; i >= 0; i-- {
		sector := order[i]
		var inSector []model.CandidateRow
		for _, r := range pool {
			if r.Sector == sector {
				inSector = append(inSector, r)
			}
		}
		if len(inSector) == 0 {
			continue
		}
		for _, r := range inSector {
			if !in.Holdings.Holds(r.Code) {
				return model.SelectionFromCandidate(r, model.StageLowMarketCap), true
			}
		}

		// Exact ties go to the position ranked first in Holdings.
		held := in.Holdings.SectorPositions(sector)
		if len(held) == 0 {
			continue
		}
		sort.SliceStable(held, func(a, b int) bool {
			return held[a].MarketValue < held[b].MarketValue
		})
		return model.SelectionFromHolding(held[0], model.StageLowMarketCap), true
	}
	return model.Selection{}, false
}

// Caps are fractions of total portfolio market value.
type Caps struct {
	Stock  float64
	Sector float64
}

// DefaultCaps limits a single stock to 5% and a sector to 20% of the portfolio.
var DefaultCaps = Caps{Stock: 0.05, Sector: 0.20}

// ConcentrationCap picks the first pool row whose current stock weight is within
// the stock cap and whose sector weight is strictly below the sector cap.
type ConcentrationCap struct {
	Caps Caps
}

func (ConcentrationCap) Name() string { return PolicyConcentrationCap }

func (c ConcentrationCap) Pick(in *Input, pool []model.CandidateRow) (model.Selection, bool) {
	caps := c.Caps
	if caps.Stock <= 0 {
		caps.Stock = DefaultCaps.Stock
	}
	if caps.Sector <= 0 {
		caps.Sector = DefaultCaps.Sector
	}
	total := float64(in.Holdings.TotalMarketValue())
	for _, r := range pool {
		var stockCap int64
		if p, ok := in.Holdings.Position(r.Code); ok {
			stockCap = p.MarketValue
		}
		if float64(stockCap) > caps.Stock*total {
			continue
		}
		sectorCap := in.Holdings.SectorMarketValue(r.Sector)
		if float64(sectorCap) < caps.Sector*total {
			return model.SelectionFromCandidate(r, model.StageConcentrationCap), true
		}
	}
	return model.Selection{}, false
}
