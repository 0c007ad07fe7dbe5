package calculator

import (
	"math"
	"sort"

	"DividendSentinel/internal/model"
)

// Holdings is the aggregated position state recomputed from the ledger each run.
type Holdings struct {
	Positions   []model.HoldingPosition
	SectorOrder []string // descending summed market value
}

// HeldCodes returns the distinct numeric codes of the ledger in first-seen order.
func HeldCodes(lots []model.HoldingLot) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, lot := range lots {
		if lot.Code == "" || seen[lot.Code] {
			continue
		}
		seen[lot.Code] = true
		codes = append(codes, lot.Code)
	}
	return codes
}

// HeldSectors returns the distinct sectors of the ledger in first-seen order.
func HeldSectors(lots []model.HoldingLot) []string {
	seen := make(map[string]bool)
	var sectors []string
	for _, lot := range lots {
		if lot.Sector == "" || seen[lot.Sector] {
			continue
		}
		seen[lot.Sector] = true
		sectors = append(sectors, lot.Sector)
	}
	return sectors
}

// HoldingSectors maps each held code to the sector of its first lot.
func HoldingSectors(lots []model.HoldingLot) map[string]string {
	sectors := make(map[string]string)
	for _, lot := range lots {
		if lot.Code == "" {
			continue
		}
		if _, ok := sectors[lot.Code]; !ok {
			sectors[lot.Code] = lot.Sector
		}
	}
	return sectors
}

// ShareTotals sums lot quantities per code. Lots with a null code or quantity are skipped.
func ShareTotals(lots []model.HoldingLot) map[string]float64 {
	totals := make(map[string]float64)
	for _, lot := range lots {
		if lot.Code == "" || lot.Quantity == nil {
			continue
		}
		totals[lot.Code] += *lot.Quantity
	}
	return totals
}

// AggregateHoldings joins the ledger with current quotes into ranked positions.
//
// Positions are grouped by sector; sectors are ordered by descending summed
// market value with ties kept in first-seen order, and positions inside a
// sector by descending market value. A held code without a usable quote keeps
// its share total with a zero market value.
func AggregateHoldings(lots []model.HoldingLot, quotes map[string]model.Quote) Holdings {
	codes := HeldCodes(lots)
	if len(codes) == 0 {
		return Holdings{}
	}
	totals := ShareTotals(lots)
	sectors := HoldingSectors(lots)
	names := make(map[string]string)
	for _, lot := range lots {
		if _, ok := names[lot.Code]; !ok && lot.Code != "" {
			names[lot.Code] = lot.CompanyName
		}
	}

	positions := make([]model.HoldingPosition, 0, len(codes))
	for _, code := range codes {
		p := model.HoldingPosition{
			Code:        code,
			CompanyName: names[code],
			Sector:      sectors[code],
			TotalShares: totals[code],
		}
		if q, ok := quotes[code]; ok {
			if q.CompanyName != "" {
				p.CompanyName = q.CompanyName
			}
			p.Price = q.Price
		}
		p.MarketValue = marketValue(p.Price, p.TotalShares)
		positions = append(positions, p)
	}

	order := SectorOrder(positions)
	rank := make(map[string]int, len(order))
	for i, s := range order {
		rank[s] = i
	}
	sort.SliceStable(positions, func(i, j int) bool {
		ri, rj := rank[positions[i].Sector], rank[positions[j].Sector]
		if ri != rj {
			return ri < rj
		}
		return positions[i].MarketValue > positions[j].MarketValue
	})
	return Holdings{Positions: positions, SectorOrder: order}
}

// SectorOrder ranks the sectors of positions by descending summed market value.
// Ties keep the order in which sectors first appear.
func SectorOrder(positions []model.HoldingPosition) []string {
	var order []string
	sums := make(map[string]int64)
	for _, p := range positions {
		if _, ok := sums[p.Sector]; !ok {
			order = append(order, p.Sector)
		}
		sums[p.Sector] += p.MarketValue
	}
	sort.SliceStable(order, func(i, j int) bool {
		return sums[order[i]] > sums[order[j]]
	})
	return order
}

func marketValue(price *float64, shares float64) int64 {
	if price == nil {
		return 0
	}
	v := *price * shares
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(v)
}

// TotalMarketValue sums market value across all positions.
func (h Holdings) TotalMarketValue() int64 {
	var total int64
	for _, p := range h.Positions {
		total += p.MarketValue
	}
	return total
}

// Position returns the position held for code.
func (h Holdings) Position(code string) (model.HoldingPosition, bool) {
	for _, p := range h.Positions {
		if p.Code == code {
			return p, true
		}
	}
	return model.HoldingPosition{}, false
}

// Holds reports whether code is a current position.
func (h Holdings) Holds(code string) bool {
	_, ok := h.Position(code)
	return ok
}

// SectorMarketValue sums market value of the positions in sector.
func (h Holdings) SectorMarketValue(sector string) int64 {
	var total int64
	for _, p := range h.Positions {
		if p.Sector == sector {
			total += p.MarketValue
		}
	}
	return total
}

// SectorPositions returns the positions of sector in ranked order.
func (h Holdings) SectorPositions(sector string) []model.HoldingPosition {
	var out []model.HoldingPosition
	for _, p := range h.Positions {
		if p.Sector == sector {
			out = append(out, p)
		}
	}
	return out
}
