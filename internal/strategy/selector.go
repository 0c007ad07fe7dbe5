package strategy

import (
	"fmt"

	"DividendSentinel/internal/calculator"
	"DividendSentinel/internal/model"
)

// DefaultTopN is the size of the top-yield window scanned by the first stage.
const DefaultTopN = 5

// Input is everything the selector looks at for one run.
type Input struct {
	Candidates  []model.CandidateRow // ranked by yield, not deduplicated
	Holdings    calculator.Holdings
	HeldSectors []string
}

func (in *Input) sectorHeld(sector string) bool {
	for _, s := range in.HeldSectors {
		if s == sector {
			return true
		}
	}
	return false
}

// Policy is the final, variant-dependent fallback stage.
type Policy interface {
	Name() string
	Pick(in *Input, pool []model.CandidateRow) (model.Selection, bool)
}

// Selector runs the ordered fallback chain: top-yield, duplicate-index, then Policy.
type Selector struct {
	TopN   int
	Policy Policy
}

// NewSelector builds a selector for the named policy.
func NewSelector(policy string, topN int, caps Caps) (*Selector, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	var p Policy
	switch policy {
	case PolicyLowMarketCapSector:
		p = LowMarketCapSector{}
	case PolicyConcentrationCap:
		p = ConcentrationCap{Caps: caps}
	default:
		return nil, fmt.Errorf("unknown selection policy %q", policy)
	}
	return &Selector{TopN: topN, Policy: p}, nil
}

// Select returns the first pick produced by the chain, or false when every stage falls through.
func (s *Selector) Select(in *Input) (model.Selection, bool) {
	top := calculator.TopN(in.Candidates, s.TopN)
	if sel, ok := firstUnheldSector(in, top, model.StageTopYield); ok {
		return sel, true
	}

	dups := calculator.Duplicates(in.Candidates)
	if sel, ok := firstUnheldSector(in, dups, model.StageDuplicateIndex); ok {
		return sel, true
	}

	if s.Policy == nil {
		return model.Selection{}, false
	}
	pool := calculator.Dedupe(append(append([]model.CandidateRow{}, top...), dups...))
	return s.Policy.Pick(in, pool)
}

func firstUnheldSector(in *Input, rows []model.CandidateRow, stage model.Stage) (model.Selection, bool) {
	for _, r := range rows {
		if !in.sectorHeld(r.Sector) {
			return model.SelectionFromCandidate(r, stage), true
		}
	}
	return model.Selection{}, false
}
