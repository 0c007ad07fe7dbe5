package model

// Stage names the selector stage that produced a pick.
type Stage string

const (
	StageTopYield         Stage = "top-yield"
	StageDuplicateIndex   Stage = "duplicate-index"
	StageLowMarketCap     Stage = "low-market-cap-sector"
	StageConcentrationCap Stage = "concentration-cap"
)

// Selection is the single stock chosen by a run.
// FromHolding is set when the pick tops up an existing position rather than a fresh candidate.
type Selection struct {
	Code        string
	CompanyName string
	Sector      string
	Price       *float64
	Stage       Stage
	FromHolding bool
}

// SelectionFromCandidate maps a candidate row to a selection.
func SelectionFromCandidate(c CandidateRow, stage Stage) Selection {
	return Selection{
		Code:        c.Code,
		CompanyName: c.CompanyName,
		Sector:      c.Sector,
		Price:       c.Price,
		Stage:       stage,
	}
}

// SelectionFromHolding maps a held position to a selection.
func SelectionFromHolding(p HoldingPosition, stage Stage) Selection {
	return Selection{
		Code:        p.Code,
		CompanyName: p.CompanyName,
		Sector:      p.Sector,
		Price:       p.Price,
		Stage:       stage,
		FromHolding: true,
	}
}
