package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DividendSentinel/internal/calculator"
	"DividendSentinel/internal/model"
)

func TestLowMarketCapSector_NewCodeInSmallestSector(t *testing.T) {
	h := holdings(
		pos("10", "Finance", 50000),
		pos("20", "Tech", 30000),
		pos("30", "Energy", 10000),
	)
	pool := []model.CandidateRow{
		cand("21", "Tech", 4, "hi"),
		cand("31", "Energy", 3, "hi"),
		cand("11", "Finance", 5, "hi"),
	}
	in := &Input{Holdings: h, HeldSectors: []string{"Finance", "Tech", "Energy"}}

	sel, ok := LowMarketCapSector{}.Pick(in, pool)

	require.True(t, ok)
	assert.Equal(t, "31", sel.Code)
	assert.Equal(t, model.StageLowMarketCap, sel.Stage)
	assert.False(t, sel.FromHolding)
}

func TestLowMarketCapSector_SkipsSectorsOutsidePool(t *testing.T) {
	h := holdings(pos("10", "Finance", 50000), pos("30", "Energy", 10000))
	pool := []model.CandidateRow{cand("11", "Finance", 5, "hi")}
	sel, ok := LowMarketCapSector{}.Pick(&Input{Holdings: h}, pool)
	require.True(t, ok)
	assert.Equal(t, "11", sel.Code)
}

func TestLowMarketCapSector_TopsUpSmallestHolding(t *testing.T) {
	h := holdings(
		pos("10", "Finance", 90000),
		pos("31", "Energy", 12000),
		pos("32", "Energy", 4000),
		pos("33", "Energy", 8000),
	)
	pool := []model.CandidateRow{
		cand("31", "Energy", 4.5, "hi"),
		cand("33", "Energy", 4.0, "hi"),
		cand("10", "Finance", 3.0, "hi"),
	}
	in := &Input{Holdings: h, HeldSectors: []string{"Finance", "Energy"}}

	sel, ok := LowMarketCapSector{}.Pick(in, pool)

	require.True(t, ok)
	assert.Equal(t, "32", sel.Code, "smallest position of the sector")
	assert.True(t, sel.FromHolding)
	assert.Equal(t, "Held 32", sel.CompanyName)
	assert.Equal(t, "Energy", sel.Sector)
	require.NotNil(t, sel.Price)
}

func TestLowMarketCapSector_TieGoesToFirstRankedPosition(t *testing.T) {
	h := holdings(pos("40", "Energy", 5000), pos("41", "Energy", 5000))
	pool := []model.CandidateRow{cand("41", "Energy", 3, "hi")}
	sel, ok := LowMarketCapSector{}.Pick(&Input{Holdings: h}, pool)
	require.True(t, ok)
	assert.Equal(t, "40", sel.Code)
}

func TestLowMarketCapSector_Scenario3ThroughSelector(t *testing.T) {
	rows := calculator.RankCandidates([]model.CandidateRow{
		cand("10", "Finance", 6, "hi"),
		cand("31", "Energy", 5, "hi"),
		cand("31", "Energy", 5, "prog"),
		cand("33", "Energy", 4, "hi"),
	})
	in := &Input{
		Candidates:  rows,
		Holdings:    holdings(pos("10", "Finance", 90000), pos("31", "Energy", 7000), pos("33", "Energy", 3000)),
		HeldSectors: []string{"Finance", "Energy"},
	}
	sel, ok := mustSelector(t, PolicyLowMarketCapSector).Select(in)
	require.True(t, ok)
	assert.Equal(t, "33", sel.Code)
	assert.True(t, sel.FromHolding)
	assert.Equal(t, model.StageLowMarketCap, sel.Stage)
}

func TestConcentrationCap_SkipsOverweightStock(t *testing.T) {
	// Total 1,000,000: stock 2 holds 6% while its sector holds 10%.
	h := holdings(
		pos("1", "Finance", 600000),
		pos("2", "Tech", 60000),
		pos("3", "Tech", 40000),
		pos("4", "Energy", 300000),
	)
	require.Equal(t, int64(1000000), h.TotalMarketValue())
	pool := []model.CandidateRow{
		cand("2", "Tech", 5, "hi"),
		cand("5", "Tech", 4, "hi"),
	}

	sel, ok := ConcentrationCap{Caps: DefaultCaps}.Pick(&Input{Holdings: h}, pool)

	require.True(t, ok)
	assert.Equal(t, "5", sel.Code)
	assert.Equal(t, model.StageConcentrationCap, sel.Stage)
}

func TestConcentrationCap_SectorCapIsStrict(t *testing.T) {
	h := holdings(pos("1", "Finance", 800), pos("2", "Tech", 200))
	pool := []model.CandidateRow{cand("3", "Tech", 5, "hi"), cand("4", "Finance", 4, "hi")}
	_, ok := ConcentrationCap{Caps: DefaultCaps}.Pick(&Input{Holdings: h}, pool)
	assert.False(t, ok, "20% sector weight is not below the 20% cap")

	h = holdings(pos("1", "Finance", 810), pos("2", "Tech", 190))
	sel, ok := ConcentrationCap{Caps: DefaultCaps}.Pick(&Input{Holdings: h}, pool)
	require.True(t, ok)
	assert.Equal(t, "3", sel.Code)
}

func TestConcentrationCap_StockAtCapIsAllowed(t *testing.T) {
	h := holdings(pos("1", "Finance", 950), pos("2", "Tech", 50))
	pool := []model.CandidateRow{cand("2", "Tech", 5, "hi")}
	sel, ok := ConcentrationCap{Caps: DefaultCaps}.Pick(&Input{Holdings: h}, pool)
	require.True(t, ok)
	assert.Equal(t, "2", sel.Code)
}

func TestConcentrationCap_ZeroCapsUseDefaults(t *testing.T) {
	h := holdings(pos("1", "Finance", 900), pos("2", "Tech", 100))
	pool := []model.CandidateRow{cand("3", "Tech", 5, "hi")}
	sel, ok := ConcentrationCap{}.Pick(&Input{Holdings: h}, pool)
	require.True(t, ok)
	assert.Equal(t, "3", sel.Code)
}

func TestConcentrationCap_EmptyHoldings(t *testing.T) {
	pool := []model.CandidateRow{cand("3", "Tech", 5, "hi")}
	_, ok := ConcentrationCap{Caps: DefaultCaps}.Pick(&Input{}, pool)
	assert.False(t, ok)
	_, ok = LowMarketCapSector{}.Pick(&Input{}, pool)
	assert.False(t, ok)
}
