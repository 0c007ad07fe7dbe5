package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DividendSentinel/internal/model"
)

func row(code, sector string, yield *float64, index string) model.CandidateRow {
	return model.CandidateRow{Code: code, Sector: sector, DividendYield: yield, SourceIndex: index}
}

func codesOf(rows []model.CandidateRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Code)
	}
	return out
}

func TestMergeSectors_LaterSourceWins(t *testing.T) {
	members := []model.IndexMembers{
		{Sectors: map[string]string{"1": "Bank", "2": "Tech"}},
		{Sectors: map[string]string{"2": "Software"}},
	}
	assert.Equal(t, map[string]string{"1": "Bank", "2": "Software"}, MergeSectors(members))
}

func TestBuildCandidates_KeepsEveryRow(t *testing.T) {
	hi := model.SourceIndex{ID: "nk225hdy", Name: "High"}
	pr := model.SourceIndex{ID: "nkphd", Name: "Progressive"}
	members := []model.IndexMembers{
		{Index: hi, Codes: []string{"1", "2"}},
		{Index: pr, Codes: []string{"2", "3"}},
	}
	sectors := map[string]string{"1": "Bank", "2": "Tech"}
	quotes := map[string]model.Quote{
		"1": {Code: "1", CompanyName: "One", Price: model.Float(100), DividendYield: model.Float(4), URL: "u1"},
		"2": {Code: "2", CompanyName: "Two", Price: model.Float(200), DividendYield: model.Float(3), URL: "u2"},
	}

	rows := BuildCandidates(members, sectors, quotes)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"1", "2", "2", "3"}, codesOf(rows))
	assert.Equal(t, "Progressive", rows[2].SourceIndex)
	assert.Equal(t, "u2", rows[2].SourceURL)
	assert.Equal(t, UnknownSector, rows[3].Sector)
	assert.Nil(t, rows[3].Price)
	assert.Nil(t, rows[3].DividendYield)
}

func TestRankCandidates_DescendingNullsLast(t *testing.T) {
	rows := []model.CandidateRow{
		row("a", "S", nil, ""),
		row("b", "S", model.Float(3.1), ""),
		row("c", "S", model.Float(4.2), ""),
		row("d", "S", nil, ""),
		row("e", "S", model.Float(3.1), ""),
	}

	ranked := RankCandidates(rows)

	assert.Equal(t, []string{"c", "b", "e", "a", "d"}, codesOf(ranked))
	assert.Len(t, ranked, len(rows))
	assert.Equal(t, "a", rows[0].Code, "input must not be reordered")
}

func TestDuplicates_FirstOccurrenceInRankOrder(t *testing.T) {
	ranked := RankCandidates([]model.CandidateRow{
		row("1", "A", model.Float(2), "x"),
		row("2", "B", model.Float(5), "x"),
		row("1", "A", model.Float(2), "y"),
		row("3", "C", model.Float(4), "x"),
		row("2", "B", model.Float(5), "z"),
		row("2", "B", model.Float(5), "y"),
	})

	dups := Duplicates(ranked)

	assert.Equal(t, []string{"2", "1"}, codesOf(dups))
	assert.Equal(t, "x", dups[0].SourceIndex)
}

func TestTopN(t *testing.T) {
	rows := []model.CandidateRow{row("1", "", nil, ""), row("2", "", nil, "")}
	assert.Len(t, TopN(rows, 5), 2)
	assert.Len(t, TopN(rows, 1), 1)
	assert.Empty(t, TopN(rows, 0))
	assert.Empty(t, TopN(nil, 5))
}

func TestDedupe(t *testing.T) {
	rows := []model.CandidateRow{row("1", "", nil, "a"), row("2", "", nil, "a"), row("1", "", nil, "b")}
	out := Dedupe(rows)
	assert.Equal(t, []string{"1", "2"}, codesOf(out))
	assert.Equal(t, "a", out[0].SourceIndex)
}
