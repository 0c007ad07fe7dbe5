package calculator

import (
	"sort"

	"DividendSentinel/internal/model"
)

// UnknownSector labels codes absent from every index sector map.
const UnknownSector = "Unknown"

// MergeSectors folds the per-index sector maps in order; a later index wins.
func MergeSectors(members []model.IndexMembers) map[string]string {
	merged := make(map[string]string)
	for _, m := range members {
		for code, sector := range m.Sectors {
			merged[code] = sector
		}
	}
	return merged
}

// BuildCandidates tags one candidate row per (index, code) pair using the merged
// sector map and the quotes fetched for each code. Rows are not deduplicated.
// A code without a quote still yields a row with null price and yield.
func BuildCandidates(members []model.IndexMembers, sectors map[string]string, quotes map[string]model.Quote) []model.CandidateRow {
	var rows []model.CandidateRow
	for _, m := range members {
		for _, code := range m.Codes {
			sector, ok := sectors[code]
			if !ok {
				sector = UnknownSector
			}
			row := model.CandidateRow{
				Code:        code,
				Sector:      sector,
				SourceIndex: m.Index.Name,
			}
			if q, ok := quotes[code]; ok {
				row.CompanyName = q.CompanyName
				row.Price = q.Price
				row.DividendYield = q.DividendYield
				row.SourceURL = q.URL
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// RankCandidates returns a copy of rows sorted by dividend yield descending.
// Rows with a null yield go last; equal keys keep their input order.
func RankCandidates(rows []model.CandidateRow) []model.CandidateRow {
	ranked := make([]model.CandidateRow, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].DividendYield, ranked[j].DividendYield
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	return ranked
}

// TopN returns at most the first n rows.
func TopN(ranked []model.CandidateRow, n int) []model.CandidateRow {
	if n < 0 {
		n = 0
	}
	if len(ranked) < n {
		n = len(ranked)
	}
	return ranked[:n]
}

// Duplicates returns the first row of every code that appears at least twice,
// in the relative order of ranked.
func Duplicates(ranked []model.CandidateRow) []model.CandidateRow {
	counts := make(map[string]int)
	for _, r := range ranked {
		counts[r.Code]++
	}
	seen := make(map[string]bool)
	var out []model.CandidateRow
	for _, r := range ranked {
		if counts[r.Code] < 2 || seen[r.Code] {
			continue
		}
		seen[r.Code] = true
		out = append(out, r)
	}
	return out
}

// Dedupe keeps the first row per code.
func Dedupe(rows []model.CandidateRow) []model.CandidateRow {
	seen := make(map[string]bool)
	var out []model.CandidateRow
	for _, r := range rows {
		if seen[r.Code] {
			continue
		}
		seen[r.Code] = true
		out = append(out, r)
	}
	return out
}
