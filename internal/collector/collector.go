package collector

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"DividendSentinel/internal/calculator"
	"DividendSentinel/internal/model"
)

// MockSource returns fixed index members and quotes for development and testing.
type MockSource struct {
	Members    []model.IndexMembers
	QuoteByKey map[string]model.Quote
	IndexErr   error
	QuoteErr   error
	Requested  [][]string
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchIndexes(_ context.Context, indexes []model.SourceIndex) ([]model.IndexMembers, error) {
	if m.IndexErr != nil {
		return nil, m.IndexErr
	}
	out := make([]model.IndexMembers, 0, len(indexes))
	for _, idx := range indexes {
		found := model.IndexMembers{Index: idx, Sectors: map[string]string{}}
		for _, mem := range m.Members {
			if mem.Index.ID == idx.ID {
				found.Codes = mem.Codes
				found.Sectors = mem.Sectors
			}
		}
		out = append(out, found)
	}
	return out, nil
}

func (m *MockSource) FetchQuotes(_ context.Context, codes []string) (map[string]model.Quote, error) {
	m.Requested = append(m.Requested, codes)
	if m.QuoteErr != nil {
		return nil, m.QuoteErr
	}
	out := make(map[string]model.Quote)
	for _, c := range codes {
		if q, ok := m.QuoteByKey[c]; ok {
			out[c] = q
		}
	}
	return out, nil
}

// Collector gathers candidate rows and holding quotes from the data sources.
type Collector struct {
	Indexes IndexFetcher
	Quotes  QuoteFetcher
	Sources []model.SourceIndex
	log     zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(indexes IndexFetcher, quotes QuoteFetcher, sources []model.SourceIndex, log zerolog.Logger) *Collector {
	return &Collector{
		Indexes: indexes,
		Quotes:  quotes,
		Sources: sources,
		log:     log.With().Str("component", "collector").Logger(),
	}
}

// Candidates fetches every source index, quotes each distinct code once and
// returns the yield-ranked candidate table.
func (c *Collector) Candidates(ctx context.Context) ([]model.CandidateRow, error) {
	members, err := c.Indexes.FetchIndexes(ctx, c.Sources)
	if err != nil {
		return nil, fmt.Errorf("fetch indexes: %w", err)
	}
	sectors := calculator.MergeSectors(members)

	var codes []string
	seen := make(map[string]bool)
	for _, m := range members {
		for _, code := range m.Codes {
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}
	if len(codes) == 0 {
		c.log.Warn().Msg("no index members fetched")
		return nil, nil
	}

	quotes, err := c.Quotes.FetchQuotes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}
	c.log.Info().
		Int("codes", len(codes)).
		Int("quoted", len(quotes)).
		Str("quotes", c.Quotes.Name()).
		Msg("candidates collected")

	rows := calculator.BuildCandidates(members, sectors, quotes)
	if linker, ok := c.Quotes.(PageLinker); ok {
		for i := range rows {
			if rows[i].SourceURL == "" {
				rows[i].SourceURL = linker.QuotePageURL(rows[i].Code)
			}
		}
	}
	return calculator.RankCandidates(rows), nil
}

// HoldingQuotes fetches current quotes for the held codes.
func (c *Collector) HoldingQuotes(ctx context.Context, codes []string) (map[string]model.Quote, error) {
	if len(codes) == 0 {
		return map[string]model.Quote{}, nil
	}
	quotes, err := c.Quotes.FetchQuotes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("fetch holding quotes: %w", err)
	}
	if missing := len(codes) - len(quotes); missing > 0 {
		c.log.Warn().Int("missing", missing).Msg("some holdings have no current quote")
	}
	return quotes, nil
}
