package collector

import (
	"context"
	"errors"

	"DividendSentinel/internal/model"
)

// ErrUnavailable marks a quote field that could not be parsed.
var ErrUnavailable = errors.New("value unavailable")

// IndexFetcher returns the component codes and sectors of each index.
type IndexFetcher interface {
	FetchIndexes(ctx context.Context, indexes []model.SourceIndex) ([]model.IndexMembers, error)
}

// QuoteFetcher returns the current quote of each code it could fetch.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, codes []string) (map[string]model.Quote, error)
	Name() string
}

// PageLinker is implemented by quote sources that can name the page of a code
// without fetching it. Candidates use it to link rows whose quote failed.
type PageLinker interface {
	QuotePageURL(code string) string
}
