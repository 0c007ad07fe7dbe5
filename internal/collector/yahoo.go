package collector

import (
	"context"
	"fmt"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"github.com/rs/zerolog"

	"DividendSentinel/internal/model"
)

// YahooQuoteFetcher implements QuoteFetcher using Yahoo Finance equity quotes.
// Tokyo codes are looked up with the ".T" suffix.
type YahooQuoteFetcher struct {
	Suffix string
	get    func(symbol string) (*finance.Equity, error)
	log    zerolog.Logger
}

// NewYahooQuoteFetcher creates a Yahoo Finance quote fetcher.
func NewYahooQuoteFetcher(log zerolog.Logger) *YahooQuoteFetcher {
	return &YahooQuoteFetcher{
		Suffix: ".T",
		get:    equity.Get,
		log:    log.With().Str("component", "yahoo").Logger(),
	}
}

func (f *YahooQuoteFetcher) Name() string { return "yahoo" }

func (f *YahooQuoteFetcher) yahooSymbol(code string) string {
	return code + f.Suffix
}

// QuotePageURL returns the Yahoo Finance page of code.
func (f *YahooQuoteFetcher) QuotePageURL(code string) string {
	return "https://finance.yahoo.com/quote/" + f.yahooSymbol(code)
}

func (f *YahooQuoteFetcher) FetchQuotes(ctx context.Context, codes []string) (map[string]model.Quote, error) {
	quotes := make(map[string]model.Quote, len(codes))
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return quotes, err
		}
		symbol := f.yahooSymbol(code)
		q, err := f.get(symbol)
		if err != nil {
			f.log.Warn().Err(err).Str("code", code).Str("symbol", symbol).Msg("quote fetch failed")
			continue
		}
		if q == nil {
			f.log.Warn().Str("code", code).Str("symbol", symbol).Msg("no quote returned")
			continue
		}
		quotes[code] = fromYahoo(code, q)
	}
	return quotes, nil
}

func fromYahoo(code string, q *finance.Equity) model.Quote {
	out := model.Quote{
		Code:        code,
		CompanyName: q.ShortName,
		URL:         fmt.Sprintf("https://finance.yahoo.com/quote/%s", q.Symbol),
	}
	if q.RegularMarketPrice > 0 {
		out.Price = model.Float(q.RegularMarketPrice)
	}
	// Yahoo reports the yield as a fraction.
	if q.TrailingAnnualDividendRate > 0 {
		out.DividendYield = model.Float(q.TrailingAnnualDividendYield * 100)
	}
	return out
}
