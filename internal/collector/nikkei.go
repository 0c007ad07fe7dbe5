package collector

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"DividendSentinel/internal/model"
)

const (
	DefaultIndexURL = "https://indexes.nikkei.co.jp/nkave/index/component?idx="
	DefaultQuoteURL = "https://www.nikkei.com/nkd/company/?scode="

	componentSelector = "div.idx-index-components.table-responsive-md"
	sectorSelector    = "h3.idx-section-subheading"
	nameSelector      = "h1.m-headlineLarge_text"
	priceSelector     = "dd.m-stockPriceElm_value"
	yieldSelector     = "div.m-stockInfo_detail_right li:nth-child(3) span.m-stockInfo_detail_value"
)

var (
	priceRe = regexp.MustCompile(`[\d,]+`)
	yieldRe = regexp.MustCompile(`\d+(\.\d+)?`)
)

// NikkeiSource scrapes index components and per-code quotes from the Nikkei sites.
type NikkeiSource struct {
	IndexURL  string
	QuoteURL  string
	NewLoader LoaderFactory
	log       zerolog.Logger
}

// NewNikkeiSource creates a source using newLoader for each batch of fetches.
func NewNikkeiSource(newLoader LoaderFactory, log zerolog.Logger) *NikkeiSource {
	return &NikkeiSource{
		IndexURL:  DefaultIndexURL,
		QuoteURL:  DefaultQuoteURL,
		NewLoader: newLoader,
		log:       log.With().Str("component", "nikkei").Logger(),
	}
}

func (s *NikkeiSource) Name() string { return "nikkei" }

// FetchIndexes loads the component page of each index with one loader.
// A page that fails yields an empty member list and is logged.
func (s *NikkeiSource) FetchIndexes(ctx context.Context, indexes []model.SourceIndex) ([]model.IndexMembers, error) {
	loader, err := s.NewLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire page loader: %w", err)
	}
	defer loader.Close()

	members := make([]model.IndexMembers, 0, len(indexes))
	for _, idx := range indexes {
		m := model.IndexMembers{Index: idx, Sectors: map[string]string{}}
		u := s.IndexURL + idx.ID
		doc, err := loader.Load(ctx, u, componentSelector)
		if err != nil {
			s.log.Warn().Err(err).Str("index", idx.ID).Str("url", u).Msg("index fetch failed")
			members = append(members, m)
			continue
		}
		m.Codes, m.Sectors = ParseIndexComponents(doc)
		s.log.Info().Str("index", idx.ID).Int("codes", len(m.Codes)).Msg("index fetched")
		members = append(members, m)
	}
	return members, nil
}

// ParseIndexComponents extracts the codes listed under each sector heading.
// Only rows whose first cell is all digits are kept.
func ParseIndexComponents(doc *goquery.Document) ([]string, map[string]string) {
	var codes []string
	sectors := make(map[string]string)
	doc.Find(componentSelector).Each(func(_ int, block *goquery.Selection) {
		sector := strings.TrimSpace(block.Find(sectorSelector).First().Text())
		block.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			td := tr.Find("td").First()
			if td.Length() == 0 {
				return
			}
			code := strings.TrimSpace(td.Text())
			if !isDigits(code) {
				return
			}
			codes = append(codes, code)
			sectors[code] = sector
		})
	})
	return codes, sectors
}

// FetchQuotes loads the quote page of every code with one loader.
// Codes whose page fails to load are absent from the result.
func (s *NikkeiSource) FetchQuotes(ctx context.Context, codes []string) (map[string]model.Quote, error) {
	loader, err := s.NewLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire page loader: %w", err)
	}
	defer loader.Close()

	quotes := make(map[string]model.Quote, len(codes))
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return quotes, err
		}
		u := s.QuotePageURL(code)
		doc, err := loader.Load(ctx, u, nameSelector)
		if err != nil {
			s.log.Warn().Err(err).Str("code", code).Str("url", u).Msg("quote fetch failed")
			continue
		}
		q, errs := ParseQuotePage(doc)
		q.Code, q.URL = code, u
		for _, e := range errs {
			s.log.Warn().Err(e).Str("code", code).Str("company", q.CompanyName).Msg("quote field unavailable")
		}
		quotes[code] = q
	}
	return quotes, nil
}

// QuotePageURL returns the quote page of code.
func (s *NikkeiSource) QuotePageURL(code string) string {
	return s.QuoteURL + code
}

// ParseQuotePage reads the company name, price and dividend yield from a quote page.
// Fields that cannot be parsed are left nil and reported in the returned errors.
func ParseQuotePage(doc *goquery.Document) (model.Quote, []error) {
	var errs []error
	q := model.Quote{CompanyName: strings.TrimSpace(doc.Find(nameSelector).First().Text())}

	priceText := doc.Find(priceSelector).First().Text()
	if m := priceRe.FindString(priceText); m != "" {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64); err == nil {
			q.Price = &v
		}
	}
	if q.Price == nil {
		errs = append(errs, fmt.Errorf("price %q: %w", strings.TrimSpace(priceText), ErrUnavailable))
	}

	yieldText := doc.Find(yieldSelector).First().Text()
	if m := yieldRe.FindString(yieldText); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			q.DividendYield = &v
		}
	}
	if q.DividendYield == nil {
		errs = append(errs, fmt.Errorf("dividend yield %q: %w", strings.TrimSpace(yieldText), ErrUnavailable))
	}
	return q, errs
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
