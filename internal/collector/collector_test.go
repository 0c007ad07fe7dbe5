package collector

import (
	"context"
	"errors"
	"testing"

	finance "github.com/piquette/finance-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DividendSentinel/internal/model"
)

var (
	high = model.SourceIndex{ID: "nk225hdy", Name: "日経平均高配当株50指数"}
	prog = model.SourceIndex{ID: "nkphd", Name: "日経累進高配当株指数"}
)

func mockSource() *MockSource {
	return &MockSource{
		Members: []model.IndexMembers{
			{Index: high, Codes: []string{"8058", "8306"}, Sectors: map[string]string{"8058": "商社", "8306": "銀行"}},
			{Index: prog, Codes: []string{"8306", "9432"}, Sectors: map[string]string{"8306": "銀行業", "9432": "通信"}},
		},
		QuoteByKey: map[string]model.Quote{
			"8058": {Code: "8058", CompanyName: "三菱商事", Price: model.Float(2650), DividendYield: model.Float(3.4)},
			"8306": {Code: "8306", CompanyName: "三菱UFJ", Price: model.Float(1500), DividendYield: model.Float(3.9)},
			"9432": {Code: "9432", CompanyName: "NTT", Price: model.Float(150)},
		},
	}
}

func TestCollector_Candidates(t *testing.T) {
	src := mockSource()
	c := NewCollector(src, src, []model.SourceIndex{high, prog}, zerolog.Nop())

	rows, err := c.Candidates(context.Background())

	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "8306", rows[0].Code)
	assert.Equal(t, "銀行業", rows[0].Sector, "later index wins the sector")
	assert.Equal(t, high.Name, rows[0].SourceIndex)
	assert.Equal(t, "8306", rows[1].Code)
	assert.Equal(t, prog.Name, rows[1].SourceIndex)
	assert.Equal(t, "8058", rows[2].Code)
	assert.Equal(t, "9432", rows[3].Code)
	assert.Nil(t, rows[3].DividendYield)

	require.Len(t, src.Requested, 1)
	assert.Equal(t, []string{"8058", "8306", "9432"}, src.Requested[0], "each code quoted once")
}

type linkedSource struct{ *MockSource }

func (linkedSource) QuotePageURL(code string) string { return "https://quotes.example/" + code }

func TestCollector_LinksRowsWithoutQuote(t *testing.T) {
	src := mockSource()
	src.QuoteByKey["8058"] = model.Quote{Code: "8058", CompanyName: "三菱商事", URL: "https://quotes.example/page/8058"}
	delete(src.QuoteByKey, "9432")
	c := NewCollector(src, linkedSource{src}, []model.SourceIndex{high, prog}, zerolog.Nop())

	rows, err := c.Candidates(context.Background())
	require.NoError(t, err)

	urls := map[string]string{}
	for _, r := range rows {
		urls[r.Code] = r.SourceURL
	}
	assert.Equal(t, "https://quotes.example/9432", urls["9432"], "failed quote keeps its page link")
	assert.Equal(t, "https://quotes.example/page/8058", urls["8058"])
	assert.Equal(t, "https://quotes.example/8306", urls["8306"])
}

func TestCollector_NoMembers(t *testing.T) {
	src := &MockSource{}
	c := NewCollector(src, src, []model.SourceIndex{high}, zerolog.Nop())
	rows, err := c.Candidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, src.Requested)
}

func TestCollector_Errors(t *testing.T) {
	src := mockSource()
	src.IndexErr = errors.New("down")
	c := NewCollector(src, src, []model.SourceIndex{high}, zerolog.Nop())
	_, err := c.Candidates(context.Background())
	assert.Error(t, err)

	src = mockSource()
	src.QuoteErr = errors.New("down")
	c = NewCollector(src, src, []model.SourceIndex{high}, zerolog.Nop())
	_, err = c.Candidates(context.Background())
	assert.Error(t, err)
	_, err = c.HoldingQuotes(context.Background(), []string{"8058"})
	assert.Error(t, err)
}

func TestCollector_HoldingQuotes(t *testing.T) {
	src := mockSource()
	c := NewCollector(src, src, nil, zerolog.Nop())

	quotes, err := c.HoldingQuotes(context.Background(), []string{"8058", "1111"})
	require.NoError(t, err)
	assert.Len(t, quotes, 1)

	quotes, err = c.HoldingQuotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
	assert.Len(t, src.Requested, 1)
}

func TestYahooQuoteFetcher(t *testing.T) {
	f := NewYahooQuoteFetcher(zerolog.Nop())
	var asked []string
	f.get = func(symbol string) (*finance.Equity, error) {
		asked = append(asked, symbol)
		switch symbol {
		case "8058.T":
			return &finance.Equity{
				Quote:                       finance.Quote{Symbol: symbol, ShortName: "MITSUBISHI CORP", RegularMarketPrice: 2650},
				TrailingAnnualDividendRate:  100,
				TrailingAnnualDividendYield: 0.0345,
			}, nil
		case "7011.T":
			return &finance.Equity{
				Quote: finance.Quote{Symbol: symbol, ShortName: "MHI", RegularMarketPrice: 3000},
			}, nil
		case "9999.T":
			return nil, nil
		default:
			return nil, errors.New("not found")
		}
	}

	quotes, err := f.FetchQuotes(context.Background(), []string{"8058", "9999", "1234", "7011"})

	require.NoError(t, err)
	assert.Equal(t, []string{"8058.T", "9999.T", "1234.T", "7011.T"}, asked)
	require.Len(t, quotes, 2)
	assert.Nil(t, quotes["7011"].DividendYield, "no dividend rate leaves the yield unknown")
	q := quotes["8058"]
	assert.Equal(t, "MITSUBISHI CORP", q.CompanyName)
	assert.Equal(t, 2650.0, *q.Price)
	assert.InDelta(t, 3.45, *q.DividendYield, 1e-9)
	assert.Equal(t, "yahoo", f.Name())
	assert.Equal(t, "https://finance.yahoo.com/quote/8058.T", f.QuotePageURL("8058"))
}
