package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DividendSentinel/internal/gsheet"
	"DividendSentinel/internal/model"
)

func TestParseRows_CoercesNonNumericToNull(t *testing.T) {
	rows := [][]string{
		Header,
		{"2024-01-05", "7203", "トヨタ自動車", "自動車", "2,500", "1"},
		{"2024-01-12", "abc", "Bad", "銀行", "n/a", "x"},
		{"", "", "", "", "", ""},
		{"2024-01-19", "8306.0", "三菱UFJ", "銀行", "1200.5", "2"},
	}

	lots := ParseRows(rows)

	require.Len(t, lots, 3)
	assert.Equal(t, "7203", lots[0].Code)
	require.NotNil(t, lots[0].UnitCost)
	assert.Equal(t, 2500.0, *lots[0].UnitCost)
	assert.Equal(t, 1.0, *lots[0].Quantity)

	assert.Empty(t, lots[1].Code)
	assert.Nil(t, lots[1].UnitCost)
	assert.Nil(t, lots[1].Quantity)
	assert.Equal(t, "銀行", lots[1].Sector)

	assert.Equal(t, "8306", lots[2].Code)
}

func TestParseRows_ColumnsByHeaderName(t *testing.T) {
	rows := [][]string{
		{ColCode, ColQuantity, ColSector, ColName, ColDate, ColUnitCost},
		{"9432", "5", "通信", "NTT", "2024-02-01", "170"},
	}
	lots := ParseRows(rows)
	require.Len(t, lots, 1)
	assert.Equal(t, model.HoldingLot{
		Date: "2024-02-01", Code: "9432", CompanyName: "NTT", Sector: "通信",
		UnitCost: model.Float(170), Quantity: model.Float(5),
	}, lots[0])
}

func TestParseRows_ShortRowsAndEmptyTable(t *testing.T) {
	assert.Nil(t, ParseRows(nil))
	assert.Empty(t, ParseRows([][]string{Header}))

	lots := ParseRows([][]string{Header, {"2024-01-01", "1301"}})
	require.Len(t, lots, 1)
	assert.Equal(t, "1301", lots[0].Code)
	assert.Nil(t, lots[0].Quantity)
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"7203", "7203"},
		{" 7203 ", "7203"},
		{"7203.0", "7203"},
		{"7203.5", ""},
		{"-1", ""},
		{"", ""},
		{"130A", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCode(tt.in), tt.in)
	}
}

type fakeSheets struct {
	rows    map[string][][]string
	readErr error
}

func (f *fakeSheets) Read(_ context.Context, sheet string) ([][]string, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.rows[sheet], nil
}

func (f *fakeSheets) Append(_ context.Context, sheet string, row []interface{}) error {
	r := make([]string, len(row))
	for i, v := range row {
		switch x := v.(type) {
		case string:
			r[i] = x
		default:
			r[i] = decimal.NewFromFloat(toFloat(x)).String()
		}
	}
	f.rows[sheet] = append(f.rows[sheet], r)
	return nil
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func purchase() model.Purchase {
	return model.Purchase{
		Date: "2024-03-01", Code: 8058, CompanyName: "三菱商事", Sector: "商社",
		Price: decimal.RequireFromString("2650.5"), Quantity: 1,
	}
}

func TestSheetsStore_AppendWritesHeaderOnce(t *testing.T) {
	ctx := context.Background()
	fs := &fakeSheets{rows: map[string][][]string{}}
	store := NewSheetsStore(fs, "購入履歴")

	require.NoError(t, store.Append(ctx, purchase()))
	require.NoError(t, store.Append(ctx, purchase()))

	require.Len(t, fs.rows["購入履歴"], 3)
	assert.Equal(t, Header, fs.rows["購入履歴"][0])

	lots, err := store.Lots(ctx)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, "8058", lots[0].Code)
	assert.Equal(t, 2650.5, *lots[0].UnitCost)
	assert.Equal(t, 1.0, *lots[1].Quantity)
}

func TestSheetsStore_MissingWorksheet(t *testing.T) {
	fs := &fakeSheets{readErr: fmt.Errorf("read worksheet: %w", gsheet.ErrNotFound)}
	store := NewSheetsStore(fs, "購入履歴")

	_, err := store.Lots(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Append(context.Background(), purchase()), ErrNotFound)

	fs.readErr = errors.New("quota exceeded")
	_, err = store.Lots(context.Background())
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"), zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	lots, err := store.Lots(ctx)
	require.NoError(t, err)
	assert.Empty(t, lots)

	require.NoError(t, store.Append(ctx, purchase()))
	p := purchase()
	p.Code, p.Quantity = 7203, 3
	require.NoError(t, store.Append(ctx, p))

	lots, err = store.Lots(ctx)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, "8058", lots[0].Code)
	assert.Equal(t, "2024-03-01", lots[0].Date)
	assert.Equal(t, 2650.5, *lots[0].UnitCost)
	assert.Equal(t, "7203", lots[1].Code)
	assert.Equal(t, 3.0, *lots[1].Quantity)
}

func TestSQLiteStore_ImportKeepsNulls(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"), zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	in := []model.HoldingLot{
		{Date: "2024-01-01", Code: "1301", Sector: "水産", UnitCost: model.Float(3000), Quantity: model.Float(1)},
		{Date: "2024-01-02", Code: "", Sector: "銀行"},
	}
	require.NoError(t, store.Import(ctx, in))

	lots, err := store.Lots(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, lots)
}

func TestSQLiteStore_ReplaceAndCount(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"), zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	in := []model.HoldingLot{
		{Date: "2024-01-01", Code: "1301", Sector: "水産", UnitCost: model.Float(3000), Quantity: model.Float(1)},
		{Date: "2024-01-02", Code: "8306", Sector: "銀行", UnitCost: model.Float(1500), Quantity: model.Float(2)},
	}
	require.NoError(t, store.Import(ctx, in))
	require.NoError(t, store.Import(ctx, in))
	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, store.Replace(ctx, in))
	lots, err := store.Lots(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, lots)
}
