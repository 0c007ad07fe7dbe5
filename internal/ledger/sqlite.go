package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"DividendSentinel/internal/model"
)

// SQLiteStore keeps the ledger in a local SQLite database.
// Fields are stored as text so reads go through the same coercion as the spreadsheet.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(path string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	s := &SQLiteStore{db: db, log: log.With().Str("component", "ledger").Logger()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.log.Info().Str("path", path).Msg("sqlite ledger opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lots (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			date            TEXT,
			code            TEXT,
			company_name    TEXT,
			sector          TEXT,
			unit_cost_price TEXT,
			quantity        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lots_code ON lots(code)`,
	}
	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:30], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Lots(ctx context.Context) ([]model.HoldingLot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT
		COALESCE(date, ''), COALESCE(code, ''), COALESCE(company_name, ''),
		COALESCE(sector, ''), COALESCE(unit_cost_price, ''), COALESCE(quantity, '')
		FROM lots ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query lots: %w", err)
	}
	defer rows.Close()

	var lots []model.HoldingLot
	for rows.Next() {
		var date, code, name, sector, cost, qty string
		if err := rows.Scan(&date, &code, &name, &sector, &cost, &qty); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		lots = append(lots, ParseLot(date, code, name, sector, cost, qty))
	}
	return lots, rows.Err()
}

func (s *SQLiteStore) Append(ctx context.Context, p model.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO lots
		(date, code, company_name, sector, unit_cost_price, quantity)
		VALUES (?,?,?,?,?,?)`,
		p.Date, strconv.Itoa(p.Code), p.CompanyName, p.Sector,
		p.Price.String(), strconv.FormatInt(p.Quantity, 10),
	)
	if err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

// Import appends raw rows, used to seed the database from an exported worksheet.
func (s *SQLiteStore) Import(ctx context.Context, lots []model.HoldingLot) error {
	return s.load(ctx, lots, false)
}

// Replace swaps every stored lot for lots in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, lots []model.HoldingLot) error {
	return s.load(ctx, lots, true)
}

// Count returns the number of stored lots.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count lots: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) load(ctx context.Context, lots []model.HoldingLot, truncate bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if truncate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM lots`); err != nil {
			return fmt.Errorf("clear lots: %w", err)
		}
	}
	for _, l := range lots {
		if _, err := tx.ExecContext(ctx, `INSERT INTO lots
			(date, code, company_name, sector, unit_cost_price, quantity)
			VALUES (?,?,?,?,?,?)`,
			l.Date, l.Code, l.CompanyName, l.Sector, formatNullable(l.UnitCost), formatNullable(l.Quantity),
		); err != nil {
			return fmt.Errorf("import lot: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	s.log.Info().Msg("closing sqlite ledger")
	return s.db.Close()
}

func formatNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
