package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteHistory persists run outcomes to a SQLite database.
type SQLiteHistory struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteHistory opens (or creates) the SQLite database and runs migrations.
func NewSQLiteHistory(dbPath string, log zerolog.Logger) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	h := &SQLiteHistory{db: db, log: log.With().Str("component", "history").Logger()}
	if err := h.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	h.log.Info().Str("path", dbPath).Msg("run history opened")
	return h, nil
}

func (h *SQLiteHistory) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			policy       TEXT,
			candidates   INTEGER,
			holdings     INTEGER,
			from_cache   INTEGER,
			outcome      TEXT,
			stage        TEXT,
			code         TEXT,
			company_name TEXT,
			sector       TEXT,
			price        REAL,
			quantity     INTEGER,
			error        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_code ON runs(code)`,
	}
	for _, s := range stmts {
		if _, err := h.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:30], err)
		}
	}
	return nil
}

func (h *SQLiteHistory) RecordRun(evt *RunEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	started := evt.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := h.db.Exec(`INSERT INTO runs
		(run_id, timestamp, policy, candidates, holdings, from_cache, outcome,
		 stage, code, company_name, sector, price, quantity, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		evt.RunID, started.Unix(), evt.Policy, evt.Candidates, evt.Holdings, evt.FromCache, evt.Outcome,
		evt.Stage, evt.Code, evt.CompanyName, evt.Sector, evt.Price, evt.Quantity, evt.Error,
	)
	return err
}

// Runs returns the most recent run events, newest first.
func (h *SQLiteHistory) Runs(limit int) ([]RunEvent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rows, err := h.db.Query(`SELECT run_id, timestamp, COALESCE(policy, ''), candidates, holdings, from_cache,
		COALESCE(outcome, ''), COALESCE(stage, ''), COALESCE(code, ''), COALESCE(company_name, ''),
		COALESCE(sector, ''), COALESCE(price, 0), COALESCE(quantity, 0), COALESCE(error, '')
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunEvent
	for rows.Next() {
		var e RunEvent
		var ts int64
		if err := rows.Scan(&e.RunID, &ts, &e.Policy, &e.Candidates, &e.Holdings, &e.FromCache,
			&e.Outcome, &e.Stage, &e.Code, &e.CompanyName, &e.Sector, &e.Price, &e.Quantity, &e.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.StartedAt = time.Unix(ts, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (h *SQLiteHistory) Close() error {
	h.log.Info().Msg("closing run history")
	return h.db.Close()
}
