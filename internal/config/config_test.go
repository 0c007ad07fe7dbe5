package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, BackendSheets, cfg.Ledger.Backend)
	assert.Equal(t, "購入履歴", cfg.Ledger.LedgerSheet)
	assert.Equal(t, "時価総額", cfg.Ledger.HoldingsSheet)
	assert.Equal(t, "今週の銘柄", cfg.Ledger.CandidatesSheet)
	assert.Equal(t, "low-market-cap-sector", cfg.Selection.Policy)
	assert.Equal(t, 5, cfg.Selection.TopN)
	assert.Equal(t, 0.05, cfg.Selection.StockCapPct)
	assert.Equal(t, 0.20, cfg.Selection.SectorCapPct)
	assert.Equal(t, 2000.0, cfg.Purchase.BudgetUnit)
	assert.Equal(t, 10*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 12*time.Hour, cfg.Snapshot.MaxAge)
	assert.Equal(t, DefaultIndexes, cfg.Source.Indexes)
	assert.True(t, cfg.Report.Terminal)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
ledger:
  backend: sqlite
  sqlite_path: /tmp/from-file.db
selection:
  policy: concentration-cap
  top_n: 3
snapshot:
  max_age: 30m
source:
  loader: chrome
  indexes:
    - id: nkphd
      name: 日経累進高配当株指数
log:
  pretty: false
`)
	t.Setenv("SQLITE_PATH", "/tmp/from-env.db")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("CRON_WEEKLY", "0 30 7 * * 1")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, BackendSQLite, cfg.Ledger.Backend)
	assert.Equal(t, "/tmp/from-env.db", cfg.Ledger.SQLitePath)
	assert.Equal(t, "concentration-cap", cfg.Selection.Policy)
	assert.Equal(t, 3, cfg.Selection.TopN)
	assert.Equal(t, 0.05, cfg.Selection.StockCapPct)
	assert.Equal(t, 30*time.Minute, cfg.Snapshot.MaxAge)
	assert.Equal(t, "chrome", cfg.Source.Loader)
	require.Len(t, cfg.Source.Indexes, 1)
	assert.Equal(t, "nkphd", cfg.Source.Indexes[0].ID)
	assert.False(t, cfg.Log.Pretty)
	assert.Equal(t, "0 30 7 * * 1", cfg.Schedule.WeeklyCron)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "ledger: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		require.NoError(t, err)
		cfg.Ledger.SpreadsheetKey = "sheet-key"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults with key", func(*Config) {}, ""},
		{"sheets without key", func(c *Config) { c.Ledger.SpreadsheetKey = "" }, "spreadsheet_key"},
		{"sheets without credentials", func(c *Config) { c.Ledger.CredentialsFile = "" }, "credentials_file"},
		{"sqlite without path", func(c *Config) { c.Ledger.Backend = BackendSQLite; c.Ledger.SQLitePath = "" }, "sqlite_path"},
		{"unknown backend", func(c *Config) { c.Ledger.Backend = "csv" }, "Backend must be one of: sheets, sqlite"},
		{"unknown policy", func(c *Config) { c.Selection.Policy = "random" }, "Policy must be one of"},
		{"zero budget", func(c *Config) { c.Purchase.BudgetUnit = 0 }, "BudgetUnit must be greater than 0"},
		{"cap above one", func(c *Config) { c.Selection.SectorCapPct = 1.5 }, "SectorCapPct"},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "t" }, "chat_id"},
		{"index without id", func(c *Config) { c.Source.Indexes[1].ID = " " }, "source.indexes[1].id"},
		{"bad cron", func(c *Config) { c.Schedule.WeeklyCron = "every monday" }, "weekly_cron"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, DefaultPath, ResolvePath(""))
	assert.Equal(t, "a.yaml", ResolvePath("a.yaml"))
	t.Setenv("CONFIG_PATH", "env.yaml")
	assert.Equal(t, "env.yaml", ResolvePath(""))
}
