// Package config loads the picker configuration from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"DividendSentinel/internal/model"
)

// DefaultPath is used when neither a flag nor CONFIG_PATH names a file.
const DefaultPath = "configs/config.yaml"

// Ledger backends.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

// DefaultIndexes are the Nikkei dividend indexes scanned for candidates.
var DefaultIndexes = []model.SourceIndex{
	{ID: "nk225hdy", Name: "日経平均高配当株50指数"},
	{ID: "nkphd", Name: "日経累進高配当株指数"},
	{ID: "nkcdg", Name: "日経連続増配株指数"},
}

// LedgerConfig selects the purchase ledger backend and names its worksheets.
type LedgerConfig struct {
	Backend         string `yaml:"backend" default:"sheets" validate:"oneof=sheets sqlite"`
	SpreadsheetKey  string `yaml:"spreadsheet_key"`
	CredentialsFile string `yaml:"credentials_file" default:"service_account.json"`
	SQLitePath      string `yaml:"sqlite_path" default:"data/ledger.db"`
	LedgerSheet     string `yaml:"ledger_sheet" default:"購入履歴" validate:"required"`
	HoldingsSheet   string `yaml:"holdings_sheet" default:"時価総額" validate:"required"`
	CandidatesSheet string `yaml:"candidates_sheet" default:"今週の銘柄" validate:"required"`
}

// SelectionConfig picks the final-stage policy and its limits.
type SelectionConfig struct {
	Policy       string  `yaml:"policy" default:"low-market-cap-sector" validate:"oneof=low-market-cap-sector concentration-cap"`
	TopN         int     `yaml:"top_n" default:"5" validate:"gte=1"`
	StockCapPct  float64 `yaml:"stock_cap_pct" default:"0.05" validate:"gt=0,lte=1"`
	SectorCapPct float64 `yaml:"sector_cap_pct" default:"0.20" validate:"gt=0,lte=1"`
}

// PurchaseConfig sizes each recorded purchase.
type PurchaseConfig struct {
	BudgetUnit float64 `yaml:"budget_unit" default:"2000" validate:"gt=0"`
}

// SourceConfig controls how index and quote pages are fetched.
type SourceConfig struct {
	Loader        string              `yaml:"loader" default:"http" validate:"oneof=http chrome"`
	QuoteProvider string              `yaml:"quote_provider" default:"nikkei" validate:"oneof=nikkei yahoo"`
	ChromePath    string              `yaml:"chrome_path"`
	Timeout       time.Duration       `yaml:"timeout" default:"10s" validate:"gt=0"`
	Indexes       []model.SourceIndex `yaml:"indexes"`
}

// SnapshotConfig is the candidate table cache.
type SnapshotConfig struct {
	Path   string        `yaml:"path" default:"data/candidates.csv" validate:"required"`
	MaxAge time.Duration `yaml:"max_age" default:"12h" validate:"gte=0"`
}

// ScheduleConfig holds the six-field cron expression of the weekly pick.
type ScheduleConfig struct {
	WeeklyCron string `yaml:"weekly_cron" default:"0 0 8 * * 1" validate:"required"`
}

// TelegramConfig enables the bot when both fields are set.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// DatabaseConfig locates the run history database.
type DatabaseConfig struct {
	HistoryPath string `yaml:"history_path" default:"data/dividend_sentinel.db"`
}

// ReportConfig controls the terminal report.
type ReportConfig struct {
	Terminal bool `yaml:"terminal" default:"true"`
	Pretty   bool `yaml:"pretty"`
	Limit    int  `yaml:"limit" default:"20" validate:"gte=0"`
}

// LogConfig configures pkg/logger.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Pretty bool   `yaml:"pretty" default:"true"`
}

// Config holds all application configuration.
type Config struct {
	Ledger    LedgerConfig    `yaml:"ledger"`
	Selection SelectionConfig `yaml:"selection"`
	Purchase  PurchaseConfig  `yaml:"purchase"`
	Source    SourceConfig    `yaml:"source"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Database  DatabaseConfig  `yaml:"database"`
	Report    ReportConfig    `yaml:"report"`
	Log       LogConfig       `yaml:"log"`
	Proxy     string          `yaml:"proxy"`
}

// ResolvePath returns path, or CONFIG_PATH, or DefaultPath.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if len(cfg.Source.Indexes) == 0 {
		cfg.Source.Indexes = append([]model.SourceIndex(nil), DefaultIndexes...)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"SPREADSHEET_KEY", &cfg.Ledger.SpreadsheetKey},
		{"SERVICE_ACCOUNT_JSON", &cfg.Ledger.CredentialsFile},
		{"LEDGER_BACKEND", &cfg.Ledger.Backend},
		{"SQLITE_PATH", &cfg.Ledger.SQLitePath},
		{"SELECTION_POLICY", &cfg.Selection.Policy},
		{"TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken},
		{"TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID},
		{"HTTPS_PROXY", &cfg.Proxy},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"CRON_WEEKLY", &cfg.Schedule.WeeklyCron},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.dst = v
		}
	}
}

var validate = validator.New()

// CronParser parses the six-field (with seconds) schedule expressions.
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks field constraints and the combinations the backends need.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Ledger.Backend == BackendSheets {
		if c.Ledger.SpreadsheetKey == "" {
			return fmt.Errorf("ledger.spreadsheet_key is required for the sheets backend")
		}
		if c.Ledger.CredentialsFile == "" {
			return fmt.Errorf("ledger.credentials_file is required for the sheets backend")
		}
	}
	if c.Ledger.Backend == BackendSQLite && c.Ledger.SQLitePath == "" {
		return fmt.Errorf("ledger.sqlite_path is required for the sqlite backend")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	for i, idx := range c.Source.Indexes {
		if strings.TrimSpace(idx.ID) == "" {
			return fmt.Errorf("source.indexes[%d].id is required", i)
		}
	}
	if _, err := CronParser.Parse(c.Schedule.WeeklyCron); err != nil {
		return fmt.Errorf("schedule.weekly_cron: %w", err)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// TelegramEnabled reports whether notifications should go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
