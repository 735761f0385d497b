package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"AssetLens/internal/logger"
	"AssetLens/internal/model"
	"AssetLens/internal/portfolio"
)

// SeriesInput is one daily OHLCV table.
type SeriesInput struct {
	ID       string `yaml:"id"`
	Category string `yaml:"category"`
	Path     string `yaml:"path"`
}

// MacroColumn maps a column of the monthly table to an asset.
type MacroColumn struct {
	Column   string `yaml:"column"`
	ID       string `yaml:"id"`
	Category string `yaml:"category"`
}

// Config holds all application configuration.
type Config struct {
	Inputs struct {
		Crypto SeriesInput `yaml:"crypto"`
		Equity SeriesInput `yaml:"equity"`
		Macro  struct {
			Path    string        `yaml:"path"`
			Columns []MacroColumn `yaml:"columns"`
		} `yaml:"macro"`
	} `yaml:"inputs"`
	Analysis struct {
		PeriodsPerYear  int       `yaml:"periods_per_year"`
		RebaseBase      float64   `yaml:"rebase_base"`
		WeightTolerance float64   `yaml:"weight_tolerance"`
		Workers         int       `yaml:"workers"`
		Benchmarks      []string  `yaml:"benchmarks"`
		VolatileAsset   string    `yaml:"volatile_asset"`
		PairWith        []string  `yaml:"pair_with"`
		Splits          []float64 `yaml:"splits"`
	} `yaml:"analysis"`
	Portfolios []model.PortfolioConfig `yaml:"portfolios"`
	Output     struct {
		Dir    string `yaml:"dir"`
		Charts bool   `yaml:"charts"`
		CSV    bool   `yaml:"csv"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Inputs.Crypto.Path, "ASSETLENS_CRYPTO_CSV")
	setString(&c.Inputs.Equity.Path, "ASSETLENS_EQUITY_CSV")
	setString(&c.Inputs.Macro.Path, "ASSETLENS_MACRO_CSV")
	setString(&c.Output.Dir, "ASSETLENS_OUTPUT_DIR")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Schedule.Cron, "CRON_SCHEDULE")
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&c.Proxy, "HTTPS_PROXY")

	if v := os.Getenv("ASSETLENS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ASSETLENS_WORKERS: %w", err)
		}
		c.Analysis.Workers = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	in := &c.Inputs
	if in.Crypto.ID == "" {
		in.Crypto.ID = "BTC"
	}
	if in.Crypto.Category == "" {
		in.Crypto.Category = model.Crypto.String()
	}
	if in.Crypto.Path == "" {
		in.Crypto.Path = "data/btc_daily.csv"
	}
	if in.Equity.ID == "" {
		in.Equity.ID = "SPX"
	}
	if in.Equity.Category == "" {
		in.Equity.Category = model.EquityIndex.String()
	}
	if in.Equity.Path == "" {
		in.Equity.Path = "data/spx_daily.csv"
	}
	if in.Macro.Path == "" {
		in.Macro.Path = "data/macro_monthly.csv"
	}
	if len(in.Macro.Columns) == 0 {
		in.Macro.Columns = []MacroColumn{
			{Column: "Gold", ID: "GOLD", Category: model.Commodity.String()},
			{Column: "CPI", ID: "CPI", Category: model.InflationIndex.String()},
		}
	}

	a := &c.Analysis
	if a.PeriodsPerYear == 0 {
		a.PeriodsPerYear = 12
	}
	if a.RebaseBase == 0 {
		a.RebaseBase = 100
	}
	if a.WeightTolerance == 0 {
		a.WeightTolerance = model.WeightTolerance
	}
	if a.Workers == 0 {
		a.Workers = 4
	}
	if len(a.Benchmarks) == 0 {
		a.Benchmarks = []string{in.Equity.ID, "CPI"}
	}
	if a.VolatileAsset == "" {
		a.VolatileAsset = in.Crypto.ID
	}
	if len(a.PairWith) == 0 {
		a.PairWith = []string{in.Equity.ID, "GOLD"}
	}
	if len(a.Splits) == 0 {
		a.Splits = append([]float64(nil), portfolio.DefaultSplits...)
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "out"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/assetlens.db"
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 0 6 2 * *"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// AssetIDs returns every configured asset id in input order.
func (c *Config) AssetIDs() []string {
	ids := []string{c.Inputs.Crypto.ID, c.Inputs.Equity.ID}
	for _, col := range c.Inputs.Macro.Columns {
		ids = append(ids, col.ID)
	}
	return ids
}

// PortfolioConfigs returns the explicit portfolios followed by the enumerated splits of the
// volatile asset against each pair_with asset.
func (c *Config) PortfolioConfigs() []model.PortfolioConfig {
	out := append([]model.PortfolioConfig(nil), c.Portfolios...)
	for _, other := range c.Analysis.PairWith {
		out = append(out, portfolio.TwoAssetSplits(c.Analysis.VolatileAsset, other, c.Analysis.Splits)...)
	}
	return out
}

// Validate checks that all required fields are set and consistent.
// Portfolio weights are checked per portfolio during analysis, so one bad
// allocation does not stop the others.
func (c *Config) Validate() error {
	known := make(map[string]bool)
	for _, id := range c.AssetIDs() {
		if id == "" {
			return fmt.Errorf("inputs: asset id is required")
		}
		if known[id] {
			return fmt.Errorf("inputs: duplicate asset id %q", id)
		}
		known[id] = true
	}
	for _, s := range []SeriesInput{c.Inputs.Crypto, c.Inputs.Equity} {
		if _, err := model.ParseAssetCategory(s.Category); err != nil {
			return fmt.Errorf("inputs.%s.category: %w", s.ID, err)
		}
	}
	for _, col := range c.Inputs.Macro.Columns {
		if col.Column == "" {
			return fmt.Errorf("inputs.macro.columns: column name for %s is required", col.ID)
		}
		if _, err := model.ParseAssetCategory(col.Category); err != nil {
			return fmt.Errorf("inputs.macro.columns.%s.category: %w", col.ID, err)
		}
	}

	a := c.Analysis
	if a.PeriodsPerYear <= 0 {
		return fmt.Errorf("analysis.periods_per_year must be positive")
	}
	if a.RebaseBase <= 0 {
		return fmt.Errorf("analysis.rebase_base must be positive")
	}
	if a.WeightTolerance <= 0 {
		return fmt.Errorf("analysis.weight_tolerance must be positive")
	}
	if a.Workers <= 0 {
		return fmt.Errorf("analysis.workers must be positive")
	}
	for _, id := range a.Benchmarks {
		if !known[id] {
			return fmt.Errorf("analysis.benchmarks: unknown asset %q", id)
		}
	}
	if len(a.PairWith) > 0 && !known[a.VolatileAsset] {
		return fmt.Errorf("analysis.volatile_asset: unknown asset %q", a.VolatileAsset)
	}
	for _, id := range a.PairWith {
		if !known[id] {
			return fmt.Errorf("analysis.pair_with: unknown asset %q", id)
		}
	}
	for _, s := range a.Splits {
		if s < 0 || s > 1 {
			return fmt.Errorf("analysis.splits: %g outside [0, 1]", s)
		}
	}

	ids := make(map[string]bool)
	for _, p := range c.PortfolioConfigs() {
		if p.ID == "" {
			return fmt.Errorf("portfolios: id is required")
		}
		if ids[p.ID] {
			return fmt.Errorf("portfolios: duplicate id %q", p.ID)
		}
		ids[p.ID] = true
	}

	if _, err := logger.LookupLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether report delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
