package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssetLens/internal/model"
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
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"BTC", "SPX", "GOLD", "CPI"}, cfg.AssetIDs())
	assert.Equal(t, 12, cfg.Analysis.PeriodsPerYear)
	assert.Equal(t, 100.0, cfg.Analysis.RebaseBase)
	assert.Equal(t, []string{"SPX", "CPI"}, cfg.Analysis.Benchmarks)
	assert.Len(t, cfg.Analysis.Splits, 7)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.TelegramEnabled())

	// seven splits against each of SPX and GOLD
	assert.Len(t, cfg.PortfolioConfigs(), 14)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
inputs:
  crypto: {id: ETH, category: crypto, path: eth.csv}
  equity: {id: NDX, category: equity_index, path: ndx.csv}
  macro:
    path: macro.csv
    columns:
      - {column: "Silver", id: SILVER, category: commodity}
      - {column: "CPI-U", id: CPI, category: inflation_index}
analysis:
  workers: 2
  benchmarks: [NDX]
  volatile_asset: ETH
  pair_with: [SILVER]
  splits: [0, 0.5, 1]
portfolios:
  - id: all-weather
    weights:
      - {asset: NDX, weight: 0.6}
      - {asset: SILVER, weight: 0.3}
      - {asset: ETH, weight: 0.1}
output:
  dir: results
  charts: true
  csv: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"ETH", "NDX", "SILVER", "CPI"}, cfg.AssetIDs())
	assert.Equal(t, "eth.csv", cfg.Inputs.Crypto.Path)
	assert.Equal(t, 2, cfg.Analysis.Workers)
	assert.True(t, cfg.Output.Charts)

	pcs := cfg.PortfolioConfigs()
	require.Len(t, pcs, 4)
	assert.Equal(t, "all-weather", pcs[0].ID)
	assert.Equal(t, 0.3, pcs[0].Weight("SILVER"))
	assert.Equal(t, "ETH 50% / SILVER 50%", pcs[2].ID)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ASSETLENS_CRYPTO_CSV", "/srv/btc.csv")
	t.Setenv("ASSETLENS_OUTPUT_DIR", "/srv/out")
	t.Setenv("SQLITE_PATH", "/srv/a.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ASSETLENS_WORKERS", "8")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(writeConfig(t, "output:\n  dir: ignored\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/srv/btc.csv", cfg.Inputs.Crypto.Path)
	assert.Equal(t, "/srv/out", cfg.Output.Dir)
	assert.Equal(t, "/srv/a.db", cfg.Database.SQLitePath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Analysis.Workers)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeConfig(t, "analysis: [not, a, map]"))
	assert.Error(t, err)

	t.Setenv("ASSETLENS_WORKERS", "many")
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown benchmark", func(c *Config) { c.Analysis.Benchmarks = []string{"DAX"} }},
		{"unknown pair", func(c *Config) { c.Analysis.PairWith = []string{"OIL"} }},
		{"split out of range", func(c *Config) { c.Analysis.Splits = []float64{1.5} }},
		{"bad category", func(c *Config) { c.Inputs.Equity.Category = "bond" }},
		{"duplicate asset", func(c *Config) { c.Inputs.Equity.ID = "BTC" }},
		{"negative workers", func(c *Config) { c.Analysis.Workers = -1 }},
		{"telegram half set", func(c *Config) { c.Telegram.BotToken = "x" }},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"duplicate portfolio id", func(c *Config) {
			c.Portfolios = []model.PortfolioConfig{{ID: "BTC 0% / SPX 100%", Allocations: []model.Allocation{{AssetID: "SPX", Weight: 1}}}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_LeavesWeightsToAnalysis(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Portfolios = []model.PortfolioConfig{{ID: "bad", Allocations: []model.Allocation{
		{AssetID: "BTC", Weight: 0.4}, {AssetID: "SPX", Weight: 0.4},
	}}}

	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.PortfolioConfigs(), 15)
}
