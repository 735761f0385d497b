package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"AssetLens/internal/collector"
	"AssetLens/internal/config"
	"AssetLens/internal/logger"
	"AssetLens/internal/model"
	"AssetLens/internal/notifier"
	"AssetLens/internal/pipeline"
	"AssetLens/internal/recorder"
	"AssetLens/internal/scheduler"
)

// commonFlags are shared by every command that runs the batch.
type commonFlags struct {
	configPath string
	logLevel   string
}

func (c *commonFlags) register(f *flag.FlagSet) {
	def := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	f.StringVar(&c.configPath, "config", def, "path to the YAML configuration")
	f.StringVar(&c.logLevel, "log-level", "", "overrides log.level (debug, info, warn, error)")
}

// app is the wired batch: runner plus the resources to release on exit.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	runner *scheduler.Runner
	tg     *notifier.TelegramNotifier
	rec    recorder.Recorder
}

func (a *app) Close() {
	if err := a.rec.Close(); err != nil {
		a.log.Error().Err(err).Msg("close recorder")
	}
}

func newApp(c *commonFlags) (*app, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)

	src, err := newSource(log, cfg)
	if err != nil {
		return nil, err
	}

	an := pipeline.NewAnalyzer(log, pipeline.Options{
		PeriodsPerYear:  cfg.Analysis.PeriodsPerYear,
		RebaseBase:      cfg.Analysis.RebaseBase,
		WeightTolerance: cfg.Analysis.WeightTolerance,
		Workers:         cfg.Analysis.Workers,
		Benchmarks:      cfg.Analysis.Benchmarks,
		Portfolios:      cfg.PortfolioConfigs(),
	})

	rec := newRecorder(log, cfg)
	runner := scheduler.NewRunner(log, src, an, rec)
	if cfg.Output.Charts {
		runner.ChartDir = filepath.Join(cfg.Output.Dir, "charts")
	}

	a := &app{cfg: cfg, log: log, runner: runner, rec: rec}
	if cfg.TelegramEnabled() {
		a.tg = notifier.NewTelegramNotifier(log, cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		runner.Notifier = a.tg
	}
	return a, nil
}

func newSource(log zerolog.Logger, cfg *config.Config) (*collector.CSVSource, error) {
	var daily []collector.DailyFile
	for _, in := range []config.SeriesInput{cfg.Inputs.Crypto, cfg.Inputs.Equity} {
		cat, err := model.ParseAssetCategory(in.Category)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", in.ID, err)
		}
		daily = append(daily, collector.DailyFile{ID: in.ID, Category: cat, Path: in.Path})
	}

	var macro *collector.MacroFile
	if cfg.Inputs.Macro.Path != "" {
		macro = &collector.MacroFile{Path: cfg.Inputs.Macro.Path}
		for _, col := range cfg.Inputs.Macro.Columns {
			cat, err := model.ParseAssetCategory(col.Category)
			if err != nil {
				return nil, fmt.Errorf("macro column %s: %w", col.Column, err)
			}
			macro.Columns = append(macro.Columns, collector.MacroColumn{Column: col.Column, ID: col.ID, Category: cat})
		}
	}
	return collector.NewCSVSource(log, daily, macro), nil
}

// newRecorder combines the configured sinks. A sink that cannot be opened is logged and skipped.
func newRecorder(log zerolog.Logger, cfg *config.Config) recorder.Recorder {
	var sinks recorder.Multi
	if cfg.Database.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			log.Warn().Err(err).Msg("create database dir")
		}
		sr, err := recorder.NewSQLiteRecorder(log, cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, skipping")
		} else {
			sinks = append(sinks, sr)
		}
	}
	if cfg.Output.CSV {
		cr, err := recorder.NewCSVRecorder(log, cfg.Output.Dir)
		if err != nil {
			log.Warn().Err(err).Msg("init csv recorder failed, skipping")
		} else {
			sinks = append(sinks, cr)
		}
	}
	if len(sinks) == 0 {
		return recorder.NewNoopRecorder()
	}
	return sinks
}

// exitErr prints err for the user.
func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.Is(err, pipeline.ErrNoData) {
		fmt.Fprintln(os.Stderr, "Check the input paths in the configuration.")
	}
}
