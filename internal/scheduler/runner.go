package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"AssetLens/internal/chart"
	"AssetLens/internal/collector"
	"AssetLens/internal/notifier"
	"AssetLens/internal/pipeline"
	"AssetLens/internal/recorder"
)

// Runner executes one complete batch: load, analyze, record, chart and notify.
type Runner struct {
	Source   collector.Source
	Analyzer *pipeline.Analyzer
	Recorder recorder.Recorder
	ChartDir string            // empty disables charts
	Notifier notifier.Notifier // nil disables delivery
	TopN     int               // portfolios listed in the chat digest

	log  zerolog.Logger
	mu   sync.Mutex
	last *pipeline.Report
}

// NewRunner creates a Runner. rec may be nil.
func NewRunner(log zerolog.Logger, src collector.Source, an *pipeline.Analyzer, rec recorder.Recorder) *Runner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Runner{
		Source:   src,
		Analyzer: an,
		Recorder: rec,
		TopN:     5,
		log:      log.With().Str("component", "runner").Logger(),
	}
}

// Run executes the batch once. Input files that fail to load are logged and the
// remaining series are analyzed. Recording, chart and delivery failures are logged
// and do not fail the run.
func (r *Runner) Run(ctx context.Context) (*pipeline.Report, error) {
	series, err := r.Source.Load(ctx)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		r.log.Warn().Err(err).Str("source", r.Source.Name()).Msg("some inputs could not be loaded")
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("load %s: %w", r.Source.Name(), errors.Join(pipeline.ErrNoData, err))
	}

	rep, err := r.Analyzer.Run(ctx, series)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	if err := r.Recorder.RecordRun(ctx, rep); err != nil {
		r.log.Error().Err(err).Msg("record run")
	}

	var charts []string
	if r.ChartDir != "" {
		charts, err = chart.WriteAll(r.ChartDir, rep)
		if err != nil {
			r.log.Error().Err(err).Msg("render charts")
		}
		for _, p := range charts {
			r.log.Info().Str("path", p).Msg("chart written")
		}
	}

	if r.Notifier != nil {
		r.deliver(ctx, rep, charts)
	}

	r.mu.Lock()
	r.last = rep
	r.mu.Unlock()
	return rep, nil
}

// Last returns the report of the most recent successful run, or nil.
func (r *Runner) Last() *pipeline.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Runner) deliver(ctx context.Context, rep *pipeline.Report, charts []string) {
	digest := notifier.FormatTelegramDigest(rep, r.TopN)
	if err := r.Notifier.SendWithRetry(ctx, digest, maxSendRetries); err != nil {
		r.log.Error().Err(err).Msg("send digest")
		return
	}
	for _, path := range charts {
		png, err := os.ReadFile(path)
		if err != nil {
			r.log.Error().Err(err).Str("path", path).Msg("read chart")
			continue
		}
		name := filepath.Base(path)
		if err := r.Notifier.SendPhotoWithRetry(ctx, name, png, name, maxSendRetries); err != nil {
			r.log.Error().Err(err).Str("chart", name).Msg("send chart")
		}
	}
}

const maxSendRetries = 3
