package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"AssetLens/internal/calculator"
	"AssetLens/internal/model"
	"AssetLens/internal/portfolio"
)

// ErrNoData is returned when no input series survives alignment.
var ErrNoData = errors.New("no usable series")

// Options control one run.
type Options struct {
	PeriodsPerYear  int
	RebaseBase      float64
	WeightTolerance float64
	Workers         int
	Benchmarks      []string
	Portfolios      []model.PortfolioConfig
}

// DefaultOptions are monthly periods, base 100 and the default weight tolerance.
func DefaultOptions() Options {
	return Options{
		PeriodsPerYear:  calculator.MonthlyPeriods,
		RebaseBase:      calculator.DefaultRebaseBase,
		WeightTolerance: model.WeightTolerance,
		Workers:         4,
	}
}

// Analyzer runs the batch: align, returns, metrics, CAPM and portfolio aggregation.
type Analyzer struct {
	opts Options
	log  zerolog.Logger
	now  func() time.Time
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(log zerolog.Logger, opts Options) *Analyzer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Analyzer{
		opts: opts,
		log:  log.With().Str("component", "pipeline").Logger(),
		now:  time.Now,
	}
}

// Run analyzes the given raw series. Per-entity failures are collected in the report;
// Run itself fails only when ctx is done or nothing could be aligned.
func (a *Analyzer) Run(ctx context.Context, series []model.AssetSeries) (*Report, error) {
	start := a.now()
	rep := &Report{RunAt: start.UTC()}

	assets, fails := a.alignAndScore(ctx, series)
	rep.Failures = append(rep.Failures, fails...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return rep, fmt.Errorf("%w: %d series given, none aligned", ErrNoData, len(series))
	}
	rep.Assets = assets

	aligned := make([]model.AssetSeries, len(assets))
	for i, r := range assets {
		aligned[i] = r.Series
	}
	rep.Dates = calculator.DateUnion(aligned...)

	logs := make(map[string]model.ReturnSeries, len(assets))
	discrete := make(map[string]model.ReturnSeries, len(assets))
	for _, r := range assets {
		logs[r.Series.ID] = r.LogReturns
		discrete[r.Series.ID] = r.DiscreteReturns
	}

	var assetSubjects []model.ReturnSeries
	for _, r := range assets {
		assetSubjects = append(assetSubjects, r.LogReturns)
	}
	capm, fails := a.regressAll(ctx, assetSubjects, logs)
	rep.AssetCAPM = capm
	rep.Failures = append(rep.Failures, fails...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ports, fails := a.aggregate(ctx, discrete)
	rep.Portfolios = ports
	rep.Failures = append(rep.Failures, fails...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var portSubjects []model.ReturnSeries
	for _, p := range ports {
		portSubjects = append(portSubjects, p.Series.ReturnSeries)
	}
	capm, fails = a.regressAll(ctx, portSubjects, discrete)
	rep.PortfolioCAPM = capm
	rep.Failures = append(rep.Failures, fails...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, f := range rep.Failures {
		a.log.Warn().Str("stage", string(f.Stage)).Str("entity", f.Entity).Err(f.Err).Msg("entity skipped")
	}
	a.log.Info().
		Int("assets", len(rep.Assets)).
		Int("portfolios", len(rep.Portfolios)).
		Int("capm", len(rep.AssetCAPM)+len(rep.PortfolioCAPM)).
		Int("failures", len(rep.Failures)).
		Dur("took", a.now().Sub(start)).
		Msg("analysis complete")
	return rep, nil
}

// group returns an errgroup bounded by the configured worker count. Workers never return
// errors, so one failing entity never cancels the others.
func (a *Analyzer) group(ctx context.Context) (*errgroup.Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	return g, gctx
}

type assetSlot struct {
	result *AssetResult
	fails  []Failure
}

func (a *Analyzer) alignAndScore(ctx context.Context, series []model.AssetSeries) ([]AssetResult, []Failure) {
	slots := make([]assetSlot, len(series))
	g, gctx := a.group(ctx)
	for i, s := range series {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			slots[i] = a.processAsset(s)
			return nil
		})
	}
	_ = g.Wait()

	var out []AssetResult
	var fails []Failure
	for _, sl := range slots {
		fails = append(fails, sl.fails...)
		if sl.result != nil {
			out = append(out, *sl.result)
		}
	}
	return out, fails
}

func (a *Analyzer) processAsset(s model.AssetSeries) assetSlot {
	aligned, errs := calculator.Align(a.opts.RebaseBase, s)
	if len(errs) > 0 {
		return assetSlot{fails: []Failure{{Stage: StageAlign, Entity: s.ID, Err: errs[0].Err}}}
	}
	m := aligned[0]

	logs, err := calculator.SeriesReturns(m, model.LogReturn, calculator.PriceClose)
	if err != nil {
		return assetSlot{fails: []Failure{{Stage: StageReturns, Entity: s.ID, Err: err}}}
	}
	discrete, err := calculator.SeriesReturns(m, model.DiscreteReturn, calculator.PriceClose)
	if err != nil {
		return assetSlot{fails: []Failure{{Stage: StageReturns, Entity: s.ID, Err: err}}}
	}

	slot := assetSlot{result: &AssetResult{
		Series:          m,
		LogReturns:      logs,
		DiscreteReturns: discrete,
		MaxDrawdown:     calculator.MaxDrawdown(logs),
	}}
	if hi, lo, last, err := calculator.TrailingRange(m, calculator.TrailingMonths); err == nil {
		if pos, err := calculator.RangePosition(last, hi, lo); err == nil {
			slot.result.RangePosition = model.Some(pos)
		}
	}
	sum, err := calculator.Summarize(logs, a.opts.PeriodsPerYear)
	if err != nil {
		slot.fails = append(slot.fails, Failure{Stage: StageSummary, Entity: s.ID, Err: err})
	} else {
		slot.result.Summary = &sum
	}
	a.log.Debug().Str("asset", s.ID).Int("months", m.Len()).Msg("asset aligned")
	return slot
}

type capmSlot struct {
	result *model.CAPMResult
	fail   *Failure
}

// regressAll regresses every subject on every configured benchmark other than itself.
// Benchmark returns are looked up in benchmarks, which must share the subjects' kind.
func (a *Analyzer) regressAll(ctx context.Context, subjects []model.ReturnSeries, benchmarks map[string]model.ReturnSeries) ([]model.CAPMResult, []Failure) {
	type pair struct{ subject, bench model.ReturnSeries }
	var pairs []pair
	for _, s := range subjects {
		for _, id := range a.opts.Benchmarks {
			if id == s.ID {
				continue
			}
			b, ok := benchmarks[id]
			if !ok {
				continue
			}
			pairs = append(pairs, pair{s, b})
		}
	}

	slots := make([]capmSlot, len(pairs))
	g, gctx := a.group(ctx)
	for i, p := range pairs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := calculator.RegressCAPM(p.subject, p.bench)
			if err != nil {
				slots[i].fail = &Failure{Stage: StageCAPM, Entity: p.subject.ID + " vs " + p.bench.ID, Err: err}
				return nil
			}
			slots[i].result = &res
			return nil
		})
	}
	_ = g.Wait()

	var out []model.CAPMResult
	var fails []Failure
	for _, sl := range slots {
		if sl.fail != nil {
			fails = append(fails, *sl.fail)
		}
		if sl.result != nil {
			out = append(out, *sl.result)
		}
	}
	return out, fails
}

type portfolioSlot struct {
	result *PortfolioResult
	fails  []Failure
}

func (a *Analyzer) aggregate(ctx context.Context, discrete map[string]model.ReturnSeries) ([]PortfolioResult, []Failure) {
	slots := make([]portfolioSlot, len(a.opts.Portfolios))
	g, gctx := a.group(ctx)
	for i, cfg := range a.opts.Portfolios {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res := portfolio.AggregateAll(discrete, []model.PortfolioConfig{cfg}, a.opts.WeightTolerance)[0]
			if res.Err != nil {
				slots[i].fails = []Failure{{Stage: StagePortfolio, Entity: cfg.ID, Err: res.Err}}
				return nil
			}
			pr := &PortfolioResult{
				Series:      *res.Series,
				Growth:      calculator.CumulativeGrowth(res.Series.ReturnSeries),
				MaxDrawdown: calculator.MaxDrawdown(res.Series.ReturnSeries),
			}
			sum, err := calculator.Summarize(res.Series.ReturnSeries, a.opts.PeriodsPerYear)
			if err != nil {
				slots[i].fails = []Failure{{Stage: StageSummary, Entity: cfg.ID, Err: err}}
			} else {
				pr.Summary = &sum
			}
			slots[i].result = pr
			return nil
		})
	}
	_ = g.Wait()

	var out []PortfolioResult
	var fails []Failure
	for _, sl := range slots {
		fails = append(fails, sl.fails...)
		if sl.result != nil {
			out = append(out, *sl.result)
		}
	}
	return out, fails
}
