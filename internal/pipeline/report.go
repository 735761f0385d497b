package pipeline

import (
	"fmt"
	"time"

	"AssetLens/internal/model"
)

// Stage names the step of a run at which an entity failed.
type Stage string

const (
	StageAlign     Stage = "align"
	StageReturns   Stage = "returns"
	StageSummary   Stage = "summary"
	StageCAPM      Stage = "capm"
	StagePortfolio Stage = "portfolio"
)

// Failure is a per-entity error recorded without stopping the run.
type Failure struct {
	Stage  Stage
	Entity string
	Err    error
}

func (f Failure) Error() string { return fmt.Sprintf("%s %s: %v", f.Stage, f.Entity, f.Err) }
func (f Failure) Unwrap() error { return f.Err }

// AssetResult holds everything derived from one input series.
type AssetResult struct {
	Series          model.AssetSeries // monthly, rebased
	LogReturns      model.ReturnSeries
	DiscreteReturns model.ReturnSeries
	Summary         *model.PerformanceSummary // nil when the series is degenerate
	MaxDrawdown     float64                   // of the log-return growth path
	RangePosition   model.Value               // latest close within its trailing range
}

// PortfolioResult holds one aggregated portfolio and its score.
type PortfolioResult struct {
	Series      model.PortfolioReturnSeries
	Summary     *model.PerformanceSummary
	Growth      float64 // cumulative growth factor over the whole series
	MaxDrawdown float64
}

// Report is the immutable outcome of one run.
type Report struct {
	RunAt         time.Time
	Dates         []time.Time // union of the aligned monthly dates
	Assets        []AssetResult
	AssetCAPM     []model.CAPMResult
	Portfolios    []PortfolioResult
	PortfolioCAPM []model.CAPMResult
	Failures      []Failure
}

// Asset returns the result for an asset id.
func (r *Report) Asset(id string) (AssetResult, bool) {
	for _, a := range r.Assets {
		if a.Series.ID == id {
			return a, true
		}
	}
	return AssetResult{}, false
}

// Portfolio returns the result for a portfolio id.
func (r *Report) Portfolio(id string) (PortfolioResult, bool) {
	for _, p := range r.Portfolios {
		if p.Series.ID == id {
			return p, true
		}
	}
	return PortfolioResult{}, false
}

// Summaries returns the asset summaries followed by the portfolio summaries.
func (r *Report) Summaries() []model.PerformanceSummary {
	var out []model.PerformanceSummary
	for _, a := range r.Assets {
		if a.Summary != nil {
			out = append(out, *a.Summary)
		}
	}
	for _, p := range r.Portfolios {
		if p.Summary != nil {
			out = append(out, *p.Summary)
		}
	}
	return out
}

// CAPM returns the asset results followed by the portfolio results.
func (r *Report) CAPM() []model.CAPMResult {
	out := make([]model.CAPMResult, 0, len(r.AssetCAPM)+len(r.PortfolioCAPM))
	out = append(out, r.AssetCAPM...)
	return append(out, r.PortfolioCAPM...)
}

// ReturnSeries returns every return series of the run: log and discrete per asset, then
// each portfolio.
func (r *Report) ReturnSeries() []model.ReturnSeries {
	var out []model.ReturnSeries
	for _, a := range r.Assets {
		out = append(out, a.LogReturns, a.DiscreteReturns)
	}
	for _, p := range r.Portfolios {
		out = append(out, p.Series.ReturnSeries)
	}
	return out
}
