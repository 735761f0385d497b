package portfolio

import (
	"fmt"
	"time"

	"AssetLens/internal/calculator"
	"AssetLens/internal/model"
)

// Result is the outcome of aggregating one configuration. Exactly one of Series and Err is set.
type Result struct {
	Config model.PortfolioConfig
	Series *model.PortfolioReturnSeries
	Err    error
}

// Aggregate combines constituent returns into the portfolio return series of cfg.
// Only dates present in every constituent are kept. At each such date the value is
// Σ w_i r_i, or Missing when a constituent with non-zero weight is undefined there.
func Aggregate(returns map[string]model.ReturnSeries, cfg model.PortfolioConfig, tol float64) (model.PortfolioReturnSeries, error) {
	if err := ValidateConfig(cfg, tol); err != nil {
		return model.PortfolioReturnSeries{}, err
	}

	lookups := make([]map[time.Time]model.Value, len(cfg.Allocations))
	var kind model.ReturnKind
	for i, a := range cfg.Allocations {
		rs, ok := returns[a.AssetID]
		if !ok {
			return model.PortfolioReturnSeries{}, fmt.Errorf("portfolio %q: %w: no returns for %s",
				cfg.ID, ErrMissingConstituent, a.AssetID)
		}
		if i == 0 {
			kind = rs.Kind
		} else if rs.Kind != kind {
			return model.PortfolioReturnSeries{}, fmt.Errorf("portfolio %q: %w: %s is %v, expected %v",
				cfg.ID, calculator.ErrReturnKindMismatch, a.AssetID, rs.Kind, kind)
		}
		lookups[i] = rs.Lookup()
	}

	first := returns[cfg.Allocations[0].AssetID]
	out := model.PortfolioReturnSeries{
		Config:       cfg,
		ReturnSeries: model.ReturnSeries{ID: cfg.ID, Kind: kind},
	}
	for _, pt := range first.Points {
		value, common := combine(cfg, lookups, pt.Date)
		if !common {
			continue
		}
		out.Points = append(out.Points, model.ReturnPoint{Date: pt.Date, Value: value})
	}
	if len(out.Points) == 0 {
		return model.PortfolioReturnSeries{}, fmt.Errorf("portfolio %q: %w: constituents share no date",
			cfg.ID, calculator.ErrMisalignedSeries)
	}
	return out, nil
}

// combine weighs the constituent values at date d. common is false when a constituent has no
// point at d at all.
func combine(cfg model.PortfolioConfig, lookups []map[time.Time]model.Value, d time.Time) (value model.Value, common bool) {
	sum := 0.0
	defined := true
	for i, a := range cfg.Allocations {
		v, ok := lookups[i][d]
		if !ok {
			return model.Missing, false
		}
		if a.Weight == 0 {
			continue
		}
		if !v.Valid {
			defined = false
			continue
		}
		sum += a.Weight * v.Float
	}
	if !defined {
		return model.Missing, true
	}
	return model.Some(sum), true
}

// AggregateAll aggregates every configuration independently; a failing configuration
// never affects the others.
func AggregateAll(returns map[string]model.ReturnSeries, cfgs []model.PortfolioConfig, tol float64) []Result {
	out := make([]Result, len(cfgs))
	for i, cfg := range cfgs {
		out[i].Config = cfg
		s, err := Aggregate(returns, cfg, tol)
		if err != nil {
			out[i].Err = err
			continue
		}
		out[i].Series = &s
	}
	return out
}
