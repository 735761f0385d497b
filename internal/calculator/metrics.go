package calculator

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"AssetLens/internal/model"
)

// MonthlyPeriods is the annualization factor for monthly data.
const MonthlyPeriods = 12

// Descriptive holds the distribution statistics of a sample.
type Descriptive struct {
	Count    int
	Mean     float64
	Min      float64
	Max      float64
	Median   float64
	Q1       float64
	Q3       float64
	StdDev   float64 // sample (n-1)
	Variance float64 // sample (n-1)
}

// Describe computes descriptive statistics. At least two values are required for the
// sample standard deviation to exist.
func Describe(values []float64) (Descriptive, error) {
	if len(values) < 2 {
		return Descriptive{}, fmt.Errorf("%w: %d observations, need at least 2", ErrDegenerateSeries, len(values))
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean, std := stat.MeanStdDev(values, nil)
	return Descriptive{
		Count:    len(values),
		Mean:     mean,
		Min:      floats.Min(values),
		Max:      floats.Max(values),
		Median:   quantile(sorted, 0.5),
		Q1:       quantile(sorted, 0.25),
		Q3:       quantile(sorted, 0.75),
		StdDev:   std,
		Variance: stat.Variance(values, nil),
	}, nil
}

// quantile interpolates linearly between the closest ranks at position p*(n-1).
// sorted must be ascending and non-empty.
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// AnnualizedReturn scales a mean period return to a year of periodsPerYear periods.
// Log returns are additive (mean * P); discrete returns compound ((1+mean)^P - 1).
func AnnualizedReturn(mean float64, kind model.ReturnKind, periodsPerYear int) (float64, error) {
	switch kind {
	case model.LogReturn:
		return mean * float64(periodsPerYear), nil
	case model.DiscreteReturn:
		return math.Pow(1+mean, float64(periodsPerYear)) - 1, nil
	}
	return 0, fmt.Errorf("annualized return: unsupported kind %v", kind)
}

// AnnualizedVolatility scales a period standard deviation by sqrt(periodsPerYear).
func AnnualizedVolatility(stdDev float64, periodsPerYear int) float64 {
	return stdDev * math.Sqrt(float64(periodsPerYear))
}

// SharpeRatio is the mean period return over its standard deviation, with a zero
// risk-free rate. A zero standard deviation is an error, not a zero ratio.
func SharpeRatio(values []float64) (float64, error) {
	if len(values) < 2 {
		return 0, fmt.Errorf("%w: sharpe ratio needs at least 2 observations, got %d", ErrDegenerateSeries, len(values))
	}
	mean, std := stat.MeanStdDev(values, nil)
	if constant(values) || std == 0 || math.IsNaN(std) {
		return 0, fmt.Errorf("%w: sharpe ratio undefined for zero standard deviation", ErrDegenerateSeries)
	}
	return mean / std, nil
}

// constant reports whether every value is identical. Rounding can leave a tiny non-zero
// standard deviation for such samples, so the check is done on the values themselves.
func constant(values []float64) bool {
	return len(values) > 0 && floats.Min(values) == floats.Max(values)
}

// Summarize computes the performance summary of a return series over its defined values.
func Summarize(r model.ReturnSeries, periodsPerYear int) (model.PerformanceSummary, error) {
	if periodsPerYear <= 0 {
		return model.PerformanceSummary{}, fmt.Errorf("summarize %s: periods per year must be positive", r.ID)
	}
	values := r.Defined()
	d, err := Describe(values)
	if err != nil {
		return model.PerformanceSummary{}, fmt.Errorf("summarize %s: %w", r.ID, err)
	}
	sharpe, err := SharpeRatio(values)
	if err != nil {
		return model.PerformanceSummary{}, fmt.Errorf("summarize %s: %w", r.ID, err)
	}
	annRet, err := AnnualizedReturn(d.Mean, r.Kind, periodsPerYear)
	if err != nil {
		return model.PerformanceSummary{}, fmt.Errorf("summarize %s: %w", r.ID, err)
	}
	return model.PerformanceSummary{
		ID:           r.ID,
		Kind:         r.Kind,
		Observations: d.Count,
		Metrics: map[model.Metric]float64{
			model.MetricMean:                 d.Mean,
			model.MetricMin:                  d.Min,
			model.MetricMax:                  d.Max,
			model.MetricMedian:               d.Median,
			model.MetricQ1:                   d.Q1,
			model.MetricQ3:                   d.Q3,
			model.MetricStdDev:               d.StdDev,
			model.MetricVariance:             d.Variance,
			model.MetricAnnualizedReturn:     annRet,
			model.MetricAnnualizedVolatility: AnnualizedVolatility(d.StdDev, periodsPerYear),
			model.MetricSharpeRatio:          sharpe,
		},
	}, nil
}
