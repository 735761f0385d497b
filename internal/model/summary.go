package model

import "time"

// Metric names a scalar in a PerformanceSummary.
type Metric string

const (
	MetricMean                 Metric = "mean"
	MetricMin                  Metric = "min"
	MetricMax                  Metric = "max"
	MetricMedian               Metric = "median"
	MetricQ1                   Metric = "q1"
	MetricQ3                   Metric = "q3"
	MetricStdDev               Metric = "std"
	MetricVariance             Metric = "variance"
	MetricAnnualizedReturn     Metric = "annualized_return"
	MetricAnnualizedVolatility Metric = "annualized_volatility"
	MetricSharpeRatio          Metric = "sharpe_ratio"
)

// MetricOrder is the stable order used when printing or storing summaries.
var MetricOrder = []Metric{
	MetricMean, MetricMin, MetricMax, MetricMedian, MetricQ1, MetricQ3,
	MetricStdDev, MetricVariance,
	MetricAnnualizedReturn, MetricAnnualizedVolatility, MetricSharpeRatio,
}

// PerformanceSummary holds the descriptive and risk-adjusted statistics of one return series.
type PerformanceSummary struct {
	ID           string
	Kind         ReturnKind
	Observations int
	Metrics      map[Metric]float64
}

// Get returns a metric and whether it was computed.
func (s PerformanceSummary) Get(m Metric) (float64, bool) {
	v, ok := s.Metrics[m]
	return v, ok
}

// CAPMResult is a single-factor regression of an asset on a benchmark,
// valid over the common dates [From, To].
type CAPMResult struct {
	AssetID          string
	BenchmarkID      string
	Kind             ReturnKind
	Alpha            float64
	Beta             float64
	InformationRatio float64
	Observations     int
	From             time.Time
	To               time.Time
}
