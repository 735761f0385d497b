package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssetLens/internal/model"
)

func TestDescribe(t *testing.T) {
	d, err := Describe([]float64{4, 1, 3, 2})
	require.NoError(t, err)

	assert.Equal(t, 4, d.Count)
	assert.InDelta(t, 2.5, d.Mean, 1e-12)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 4.0, d.Max)
	assert.InDelta(t, 2.5, d.Median, 1e-12)
	assert.InDelta(t, 1.75, d.Q1, 1e-12)
	assert.InDelta(t, 3.25, d.Q3, 1e-12)
	assert.InDelta(t, 5.0/3.0, d.Variance, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), d.StdDev, 1e-12)
}

func TestDescribe_TooFew(t *testing.T) {
	for _, values := range [][]float64{nil, {0.1}} {
		_, err := Describe(values)
		assert.ErrorIs(t, err, ErrDegenerateSeries)
	}
}

func TestQuantile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{0.25, 20},
		{0.5, 30},
		{0.6, 34},
		{1, 50},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, quantile(sorted, tt.p), 1e-12, "p=%v", tt.p)
	}
}

func TestAnnualizedReturn(t *testing.T) {
	tests := []struct {
		name string
		mean float64
		kind model.ReturnKind
		want float64
	}{
		{"log is additive", 0.01, model.LogReturn, 0.12},
		{"discrete compounds", 0.01, model.DiscreteReturn, math.Pow(1.01, 12) - 1},
		{"zero", 0, model.DiscreteReturn, 0},
		{"negative log", -0.02, model.LogReturn, -0.24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AnnualizedReturn(tt.mean, tt.kind, MonthlyPeriods)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	_, err := AnnualizedReturn(0.01, model.ReturnKind(9), MonthlyPeriods)
	assert.Error(t, err)
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.InDelta(t, 0.05*math.Sqrt(12), AnnualizedVolatility(0.05, MonthlyPeriods), 1e-12)
	assert.Equal(t, 0.0, AnnualizedVolatility(0, MonthlyPeriods))
}

func TestSharpeRatio(t *testing.T) {
	got, err := SharpeRatio([]float64{0.01, 0.03})
	require.NoError(t, err)
	// mean 0.02, sample std sqrt(0.0002)
	assert.InDelta(t, 0.02/math.Sqrt(0.0002), got, 1e-9)
}

func TestSharpeRatio_ConstantSeriesIsDegenerate(t *testing.T) {
	for _, values := range [][]float64{
		{0.02, 0.02, 0.02, 0.02},
		{0.1, 0.1, 0.1},
		{0, 0},
		{0.05},
	} {
		v, err := SharpeRatio(values)
		assert.ErrorIs(t, err, ErrDegenerateSeries, "values %v", values)
		assert.Zero(t, v)
	}
}

func TestSummarize(t *testing.T) {
	rs := returnSeries("BTC", model.LogReturn, 0.10, -0.05, 0.20, 0.00, 0.05)

	s, err := Summarize(rs, MonthlyPeriods)
	require.NoError(t, err)

	assert.Equal(t, "BTC", s.ID)
	assert.Equal(t, model.LogReturn, s.Kind)
	assert.Equal(t, 5, s.Observations, "undefined first point is skipped, zero return is kept")
	for _, m := range model.MetricOrder {
		_, ok := s.Get(m)
		assert.True(t, ok, "metric %s", m)
	}

	mean, _ := s.Get(model.MetricMean)
	assert.InDelta(t, 0.06, mean, 1e-12)
	ann, _ := s.Get(model.MetricAnnualizedReturn)
	assert.InDelta(t, 0.72, ann, 1e-12)
	std, _ := s.Get(model.MetricStdDev)
	vol, _ := s.Get(model.MetricAnnualizedVolatility)
	assert.InDelta(t, std*math.Sqrt(12), vol, 1e-12)
	sharpe, _ := s.Get(model.MetricSharpeRatio)
	assert.InDelta(t, mean/std, sharpe, 1e-12)
	median, _ := s.Get(model.MetricMedian)
	assert.InDelta(t, 0.05, median, 1e-12)
}

func TestSummarize_DiscreteAnnualization(t *testing.T) {
	rs := returnSeries("P", model.DiscreteReturn, 0.01, 0.03)
	s, err := Summarize(rs, MonthlyPeriods)
	require.NoError(t, err)
	ann, _ := s.Get(model.MetricAnnualizedReturn)
	assert.InDelta(t, math.Pow(1.02, 12)-1, ann, 1e-12)
}

func TestSummarize_Degenerate(t *testing.T) {
	_, err := Summarize(returnSeries("FLAT", model.LogReturn, 0.01, 0.01, 0.01), MonthlyPeriods)
	assert.ErrorIs(t, err, ErrDegenerateSeries)

	_, err = Summarize(returnSeries("SHORT", model.LogReturn, 0.01), MonthlyPeriods)
	assert.ErrorIs(t, err, ErrDegenerateSeries)

	_, err = Summarize(returnSeries("X", model.LogReturn, 0.01, 0.02), 0)
	assert.Error(t, err)
}
