package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssetLens/internal/model"
)

func TestComputeReturns(t *testing.T) {
	dates := []time.Time{day(2020, 1, 1), day(2020, 2, 1), day(2020, 3, 1)}
	prices := []float64{100, 110, 121}

	tests := []struct {
		name string
		kind model.ReturnKind
		want []float64
	}{
		{"log", model.LogReturn, []float64{math.Log(1.1), math.Log(1.1)}},
		{"discrete", model.DiscreteReturn, []float64{0.10, 0.10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := ComputeReturns("X", tt.kind, dates, prices)
			require.NoError(t, err)
			require.Equal(t, 3, rs.Len())
			assert.Equal(t, tt.kind, rs.Kind)

			assert.False(t, rs.Points[0].Value.Valid, "first return must be undefined")
			assert.Equal(t, dates[0], rs.Points[0].Date)
			for i, w := range tt.want {
				assert.True(t, rs.Points[i+1].Value.Valid)
				assert.InDelta(t, w, rs.Points[i+1].Value.Float, 1e-12)
			}
		})
	}
	assert.InDelta(t, 0.09531, math.Log(1.1), 1e-5)
}

func TestComputeReturns_ZeroReturnIsKept(t *testing.T) {
	dates := []time.Time{day(2020, 1, 1), day(2020, 2, 1), day(2020, 3, 1), day(2020, 4, 1)}
	rs, err := ComputeReturns("FLAT", model.DiscreteReturn, dates, []float64{100, 100, 105, 105})
	require.NoError(t, err)

	assert.Equal(t, model.Some(0), rs.Points[1].Value)
	assert.Equal(t, model.Some(0), rs.Points[3].Value)
	assert.Len(t, rs.Defined(), 3)
}

func TestComputeReturns_Errors(t *testing.T) {
	dates := []time.Time{day(2020, 1, 1), day(2020, 2, 1)}

	_, err := ComputeReturns("X", model.LogReturn, dates, []float64{0, 1})
	assert.ErrorIs(t, err, ErrDegenerateSeries)

	_, err = ComputeReturns("X", model.LogReturn, dates, []float64{1, -1})
	assert.ErrorIs(t, err, ErrDegenerateSeries)

	_, err = ComputeReturns("X", model.DiscreteReturn, dates, []float64{1})
	assert.Error(t, err)

	_, err = ComputeReturns("X", model.ReturnKind(0), dates, []float64{1, 2})
	assert.Error(t, err)
}

func TestComputeReturns_SinglePrice(t *testing.T) {
	rs, err := ComputeReturns("X", model.LogReturn, []time.Time{day(2020, 1, 1)}, []float64{5})
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	assert.False(t, rs.Points[0].Value.Valid)
	assert.Empty(t, rs.Defined())
}

func TestLogReturnsReconstructPriceRatio(t *testing.T) {
	prices := []float64{100, 97.5, 130.2, 88.1, 88.1, 240, 199.99}
	dates := make([]time.Time, len(prices))
	for i := range dates {
		dates[i] = day(2018, time.January+time.Month(i), 1)
	}

	logs, err := ComputeReturns("X", model.LogReturn, dates, prices)
	require.NoError(t, err)
	assert.InDelta(t, prices[len(prices)-1]/prices[0], CumulativeGrowth(logs), 1e-12)

	discrete, err := ComputeReturns("X", model.DiscreteReturn, dates, prices)
	require.NoError(t, err)
	assert.InDelta(t, prices[len(prices)-1]/prices[0], CumulativeGrowth(discrete), 1e-12)
}

func TestSeriesReturns_Fields(t *testing.T) {
	s, err := Rebase(monthly("GOLD", 200, 220, 242), DefaultRebaseBase)
	require.NoError(t, err)

	byClose, err := SeriesReturns(s, model.DiscreteReturn, PriceClose)
	require.NoError(t, err)
	require.Equal(t, 3, byClose.Len())
	assert.InDelta(t, 0.10, byClose.Points[1].Value.Float, 1e-12)

	s.Observations[1].Close = model.Some(200)
	byRebased, err := SeriesReturns(s, model.DiscreteReturn, PriceRebased)
	require.NoError(t, err)
	require.Equal(t, 3, byRebased.Len())
	assert.InDelta(t, 0.10, byRebased.Points[1].Value.Float, 1e-12)
	assert.Equal(t, "GOLD", byRebased.ID)
}

func TestSeriesReturns_MissingPriceBreaksTheChain(t *testing.T) {
	s := monthly("GOLD", 100, 110, 0, 121)
	s.Observations[2].Close = model.Missing

	rs, err := SeriesReturns(s, model.DiscreteReturn, PriceClose)
	require.NoError(t, err)
	require.Equal(t, 4, rs.Len())
	assert.Equal(t, s.Dates(), rs.Dates(), "the gap month keeps its date")

	want := []model.Value{model.Missing, model.Some(0.1), model.Missing, model.Missing}
	for i, w := range want {
		assert.Equal(t, w.Valid, rs.Points[i].Value.Valid, "point %d", i)
		assert.InDelta(t, w.Float, rs.Points[i].Value.Float, 1e-12, "point %d", i)
	}
	assert.Len(t, rs.Defined(), 1)
}

func TestSeriesReturns_SkippedMonthIsNotAReturn(t *testing.T) {
	s := monthly("CPI", 100, 110, 121, 133.1)
	s.Observations = append(s.Observations[:2:2], s.Observations[3])

	rs, err := SeriesReturns(s, model.LogReturn, PriceClose)
	require.NoError(t, err)
	require.Equal(t, 3, rs.Len())
	assert.True(t, rs.Points[1].Value.Valid)
	assert.False(t, rs.Points[2].Value.Valid, "February to April spans two periods")
}

func TestSeriesReturns_DailyRowsAreAdjacent(t *testing.T) {
	s := model.AssetSeries{ID: "SPX", Periodicity: model.Daily, Observations: []model.Observation{
		{Date: day(2020, 1, 3), Close: model.Some(100)},
		{Date: day(2020, 1, 6), Close: model.Some(102)},
	}}
	rs, err := SeriesReturns(s, model.DiscreteReturn, PriceClose)
	require.NoError(t, err)
	assert.InDelta(t, 0.02, rs.Points[1].Value.Float, 1e-12)
}
