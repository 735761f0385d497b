package calculator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssetLens/internal/model"
)

func TestValidateSeries(t *testing.T) {
	tests := []struct {
		name  string
		dates []time.Time
		ok    bool
	}{
		{"empty", nil, true},
		{"increasing", []time.Time{day(2020, 1, 2), day(2020, 1, 3)}, true},
		{"duplicate", []time.Time{day(2020, 1, 2), day(2020, 1, 2)}, false},
		{"decreasing", []time.Time{day(2020, 1, 3), day(2020, 1, 2)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := model.AssetSeries{ID: "X", Periodicity: model.Daily}
			for _, d := range tt.dates {
				s.Observations = append(s.Observations, model.Observation{Date: d, Close: model.Some(1)})
			}
			err := ValidateSeries(s)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrMalformedSeries)
			}
		})
	}
}

func TestResampleMonthly_DailyKeepsFirstTradingDay(t *testing.T) {
	s := model.AssetSeries{ID: "BTC", Category: model.Crypto, Periodicity: model.Daily}
	add := func(d time.Time, c float64) {
		s.Observations = append(s.Observations, model.Observation{
			Date: d, Open: model.Some(c - 1), High: model.Some(c + 1), Low: model.Some(c - 2),
			Close: model.Some(c), Volume: model.Some(1000),
		})
	}
	add(day(2020, 1, 2), 10) // first trading day of January
	add(day(2020, 1, 3), 11)
	add(day(2020, 1, 31), 12)
	add(day(2020, 2, 3), 20) // February 1st and 2nd are a weekend
	add(day(2020, 2, 4), 21)
	add(day(2020, 4, 1), 40) // March has no data at all

	m, err := ResampleMonthly(s)
	require.NoError(t, err)

	assert.Equal(t, model.Monthly, m.Periodicity)
	require.Equal(t, 3, m.Len())
	assert.Equal(t, []time.Time{day(2020, 1, 1), day(2020, 2, 1), day(2020, 4, 1)}, m.Dates())
	assert.Equal(t, model.Some(10), m.Observations[0].Close)
	assert.Equal(t, model.Some(20), m.Observations[1].Close)
	assert.Equal(t, model.Some(1000), m.Observations[1].Volume)
	assert.Equal(t, model.Some(40), m.Observations[2].Close)

	// input untouched
	assert.Equal(t, day(2020, 1, 2), s.Observations[0].Date)
}

func TestResampleMonthly_MonthlyDuplicateMonth(t *testing.T) {
	s := model.AssetSeries{ID: "CPI", Category: model.InflationIndex, Periodicity: model.Monthly}
	s.Observations = []model.Observation{
		{Date: day(2020, 1, 1), Close: model.Some(250)},
		{Date: day(2020, 1, 15), Close: model.Some(251)},
	}
	_, err := ResampleMonthly(s)
	assert.ErrorIs(t, err, ErrMalformedSeries)
}

func TestResampleMonthly_SingleValueFieldsStayAbsent(t *testing.T) {
	m, err := ResampleMonthly(monthly("GOLD", 1500, 1600))
	require.NoError(t, err)
	for _, o := range m.Observations {
		assert.False(t, o.Open.Valid)
		assert.False(t, o.High.Valid)
		assert.False(t, o.Low.Valid)
		assert.False(t, o.Volume.Valid)
		assert.True(t, o.Close.Valid)
	}
}

func TestRebase(t *testing.T) {
	s, err := Rebase(monthly("GOLD", 1500, 1650, 1432.1, 3000), DefaultRebaseBase)
	require.NoError(t, err)

	want := []float64{100, 110, 95.5, 200}
	for i, o := range s.Observations {
		assert.True(t, o.Rebased.Valid)
		assert.InDelta(t, want[i], o.Rebased.Float, 1e-9, "observation %d", i)
	}
}

func TestRebase_MissingValueStaysMissing(t *testing.T) {
	in := monthly("GOLD", 50, 60, 70)
	in.Observations[1].Close = model.Missing

	s, err := Rebase(in, DefaultRebaseBase)
	require.NoError(t, err)
	assert.False(t, s.Observations[1].Rebased.Valid)
	assert.InDelta(t, 140, s.Observations[2].Rebased.Float, 1e-9)
}

func TestRebase_DegenerateBase(t *testing.T) {
	zero := monthly("GOLD", 0, 10)
	_, err := Rebase(zero, DefaultRebaseBase)
	assert.ErrorIs(t, err, ErrDegenerateSeries)

	missing := monthly("GOLD", 5, 10)
	missing.Observations[0].Close = model.Missing
	_, err = Rebase(missing, DefaultRebaseBase)
	assert.ErrorIs(t, err, ErrDegenerateSeries)

	_, err = Rebase(model.AssetSeries{ID: "EMPTY"}, DefaultRebaseBase)
	assert.ErrorIs(t, err, ErrDegenerateSeries)
}

func TestRebase_Idempotent(t *testing.T) {
	first, err := Rebase(monthly("SPX", 3230.78, 3225.52, 2584.59, 2912.43), DefaultRebaseBase)
	require.NoError(t, err)

	again := first.Clone()
	for i := range again.Observations {
		again.Observations[i].Close = first.Observations[i].Rebased
	}
	second, err := Rebase(again, DefaultRebaseBase)
	require.NoError(t, err)

	for i := range first.Observations {
		assert.InDelta(t, first.Observations[i].Rebased.Float, second.Observations[i].Rebased.Float, 0.05)
	}
}

func TestAlign_IsolatesFailures(t *testing.T) {
	bad := monthly("BAD", 1, 2)
	bad.Observations[1].Date = bad.Observations[0].Date

	aligned, errs := Align(DefaultRebaseBase, monthly("GOLD", 10, 20), bad, monthly("CPI", 250, 255))

	require.Len(t, aligned, 2)
	assert.Equal(t, "GOLD", aligned[0].ID)
	assert.Equal(t, "CPI", aligned[1].ID)
	require.Len(t, errs, 1)
	assert.Equal(t, "BAD", errs[0].ID)
	assert.True(t, errors.Is(errs[0], ErrMalformedSeries))
}

func TestDateUnion(t *testing.T) {
	a := monthly("A", 1, 2, 3) // Jan, Feb, Mar
	b := monthly("B", 1)       // Jan
	b.Observations = append(b.Observations, model.Observation{Date: day(2020, 5, 1), Close: model.Some(2)})

	got := DateUnion(a, b)
	assert.Equal(t, []time.Time{day(2020, 1, 1), day(2020, 2, 1), day(2020, 3, 1), day(2020, 5, 1)}, got)
	assert.Empty(t, DateUnion())
}
