package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssetLens/internal/model"
)

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name string
		r    model.ReturnSeries
		want float64
	}{
		{"only gains", returnSeries("A", model.DiscreteReturn, 0.1, 0.2), 0},
		{"empty", returnSeries("A", model.DiscreteReturn), 0},
		{"fall after peak", returnSeries("A", model.DiscreteReturn, 0.5, -0.5, 0.25), -0.5},
		{"two dips keeps the worst", returnSeries("A", model.DiscreteReturn, -0.25, 1, -0.5, 0.5), -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MaxDrawdown(tt.r), 1e-12)
		})
	}
}

func TestMaxDrawdown_LogMatchesDiscrete(t *testing.T) {
	d := returnSeries("A", model.DiscreteReturn, 0.1, -0.2, 0.05, -0.3)
	l := model.ReturnSeries{ID: "A", Kind: model.LogReturn}
	for _, p := range d.Points {
		if p.Value.Valid {
			p.Value = model.Some(math.Log1p(p.Value.Float))
		}
		l.Points = append(l.Points, p)
	}
	assert.InDelta(t, MaxDrawdown(d), MaxDrawdown(l), 1e-12)
}

func TestTrailingRange(t *testing.T) {
	s := monthly("GOLD", 5, 9, 1, 4, 6, 3)
	s.Observations[4].Close = model.Missing

	high, low, last, err := TrailingRange(s, 4)
	require.NoError(t, err)
	assert.Equal(t, 4.0, high)
	assert.Equal(t, 1.0, low)
	assert.Equal(t, 3.0, last)

	high, low, _, err = TrailingRange(s, 100)
	require.NoError(t, err)
	assert.Equal(t, 9.0, high)
	assert.Equal(t, 1.0, low)

	_, _, _, err = TrailingRange(s, 0)
	assert.Error(t, err)

	_, _, _, err = TrailingRange(monthly("EMPTY"), 12)
	assert.ErrorIs(t, err, ErrDegenerateSeries)
}

func TestRangePosition(t *testing.T) {
	tests := []struct {
		name            string
		current, hi, lo float64
		want            float64
		wantErr         bool
	}{
		{"mid", 15, 20, 10, 0.5, false},
		{"at high", 20, 20, 10, 1, false},
		{"below low clamps", 5, 20, 10, 0, false},
		{"flat", 7, 7, 7, 0.5, false},
		{"inverted", 1, 1, 2, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RangePosition(tt.current, tt.hi, tt.lo)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}
