package calculator

import (
	"fmt"
	"math"

	"AssetLens/internal/model"
)

// TrailingMonths is the lookback used for the trailing price range.
const TrailingMonths = 12

// MaxDrawdown returns the largest peak-to-trough fall of the growth path implied by r,
// as a non-positive fraction (-0.25 is a 25% fall). Undefined points leave the path flat.
func MaxDrawdown(r model.ReturnSeries) float64 {
	level, peak, worst := 1.0, 1.0, 0.0
	for _, v := range r.Defined() {
		switch r.Kind {
		case model.LogReturn:
			level *= math.Exp(v)
		default:
			level *= 1 + v
		}
		if level > peak {
			peak = level
		}
		if dd := level/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

// TrailingRange scans the closes of the last window observations of s and returns
// the high, the low and the latest close. Missing closes are skipped.
func TrailingRange(s model.AssetSeries, window int) (high, low, last float64, err error) {
	if window <= 0 {
		return 0, 0, 0, fmt.Errorf("window must be positive, got %d", window)
	}
	n := len(s.Observations)
	start := n - window
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	seen := false
	for i := start; i < n; i++ {
		c := s.Observations[i].Close
		if !c.Valid {
			continue
		}
		seen = true
		last = c.Float
		high = math.Max(high, c.Float)
		low = math.Min(low, c.Float)
	}
	if !seen {
		return 0, 0, 0, fmt.Errorf("%w: %s has no close in the last %d periods", ErrDegenerateSeries, s.ID, window)
	}
	return high, low, last, nil
}

// RangePosition returns where current sits within [low, high], clamped to [0, 1].
// A flat range yields 0.5.
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, fmt.Errorf("high %.4f below low %.4f", high, low)
	}
	pos := (current - low) / (high - low)
	return math.Min(1, math.Max(0, pos)), nil
}
