package calculator

import (
	"fmt"
	"math"
	"time"

	"AssetLens/internal/model"
)

// PriceField selects which column of an aligned series returns are computed from.
type PriceField int

const (
	PriceClose PriceField = iota
	PriceRebased
)

// ComputeReturns derives period returns from consecutive prices of one series.
// The first point has no prior observation and is emitted as Missing, never as zero.
func ComputeReturns(id string, kind model.ReturnKind, dates []time.Time, prices []float64) (model.ReturnSeries, error) {
	if len(dates) != len(prices) {
		return model.ReturnSeries{}, fmt.Errorf("returns %s: %d dates for %d prices", id, len(dates), len(prices))
	}
	values := make([]model.Value, len(prices))
	for i, p := range prices {
		values[i] = model.Some(p)
	}
	return computeReturns(id, kind, model.Daily, dates, values)
}

// SeriesReturns computes returns from an aligned series. A return is defined only between
// an observation and the one directly before it: an absent price leaves both its own return
// and the next one Missing, and so does a skipped month in a monthly series.
func SeriesReturns(s model.AssetSeries, kind model.ReturnKind, field PriceField) (model.ReturnSeries, error) {
	dates := make([]time.Time, s.Len())
	values := make([]model.Value, s.Len())
	for i, o := range s.Observations {
		dates[i] = o.Date
		values[i] = o.Price()
		if field == PriceRebased {
			values[i] = o.Rebased
		}
	}
	return computeReturns(s.ID, kind, s.Periodicity, dates, values)
}

func computeReturns(id string, kind model.ReturnKind, period model.Periodicity, dates []time.Time, prices []model.Value) (model.ReturnSeries, error) {
	if kind != model.LogReturn && kind != model.DiscreteReturn {
		return model.ReturnSeries{}, fmt.Errorf("returns %s: unsupported kind %v", id, kind)
	}
	out := model.ReturnSeries{ID: id, Kind: kind, Points: make([]model.ReturnPoint, len(prices))}
	for i, p := range prices {
		out.Points[i].Date = dates[i]
		if i == 0 {
			continue
		}
		prev := prices[i-1]
		if !prev.Valid || !p.Valid || !adjacent(period, dates[i-1], dates[i]) {
			continue
		}
		if prev.Float <= 0 || (kind == model.LogReturn && p.Float <= 0) {
			return model.ReturnSeries{}, fmt.Errorf("%w: returns %s: non-positive price at %s",
				ErrDegenerateSeries, id, dates[i].Format(time.DateOnly))
		}
		switch kind {
		case model.LogReturn:
			out.Points[i].Value = model.Some(math.Log(p.Float / prev.Float))
		case model.DiscreteReturn:
			out.Points[i].Value = model.Some(p.Float/prev.Float - 1)
		}
	}
	return out, nil
}

// adjacent reports whether cur directly follows prev at the given periodicity.
// Daily series follow the trading calendar, so any two consecutive rows are adjacent.
func adjacent(period model.Periodicity, prev, cur time.Time) bool {
	if period != model.Monthly {
		return true
	}
	return MonthStart(prev).AddDate(0, 1, 0).Equal(MonthStart(cur))
}

// CumulativeGrowth compounds the defined returns of a series into a growth factor,
// which equals P_last / P_first for the prices the returns came from.
func CumulativeGrowth(r model.ReturnSeries) float64 {
	switch r.Kind {
	case model.LogReturn:
		sum := 0.0
		for _, v := range r.Defined() {
			sum += v
		}
		return math.Exp(sum)
	case model.DiscreteReturn:
		g := 1.0
		for _, v := range r.Defined() {
			g *= 1 + v
		}
		return g
	}
	return math.NaN()
}
