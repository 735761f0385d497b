package collector

import (
	"context"
	"math"
	"time"

	"AssetLens/internal/model"
)

// MemorySource returns controllable fixed series for development and testing.
type MemorySource struct {
	Series []model.AssetSeries
	Err    error
}

func (m *MemorySource) Name() string { return "memory" }

// Load returns copies of the held series, so callers may modify them freely.
func (m *MemorySource) Load(ctx context.Context) ([]model.AssetSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.AssetSeries, len(m.Series))
	for i, s := range m.Series {
		out[i] = s.Clone()
	}
	return out, m.Err
}

// SyntheticDaily generates a deterministic weekday-only OHLCV series starting at start.
// The close follows base * exp(drift*i + amplitude*sin(i/7)), so it stays positive and
// is never constant for a non-zero amplitude.
func SyntheticDaily(id string, category model.AssetCategory, start time.Time, days int, base, drift, amplitude float64) model.AssetSeries {
	s := model.AssetSeries{ID: id, Category: category, Periodicity: model.Daily}
	d := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for i := 0; len(s.Observations) < days; d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		p := base * math.Exp(drift*float64(i)+amplitude*math.Sin(float64(i)/7))
		s.Observations = append(s.Observations, model.Observation{
			Date:   d,
			Open:   model.Some(p * 0.999),
			High:   model.Some(p * 1.005),
			Low:    model.Some(p * 0.995),
			Close:  model.Some(p),
			Volume: model.Some(1000000),
		})
		i++
	}
	return s
}

// SyntheticMonthly generates a deterministic close-only series on the first of each month.
func SyntheticMonthly(id string, category model.AssetCategory, start time.Time, months int, base, drift, amplitude float64) model.AssetSeries {
	s := model.AssetSeries{ID: id, Category: category, Periodicity: model.Monthly}
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < months; i++ {
		p := base * math.Exp(drift*float64(i)+amplitude*math.Sin(float64(i)/3))
		s.Observations = append(s.Observations, model.Observation{
			Date:  first.AddDate(0, i, 0),
			Close: model.Some(p),
		})
	}
	return s
}
