package calculator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"AssetLens/internal/model"
)

// DefaultRebaseBase is the level every rebased series starts at.
const DefaultRebaseBase = 100.0

// SeriesError ties a failure to the series it belongs to.
type SeriesError struct {
	ID  string
	Err error
}

func (e *SeriesError) Error() string { return fmt.Sprintf("series %s: %v", e.ID, e.Err) }
func (e *SeriesError) Unwrap() error { return e.Err }

// ValidateSeries checks that dates are strictly increasing, which also makes them unique.
func ValidateSeries(s model.AssetSeries) error {
	for i := 1; i < len(s.Observations); i++ {
		prev, cur := s.Observations[i-1].Date, s.Observations[i].Date
		if cur.Equal(prev) {
			return fmt.Errorf("%w: duplicate date %s", ErrMalformedSeries, cur.Format(time.DateOnly))
		}
		if cur.Before(prev) {
			return fmt.Errorf("%w: date %s follows %s", ErrMalformedSeries,
				cur.Format(time.DateOnly), prev.Format(time.DateOnly))
		}
	}
	return nil
}

// MonthStart returns the first calendar day of t's month at midnight UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ResampleMonthly samples a validated series at month boundaries.
// A daily series keeps the first trading day of each month; no interpolation or
// carry-forward is done. Every kept observation is re-keyed to the first of its month.
// A monthly series holding two observations in the same month is malformed.
func ResampleMonthly(s model.AssetSeries) (model.AssetSeries, error) {
	if err := ValidateSeries(s); err != nil {
		return model.AssetSeries{}, err
	}
	out := model.AssetSeries{
		ID:           s.ID,
		Category:     s.Category,
		Periodicity:  model.Monthly,
		Observations: make([]model.Observation, 0, len(s.Observations)),
	}
	var last time.Time
	for i, o := range s.Observations {
		month := MonthStart(o.Date)
		if i > 0 && month.Equal(last) {
			switch s.Periodicity {
			case model.Daily:
				continue
			case model.Monthly:
				return model.AssetSeries{}, fmt.Errorf("%w: two observations in %s",
					ErrMalformedSeries, month.Format("2006-01"))
			default:
				return model.AssetSeries{}, fmt.Errorf("%w: unknown periodicity %v", ErrMalformedSeries, s.Periodicity)
			}
		}
		o.Date = month
		out.Observations = append(out.Observations, o)
		last = month
	}
	return out, nil
}

// Rebase returns a copy of s whose Rebased column is base * close / c0, rounded to one
// decimal place, where c0 is the close at the earliest date.
func Rebase(s model.AssetSeries, base float64) (model.AssetSeries, error) {
	if s.Len() == 0 {
		return model.AssetSeries{}, fmt.Errorf("%w: nothing to rebase", ErrDegenerateSeries)
	}
	first := s.Observations[0].Close
	if !first.Valid || first.Float == 0 {
		return model.AssetSeries{}, fmt.Errorf("%w: base value at %s is %s",
			ErrDegenerateSeries, s.Observations[0].Date.Format(time.DateOnly), first)
	}
	c0 := decimal.NewFromFloat(first.Float)
	b := decimal.NewFromFloat(base)

	out := s.Clone()
	for i, o := range out.Observations {
		if !o.Close.Valid {
			out.Observations[i].Rebased = model.Missing
			continue
		}
		v := b.Mul(decimal.NewFromFloat(o.Close.Float)).Div(c0).Round(1)
		out.Observations[i].Rebased = model.Some(v.InexactFloat64())
	}
	return out, nil
}

// Align validates, resamples and rebases every series independently.
// A series that fails is reported in errs and left out of aligned; the others are unaffected.
func Align(base float64, series ...model.AssetSeries) (aligned []model.AssetSeries, errs []*SeriesError) {
	for _, s := range series {
		m, err := ResampleMonthly(s)
		if err == nil {
			m, err = Rebase(m, base)
		}
		if err != nil {
			errs = append(errs, &SeriesError{ID: s.ID, Err: err})
			continue
		}
		aligned = append(aligned, m)
	}
	return aligned, errs
}

// DateUnion merges the dates of several validated series into one sorted, unique axis.
// Not every series has a value at every date of the result.
func DateUnion(series ...model.AssetSeries) []time.Time {
	idx := make([]int, len(series))
	var out []time.Time
	for {
		var next time.Time
		found := false
		for i, s := range series {
			if idx[i] >= s.Len() {
				continue
			}
			d := s.Observations[idx[i]].Date
			if !found || d.Before(next) {
				next, found = d, true
			}
		}
		if !found {
			return out
		}
		for i, s := range series {
			if idx[i] < s.Len() && s.Observations[idx[i]].Date.Equal(next) {
				idx[i]++
			}
		}
		out = append(out, next)
	}
}
