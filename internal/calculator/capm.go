package calculator

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"AssetLens/internal/model"
)

// Paired holds the values of two return series on the dates where both are defined.
type Paired struct {
	Dates []time.Time
	A, B  []float64
}

// Intersect pairs two return series over their common defined dates, in a's order.
func Intersect(a, b model.ReturnSeries) Paired {
	lookup := b.Lookup()
	var p Paired
	for _, pt := range a.Points {
		if !pt.Value.Valid {
			continue
		}
		bv, ok := lookup[pt.Date]
		if !ok || !bv.Valid {
			continue
		}
		p.Dates = append(p.Dates, pt.Date)
		p.A = append(p.A, pt.Value.Float)
		p.B = append(p.B, bv.Float)
	}
	return p
}

// RegressCAPM fits asset = alpha + beta * benchmark by ordinary least squares over the
// common dates of the two series and computes the information ratio of the excess return.
func RegressCAPM(asset, benchmark model.ReturnSeries) (model.CAPMResult, error) {
	if asset.Kind != benchmark.Kind {
		return model.CAPMResult{}, fmt.Errorf("capm %s~%s: %w: %v vs %v",
			asset.ID, benchmark.ID, ErrReturnKindMismatch, asset.Kind, benchmark.Kind)
	}
	p := Intersect(asset, benchmark)
	switch {
	case len(p.Dates) == 0:
		return model.CAPMResult{}, fmt.Errorf("capm %s~%s: %w: no common dates", asset.ID, benchmark.ID, ErrMisalignedSeries)
	case len(p.Dates) < 2:
		return model.CAPMResult{}, fmt.Errorf("capm %s~%s: %w: 1 common observation, need at least 2",
			asset.ID, benchmark.ID, ErrDegenerateSeries)
	}
	if constant(p.B) || stat.Variance(p.B, nil) == 0 {
		return model.CAPMResult{}, fmt.Errorf("capm %s~%s: %w: benchmark variance is zero",
			asset.ID, benchmark.ID, ErrDegenerateSeries)
	}

	alpha, beta := stat.LinearRegression(p.B, p.A, nil, false)

	ir, err := informationRatio(p.A, p.B)
	if err != nil {
		return model.CAPMResult{}, fmt.Errorf("capm %s~%s: %w", asset.ID, benchmark.ID, err)
	}
	return model.CAPMResult{
		AssetID:          asset.ID,
		BenchmarkID:      benchmark.ID,
		Kind:             asset.Kind,
		Alpha:            alpha,
		Beta:             beta,
		InformationRatio: ir,
		Observations:     len(p.Dates),
		From:             p.Dates[0],
		To:               p.Dates[len(p.Dates)-1],
	}, nil
}

// informationRatio is mean(a-b) / std(a-b). Identical series track perfectly and score 0.
func informationRatio(a, b []float64) (float64, error) {
	excess := make([]float64, len(a))
	for i := range a {
		excess[i] = a[i] - b[i]
	}
	if constant(excess) {
		if excess[0] == 0 {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: information ratio undefined for zero tracking error", ErrDegenerateSeries)
	}
	mean, std := stat.MeanStdDev(excess, nil)
	return mean / std, nil
}
