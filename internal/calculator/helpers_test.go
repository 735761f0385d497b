package calculator

import (
	"time"

	"AssetLens/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// monthly builds a monthly close-only series starting January 2020.
func monthly(id string, closes ...float64) model.AssetSeries {
	s := model.AssetSeries{ID: id, Category: model.Commodity, Periodicity: model.Monthly}
	for i, c := range closes {
		s.Observations = append(s.Observations, model.Observation{
			Date:  day(2020, time.January+time.Month(i), 1),
			Close: model.Some(c),
		})
	}
	return s
}

// returnSeries builds a return series on consecutive months with a missing first point.
func returnSeries(id string, kind model.ReturnKind, values ...float64) model.ReturnSeries {
	rs := model.ReturnSeries{ID: id, Kind: kind}
	rs.Points = append(rs.Points, model.ReturnPoint{Date: day(2019, time.December, 1)})
	for i, v := range values {
		rs.Points = append(rs.Points, model.ReturnPoint{
			Date:  day(2020, time.January+time.Month(i), 1),
			Value: model.Some(v),
		})
	}
	return rs
}
