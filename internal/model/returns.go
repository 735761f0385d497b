package model

import (
	"fmt"
	"time"
)

// ReturnKind selects the return convention. The two kinds are not interchangeable.
type ReturnKind int

const (
	// LogReturn is ln(P_t / P_{t-1}); used for per-asset analysis.
	LogReturn ReturnKind = iota + 1
	// DiscreteReturn is P_t / P_{t-1} - 1; used for portfolio analysis.
	DiscreteReturn
)

func (k ReturnKind) String() string {
	switch k {
	case LogReturn:
		return "log"
	case DiscreteReturn:
		return "discrete"
	}
	return fmt.Sprintf("ReturnKind(%d)", int(k))
}

// ReturnPoint is a dated period return. The first point of a series is always Missing.
type ReturnPoint struct {
	Date  time.Time
	Value Value
}

// ReturnSeries is a dated sequence of period returns for one asset or portfolio.
type ReturnSeries struct {
	ID     string
	Kind   ReturnKind
	Points []ReturnPoint
}

// Len returns the number of points, including undefined ones.
func (r ReturnSeries) Len() int { return len(r.Points) }

// Defined returns the present values in date order, skipping undefined points.
func (r ReturnSeries) Defined() []float64 {
	out := make([]float64, 0, len(r.Points))
	for _, p := range r.Points {
		if p.Value.Valid {
			out = append(out, p.Value.Float)
		}
	}
	return out
}

// Dates returns every point date, defined or not.
func (r ReturnSeries) Dates() []time.Time {
	out := make([]time.Time, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Date
	}
	return out
}

// Lookup indexes the points by date.
func (r ReturnSeries) Lookup() map[time.Time]Value {
	m := make(map[time.Time]Value, len(r.Points))
	for _, p := range r.Points {
		m[p.Date] = p.Value
	}
	return m
}
