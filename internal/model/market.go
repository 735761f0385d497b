package model

import (
	"fmt"
	"strings"
	"time"
)

// AssetCategory is the closed set of series kinds handled by the analysis.
type AssetCategory int

const (
	Crypto AssetCategory = iota + 1
	EquityIndex
	Commodity
	InflationIndex
)

// Categories lists every category in display order.
func Categories() []AssetCategory {
	return []AssetCategory{Crypto, EquityIndex, Commodity, InflationIndex}
}

func (c AssetCategory) String() string {
	switch c {
	case Crypto:
		return "crypto"
	case EquityIndex:
		return "equity_index"
	case Commodity:
		return "commodity"
	case InflationIndex:
		return "inflation_index"
	}
	return fmt.Sprintf("AssetCategory(%d)", int(c))
}

// Valid reports whether c is one of the declared categories.
func (c AssetCategory) Valid() bool {
	switch c {
	case Crypto, EquityIndex, Commodity, InflationIndex:
		return true
	}
	return false
}

// ParseAssetCategory maps a category name to its value. Unknown names are an error.
func ParseAssetCategory(s string) (AssetCategory, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories() {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown asset category %q", s)
}

// Periodicity is the sampling frequency of a series.
type Periodicity int

const (
	Daily Periodicity = iota + 1
	Monthly
)

func (p Periodicity) String() string {
	switch p {
	case Daily:
		return "daily"
	case Monthly:
		return "monthly"
	}
	return fmt.Sprintf("Periodicity(%d)", int(p))
}

// Observation is one dated row of a series. Fields a source does not provide stay Missing.
type Observation struct {
	Date    time.Time
	Open    Value
	High    Value
	Low     Value
	Close   Value
	Volume  Value
	Rebased Value // derived by the aligner
}

// Price returns the closing value used for return computation.
func (o Observation) Price() Value { return o.Close }

// AssetSeries is an identified, dated sequence of observations.
// Dates are strictly increasing and unique once validated.
type AssetSeries struct {
	ID           string
	Category     AssetCategory
	Periodicity  Periodicity
	Observations []Observation
}

// Len returns the number of observations.
func (s AssetSeries) Len() int { return len(s.Observations) }

// Dates returns the observation dates in order.
func (s AssetSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Date
	}
	return out
}

// Clone returns a copy that shares no observation storage with s.
func (s AssetSeries) Clone() AssetSeries {
	c := s
	c.Observations = make([]Observation, len(s.Observations))
	copy(c.Observations, s.Observations)
	return c
}
