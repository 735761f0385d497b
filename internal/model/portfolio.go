package model

// WeightTolerance is the allowed deviation of a portfolio's weight sum from 1.
const WeightTolerance = 1e-6

// Allocation is one constituent of a portfolio.
type Allocation struct {
	AssetID string  `yaml:"asset"`
	Weight  float64 `yaml:"weight"`
}

// PortfolioConfig is an ordered asset → weight mapping.
// Weights are non-negative and sum to 1 within WeightTolerance.
type PortfolioConfig struct {
	ID          string       `yaml:"id"`
	Allocations []Allocation `yaml:"weights"`
}

// Weight returns the weight of an asset, or 0 if it is not a constituent.
func (c PortfolioConfig) Weight(assetID string) float64 {
	for _, a := range c.Allocations {
		if a.AssetID == assetID {
			return a.Weight
		}
	}
	return 0
}

// AssetIDs returns the constituents in configuration order.
func (c PortfolioConfig) AssetIDs() []string {
	ids := make([]string, len(c.Allocations))
	for i, a := range c.Allocations {
		ids[i] = a.AssetID
	}
	return ids
}

// PortfolioReturnSeries is the weighted combination of constituent returns, keyed by Config.ID.
type PortfolioReturnSeries struct {
	Config PortfolioConfig
	ReturnSeries
}
