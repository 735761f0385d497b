package portfolio

import (
	"errors"
	"fmt"
	"math"

	"AssetLens/internal/model"
)

var (
	// ErrInvalidWeights rejects a configuration whose weights are negative or do not sum to 1.
	ErrInvalidWeights = errors.New("invalid portfolio weights")
	// ErrMissingConstituent fails a configuration referencing an asset without returns.
	ErrMissingConstituent = errors.New("missing portfolio constituent")
)

// DefaultSplits are the shares of the first asset in the enumerated two-asset portfolios.
var DefaultSplits = []float64{0, 0.05, 0.10, 0.25, 0.50, 0.75, 1}

// ValidateConfig checks a configuration's weights against tolerance tol.
func ValidateConfig(cfg model.PortfolioConfig, tol float64) error {
	if len(cfg.Allocations) == 0 {
		return fmt.Errorf("portfolio %q: %w: no constituents", cfg.ID, ErrInvalidWeights)
	}
	seen := make(map[string]bool, len(cfg.Allocations))
	sum := 0.0
	for _, a := range cfg.Allocations {
		if seen[a.AssetID] {
			return fmt.Errorf("portfolio %q: %w: asset %s listed twice", cfg.ID, ErrInvalidWeights, a.AssetID)
		}
		seen[a.AssetID] = true
		if a.Weight < 0 || math.IsNaN(a.Weight) {
			return fmt.Errorf("portfolio %q: %w: weight %g on %s", cfg.ID, ErrInvalidWeights, a.Weight, a.AssetID)
		}
		sum += a.Weight
	}
	if math.Abs(sum-1) > tol {
		return fmt.Errorf("portfolio %q: %w: weights sum to %g", cfg.ID, ErrInvalidWeights, sum)
	}
	return nil
}

// SplitID names a two-asset portfolio, e.g. "BTC 10% / SPX 90%".
func SplitID(a, b string, share float64) string {
	pa := math.Round(share * 100)
	return fmt.Sprintf("%s %g%% / %s %g%%", a, pa, b, 100-pa)
}

// TwoAssetSplits enumerates the fixed weight splits between assets a and b.
// Each split gives share s to a and 1-s to b.
func TwoAssetSplits(a, b string, splits []float64) []model.PortfolioConfig {
	out := make([]model.PortfolioConfig, 0, len(splits))
	for _, s := range splits {
		out = append(out, model.PortfolioConfig{
			ID: SplitID(a, b, s),
			Allocations: []model.Allocation{
				{AssetID: a, Weight: s},
				{AssetID: b, Weight: 1 - s},
			},
		})
	}
	return out
}
