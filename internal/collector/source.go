package collector

import (
	"context"

	"AssetLens/internal/model"
)

// Source defines the interface for loading raw asset series.
type Source interface {
	// Load returns every series the source could read. A non-nil error alongside a
	// non-empty result reports the inputs that failed; the returned series are usable.
	Load(ctx context.Context) ([]model.AssetSeries, error)
	Name() string
}
