package collector

import (
	"context"

	"StockSheet/internal/model"
)

// Fetcher defines the interface for fetching market data.
// An empty result for a valid request is not an error.
type Fetcher interface {
	FetchBars(ctx context.Context, req model.BarRequest) ([]model.PriceBar, error)
	Name() string
}
