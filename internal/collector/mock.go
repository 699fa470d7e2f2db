package collector

import (
	"context"

	"StockSheet/internal/model"
)

// MockFetcher returns fixed data per symbol for development and testing.
// Symbols with no entry yield an empty result.
type MockFetcher struct {
	Bars map[string][]model.PriceBar
	Errs map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, req model.BarRequest) ([]model.PriceBar, error) {
	if err, ok := m.Errs[req.Symbol]; ok {
		return nil, err
	}
	bars := make([]model.PriceBar, 0, len(m.Bars[req.Symbol]))
	for _, b := range m.Bars[req.Symbol] {
		if b.Time.Before(req.Start) || (!req.End.IsZero() && !b.Time.Before(req.End)) {
			continue
		}
		bars = append(bars, b)
	}
	return bars, nil
}
