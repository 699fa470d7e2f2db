package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"StockSheet/internal/model"
)

// Collector fetches one symbol's bars for the configured range and interval.
type Collector struct {
	Fetcher  Fetcher
	Start    time.Time
	End      time.Time
	Interval model.Interval
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, start, end time.Time, interval model.Interval) *Collector {
	return &Collector{Fetcher: fetcher, Start: start, End: end, Interval: interval}
}

// Collect returns the symbol's bars sorted ascending with duplicate timestamps removed.
func (c *Collector) Collect(ctx context.Context, symbol string) ([]model.PriceBar, error) {
	bars, err := c.Fetcher.FetchBars(ctx, model.BarRequest{
		Symbol:   symbol,
		Start:    c.Start,
		End:      c.End,
		Interval: c.Interval,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s bars for %s: %w", c.Interval, symbol, err)
	}
	bars = model.Normalize(bars)
	log.Printf("[INFO] fetched %d bars for %s from %s", len(bars), symbol, c.Fetcher.Name())
	return bars, nil
}
