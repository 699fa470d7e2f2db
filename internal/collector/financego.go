package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"StockSheet/internal/model"
)

// FinanceGoFetcher implements Fetcher with the piquette/finance-go chart client.
type FinanceGoFetcher struct {
	Location *time.Location
}

func NewFinanceGoFetcher(loc *time.Location) *FinanceGoFetcher {
	return &FinanceGoFetcher{Location: loc}
}

func (f *FinanceGoFetcher) Name() string { return "financego" }

func (f *FinanceGoFetcher) FetchBars(ctx context.Context, req model.BarRequest) ([]model.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start, end := req.Start, req.End
	iter := chart.Get(&chart.Params{
		Symbol:   req.Symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.Interval(req.Interval),
	})

	loc := f.Location
	bars := make([]model.PriceBar, 0)
	for iter.Next() {
		if loc == nil {
			loc = time.UTC
			if tz, err := time.LoadLocation(iter.Meta().ExchangeTimezoneName); err == nil {
				loc = tz
			}
		}
		b := iter.Bar()
		bar := model.PriceBar{
			Time:   time.Unix(int64(b.Timestamp), 0).In(loc),
			Open:   price(b.Open),
			High:   price(b.High),
			Low:    price(b.Low),
			Close:  price(b.Close),
			Volume: int64(max(b.Volume, 0)),
		}
		if !bar.Open.Valid && !bar.High.Valid && !bar.Low.Valid && !bar.Close.Valid {
			continue
		}
		bars = append(bars, bar)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("finance-go chart %s: %w", req.Symbol, err)
	}
	return bars, nil
}

// price maps finance-go's zero-filled decimals onto NullFloat; a traded price is never zero.
func price(d decimal.Decimal) model.NullFloat {
	if d.IsZero() {
		return model.Null
	}
	v, _ := d.Float64()
	return model.Float(v)
}
