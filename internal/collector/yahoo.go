package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"StockSheet/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	Client    *resty.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	Location  *time.Location    // overrides the exchange time zone when set
}

// NewYahooFetcher creates a new Yahoo Finance fetcher. baseURL may be empty.
func NewYahooFetcher(baseURL, proxyURL string, loc *time.Location) *YahooFetcher {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &YahooFetcher{
		Client: client,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		Location: loc,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *YahooFetcher) FetchBars(ctx context.Context, req model.BarRequest) ([]model.PriceBar, error) {
	params := map[string]string{
		"period1":        strconv.FormatInt(req.Start.Unix(), 10),
		"period2":        strconv.FormatInt(req.End.Unix(), 10),
		"interval":       string(req.Interval),
		"includePrePost": "false",
	}
	resp, err := f.Client.R().
		SetContext(ctx).
		SetPathParam("symbol", f.yahooSymbol(req.Symbol)).
		SetQueryParams(params).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}

	var chart yahooChart
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		if resp.IsError() {
			return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode(), resp.String())
		}
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("yahoo: status %d", resp.StatusCode())
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return []model.PriceBar{}, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	loc := f.location(result.Meta.ExchangeTimezoneName)
	bars := make([]model.PriceBar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		bar := model.PriceBar{
			Time:  time.Unix(ts, 0).In(loc),
			Open:  model.FloatPtr(at(quote.Open, i)),
			High:  model.FloatPtr(at(quote.High, i)),
			Low:   model.FloatPtr(at(quote.Low, i)),
			Close: model.FloatPtr(at(quote.Close, i)),
		}
		if v := at(quote.Volume, i); v != nil && *v > 0 {
			bar.Volume = int64(*v)
		}
		if !bar.Open.Valid && !bar.High.Valid && !bar.Low.Valid && !bar.Close.Valid {
			continue // no trade in this slot
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func (f *YahooFetcher) location(exchangeTZ string) *time.Location {
	if f.Location != nil {
		return f.Location
	}
	if exchangeTZ != "" {
		loc, err := time.LoadLocation(exchangeTZ)
		if err == nil {
			return loc
		}
		log.Printf("[WARN] unknown exchange time zone %q, using UTC: %v", exchangeTZ, err)
	}
	return time.UTC
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}
