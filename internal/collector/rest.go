package collector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"StockSheet/internal/model"
)

// RESTFetcher implements Fetcher against a generic JSON bar endpoint:
//
//	GET {base_url}/api/v1/bars?symbol=&interval=&start=&end=
type RESTFetcher struct {
	Client   *resty.Client
	Location *time.Location
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, loc *time.Location) *RESTFetcher {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RESTFetcher{Client: client, Location: loc}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bar endpoint.
type restBar struct {
	Timestamp int64    `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    int64    `json:"volume"`
}

func (f *RESTFetcher) FetchBars(ctx context.Context, req model.BarRequest) ([]model.PriceBar, error) {
	var raw []restBar
	resp, err := f.Client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":   req.Symbol,
			"interval": string(req.Interval),
			"start":    strconv.FormatInt(req.Start.Unix(), 10),
			"end":      strconv.FormatInt(req.End.Unix(), 10),
		}).
		SetResult(&raw).
		Get("/api/v1/bars")
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	bars := make([]model.PriceBar, len(raw))
	for i, rb := range raw {
		bars[i] = model.PriceBar{
			Time:   time.Unix(rb.Timestamp, 0).In(f.Location),
			Open:   model.FloatPtr(rb.Open),
			High:   model.FloatPtr(rb.High),
			Low:    model.FloatPtr(rb.Low),
			Close:  model.FloatPtr(rb.Close),
			Volume: max(rb.Volume, 0),
		}
	}
	return bars, nil
}
