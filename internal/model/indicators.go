package model

// IndicatorRow is a PriceBar augmented with the derived indicator columns.
type IndicatorRow struct {
	PriceBar
	PctChange NullFloat `json:"pct_change"`
	EMAFast   NullFloat `json:"ema_fast"`
	EMASlow   NullFloat `json:"ema_slow"`
	RSI       NullFloat `json:"rsi"`
}
