// Package calculator computes technical indicators over an ordered price
// series. Everything here is a pure function of its inputs.
package calculator

import (
	"errors"
	"fmt"

	"StockSheet/internal/model"
)

// ErrInvalidConfiguration is returned when a span or window is not positive.
var ErrInvalidConfiguration = errors.New("invalid indicator configuration")

// Config holds the indicator parameters.
type Config struct {
	EMAFastSpan int `yaml:"ema_fast_span"`
	EMASlowSpan int `yaml:"ema_slow_span"`
	RSIWindow   int `yaml:"rsi_window"`
}

// DefaultConfig returns EMA20 / EMA50 / RSI14.
func DefaultConfig() Config {
	return Config{EMAFastSpan: 20, EMASlowSpan: 50, RSIWindow: 14}
}

// Validate checks that every span and window is at least 1.
func (c Config) Validate() error {
	if c.EMAFastSpan < 1 {
		return fmt.Errorf("%w: ema_fast_span must be >= 1, got %d", ErrInvalidConfiguration, c.EMAFastSpan)
	}
	if c.EMASlowSpan < 1 {
		return fmt.Errorf("%w: ema_slow_span must be >= 1, got %d", ErrInvalidConfiguration, c.EMASlowSpan)
	}
	if c.RSIWindow < 1 {
		return fmt.Errorf("%w: rsi_window must be >= 1, got %d", ErrInvalidConfiguration, c.RSIWindow)
	}
	return nil
}

// Compute returns one IndicatorRow per bar, aligned positionally with bars.
// An empty input yields an empty result.
func Compute(bars []model.PriceBar, cfg Config) ([]model.IndicatorRow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	closes := model.Closes(bars)
	pct := PctChange(closes)
	fast := EMA(closes, cfg.EMAFastSpan)
	slow := EMA(closes, cfg.EMASlowSpan)
	rsi := RSI(closes, cfg.RSIWindow)

	rows := make([]model.IndicatorRow, len(bars))
	for i, b := range bars {
		rows[i] = model.IndicatorRow{
			PriceBar:  b,
			PctChange: pct[i],
			EMAFast:   fast[i],
			EMASlow:   slow[i],
			RSI:       rsi[i],
		}
	}
	return rows, nil
}
