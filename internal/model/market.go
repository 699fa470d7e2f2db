package model

import (
	"fmt"
	"sort"
	"time"
)

// Interval is the bar width requested from a market data source.
type Interval string

const (
	IntervalDaily     Interval = "1d"
	IntervalFiveMin   Interval = "5m"
	IntervalOneMinute Interval = "1m"
)

// ParseInterval validates a configured interval string.
func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case IntervalDaily, IntervalFiveMin, IntervalOneMinute:
		return Interval(s), nil
	}
	return "", fmt.Errorf("unsupported interval %q (want 1d, 5m or 1m)", s)
}

// Intraday reports whether bars of this interval carry a time of day.
func (i Interval) Intraday() bool { return i != IntervalDaily }

// TimeLayout is the layout used when a bar timestamp is written out.
func (i Interval) TimeLayout() string {
	if i.Intraday() {
		return "2006-01-02 15:04:05"
	}
	return "2006-01-02"
}

// PriceBar represents a single OHLCV observation. Prices are absent when the
// provider reported no trade for the slot.
type PriceBar struct {
	Time   time.Time `json:"time"`
	Open   NullFloat `json:"open"`
	High   NullFloat `json:"high"`
	Low    NullFloat `json:"low"`
	Close  NullFloat `json:"close"`
	Volume int64     `json:"volume"`
}

// BarRequest describes one symbol's fetch. End is exclusive.
type BarRequest struct {
	Symbol   string
	Start    time.Time
	End      time.Time
	Interval Interval
}

// Normalize sorts bars ascending by time and drops duplicate timestamps,
// keeping the last bar seen for a timestamp. The input slice is not modified.
func Normalize(bars []PriceBar) []PriceBar {
	out := make([]PriceBar, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	n := 0
	for i := range out {
		if n > 0 && out[i].Time.Equal(out[n-1].Time) {
			out[n-1] = out[i]
			continue
		}
		out[n] = out[i]
		n++
	}
	return out[:n]
}

// Closes extracts the close column.
func Closes(bars []PriceBar) []NullFloat {
	closes := make([]NullFloat, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
