package calculator

import "StockSheet/internal/model"

// RSI computes the relative strength index from simple rolling means of the
// last window gains and losses:
//
//	rs  = avg_gain / avg_loss
//	rsi = 100 - 100/(1+rs)
//
// rsi[i] is undefined for i < window, when any delta in the window is undefined,
// and when the window holds no movement at all. A window with gains and no
// losses yields 100. Callers must pass window >= 1.
func RSI(closes []model.NullFloat, window int) []model.NullFloat {
	out := make([]model.NullFloat, len(closes))
	if len(closes) <= window {
		return out
	}

	gains := make([]model.NullFloat, len(closes))
	losses := make([]model.NullFloat, len(closes))
	for i := 1; i < len(closes); i++ {
		prev, okPrev := closes[i-1].Get()
		cur, okCur := closes[i].Get()
		if !okPrev || !okCur {
			continue
		}
		delta := cur - prev
		gains[i] = model.Float(max(delta, 0))
		losses[i] = model.Float(max(-delta, 0))
	}

	for i := window; i < len(closes); i++ {
		avgGain, ok := rollingMean(gains[i-window+1 : i+1])
		if !ok {
			continue
		}
		avgLoss, _ := rollingMean(losses[i-window+1 : i+1])

		switch {
		case avgLoss == 0 && avgGain == 0:
			// flat window, indeterminate
		case avgLoss == 0:
			out[i] = model.Float(100)
		default:
			rs := avgGain / avgLoss
			out[i] = model.Float(100 - 100/(1+rs))
		}
	}
	return out
}

// rollingMean averages a full window, reporting false if any value is undefined.
func rollingMean(window []model.NullFloat) (float64, bool) {
	sum := 0.0
	for _, v := range window {
		f, ok := v.Get()
		if !ok {
			return 0, false
		}
		sum += f
	}
	return sum / float64(len(window)), true
}
