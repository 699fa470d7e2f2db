package calculator

import "StockSheet/internal/model"

// EMA computes the recursive exponential moving average with alpha = 2/(span+1):
//
//	ema[0] = close[0]
//	ema[i] = alpha*close[i] + (1-alpha)*ema[i-1]
//
// The state is the previous EMA only. A missing close leaves that position
// undefined and the state untouched; leading missing closes delay the seed.
// Callers must pass span >= 1.
func EMA(closes []model.NullFloat, span int) []model.NullFloat {
	out := make([]model.NullFloat, len(closes))
	alpha := 2.0 / float64(span+1)

	var prev float64
	seeded := false
	for i, c := range closes {
		price, ok := c.Get()
		if !ok {
			continue
		}
		if !seeded {
			prev, seeded = price, true
		} else {
			prev = alpha*price + (1-alpha)*prev
		}
		out[i] = model.Float(prev)
	}
	return out
}
