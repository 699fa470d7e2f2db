package calculator

import "StockSheet/internal/model"

// PctChange returns (c[i]-c[i-1])/c[i-1]*100. The first entry is undefined, as
// is any entry whose own or previous close is missing or whose previous close is zero.
func PctChange(closes []model.NullFloat) []model.NullFloat {
	out := make([]model.NullFloat, len(closes))
	for i := 1; i < len(closes); i++ {
		prev, okPrev := closes[i-1].Get()
		cur, okCur := closes[i].Get()
		if !okPrev || !okCur || prev == 0 {
			continue
		}
		out[i] = model.Float((cur - prev) / prev * 100)
	}
	return out
}
