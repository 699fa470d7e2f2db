package calculator

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"StockSheet/internal/model"
)

func bars(closes ...float64) []model.PriceBar {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		cl := model.Float(c) // NaN marks a missing close
		out[i] = model.PriceBar{
			Time:   start.AddDate(0, 0, i),
			Open:   cl,
			High:   cl,
			Low:    cl,
			Close:  cl,
			Volume: 1000,
		}
	}
	return out
}

func nulls(vals ...float64) []model.NullFloat {
	out := make([]model.NullFloat, len(vals))
	for i, v := range vals {
		out[i] = model.Float(v)
	}
	return out
}

var missing = math.NaN()

func assertClose(t *testing.T, label string, got model.NullFloat, want, tol float64) {
	t.Helper()
	v, ok := got.Get()
	if !ok {
		t.Errorf("%s: got undefined, want %.6f", label, want)
		return
	}
	if math.Abs(v-want) > tol {
		t.Errorf("%s: got %.9f, want %.9f (diff=%.3g)", label, v, want, math.Abs(v-want))
	}
}

func assertUndefined(t *testing.T, label string, got model.NullFloat) {
	t.Helper()
	if got.Valid {
		t.Errorf("%s: got %.6f, want undefined", label, got.Float64)
	}
}

func TestCompute_LengthAndAlignment(t *testing.T) {
	in := bars(10, 11, 12, 11, 13, 14, 15, 13, 12, 14, 16, 17, 18, 17, 19, 20)
	rows, err := Compute(in, DefaultConfig())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(rows) != len(in) {
		t.Fatalf("expected %d rows, got %d", len(in), len(rows))
	}
	for i := range rows {
		if !rows[i].Time.Equal(in[i].Time) || rows[i].Close != in[i].Close || rows[i].Volume != in[i].Volume {
			t.Errorf("row %d not aligned with input bar", i)
		}
	}
	assertUndefined(t, "pct_change[0]", rows[0].PctChange)
	assertClose(t, "ema_fast[0]", rows[0].EMAFast, 10, 1e-12)
	assertClose(t, "ema_slow[0]", rows[0].EMASlow, 10, 1e-12)
	for i := 0; i < 14; i++ {
		assertUndefined(t, "rsi before window", rows[i].RSI)
	}
	if !rows[14].RSI.Valid {
		t.Error("rsi[14] should be defined")
	}
}

func TestCompute_EmptyInput(t *testing.T) {
	rows, err := Compute(nil, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", rows)
	}
}

func TestCompute_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"rsi window zero", Config{EMAFastSpan: 20, EMASlowSpan: 50, RSIWindow: 0}},
		{"fast span negative", Config{EMAFastSpan: -1, EMASlowSpan: 50, RSIWindow: 14}},
		{"slow span zero", Config{EMAFastSpan: 20, EMASlowSpan: 0, RSIWindow: 14}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Compute(bars(1, 2, 3), tt.cfg)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
			if rows != nil {
				t.Errorf("expected no rows on error, got %d", len(rows))
			}
		})
	}
	// Also rejected for an empty series.
	if _, err := Compute(nil, Config{EMAFastSpan: 1, EMASlowSpan: 1, RSIWindow: 0}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for empty input, got %v", err)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	in := bars(44, 44.5, 43.5, 44.5, 45, missing, 46, 45.5, 47, 46, 48, 47.5, 49, 48, 50, 51, 49)
	cfg := Config{EMAFastSpan: 3, EMASlowSpan: 5, RSIWindow: 4}
	a, err := Compute(in, cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compute(in, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("two Compute calls on the same input differ")
	}
}

func TestPctChange(t *testing.T) {
	got := PctChange(nulls(100, 110, 99, 99))
	assertUndefined(t, "pct[0]", got[0])
	assertClose(t, "pct[1]", got[1], 10, 1e-9)
	assertClose(t, "pct[2]", got[2], -10, 1e-9)
	// Zero is a real outcome, not "undefined".
	assertClose(t, "pct[3]", got[3], 0, 0)
}

func TestPctChange_ZeroOrMissingPrevious(t *testing.T) {
	closes := []model.NullFloat{model.Float(0), model.Float(5), model.Null, model.Float(6), model.Float(9)}
	got := PctChange(closes)
	assertUndefined(t, "after zero close", got[1])
	assertUndefined(t, "missing close", got[2])
	assertUndefined(t, "after missing close", got[3])
	assertClose(t, "recovered", got[4], 50, 1e-9)
}

func TestEMA_WorkedExample(t *testing.T) {
	// span 2: alpha = 2/3
	// ema[0] = 10
	// ema[1] = 2/3*12 + 1/3*10      = 11.333...
	// ema[2] = 2/3*11 + 1/3*11.333. = 11.111...
	got := EMA(nulls(10, 12, 11), 2)
	assertClose(t, "ema[0]", got[0], 10, 1e-12)
	assertClose(t, "ema[1]", got[1], 34.0/3.0, 1e-9)
	assertClose(t, "ema[2]", got[2], 100.0/9.0, 1e-9)
}

func TestEMA_SpanOneTracksClose(t *testing.T) {
	closes := nulls(3, 7, 1, 9)
	got := EMA(closes, 1)
	for i := range closes {
		assertClose(t, "ema span 1", got[i], closes[i].Float64, 0)
	}
}

func TestEMA_MatchesSequentialRecurrence(t *testing.T) {
	closes := make([]model.NullFloat, 500)
	for i := range closes {
		closes[i] = model.Float(100 + 10*math.Sin(float64(i)/7) + float64(i%13)/3)
	}
	span := 50
	got := EMA(closes, span)

	alpha := 2.0 / float64(span+1)
	want := closes[0].Float64
	for i := range closes {
		if i > 0 {
			want = alpha*closes[i].Float64 + (1-alpha)*want
		}
		if got[i].Float64 != want {
			t.Fatalf("ema[%d] = %v, want %v", i, got[i].Float64, want)
		}
	}
}

func TestEMA_MissingCloses(t *testing.T) {
	closes := []model.NullFloat{model.Null, model.Float(10), model.Null, model.Float(12), model.Float(13)}
	got := EMA(closes, 2)
	assertUndefined(t, "leading missing", got[0])
	assertClose(t, "seed", got[1], 10, 0)
	assertUndefined(t, "gap", got[2])
	// State carries over the gap: 2/3*12 + 1/3*10
	assertClose(t, "after gap", got[3], 34.0/3.0, 1e-9)
	assertClose(t, "next", got[4], 2.0/3.0*13+1.0/3.0*34.0/3.0, 1e-9)
}

func TestRSI_WorkedExample(t *testing.T) {
	// closes 44, 44.5, 43.5, 44.5 ; window 2
	// deltas          0.5, -1,   1
	// gains           0.5,  0,   1
	// losses          0,    1,   0
	// i=2: avg_gain=(0.5+0)/2=0.25 avg_loss=(0+1)/2=0.5 rs=0.5 rsi=33.33
	// i=3: avg_gain=(0+1)/2=0.5    avg_loss=(1+0)/2=0.5 rs=1   rsi=50
	got := RSI(nulls(44, 44.5, 43.5, 44.5), 2)
	assertUndefined(t, "rsi[0]", got[0])
	assertUndefined(t, "rsi[1]", got[1])
	assertClose(t, "rsi[2]", got[2], 100.0/3.0, 1e-9)
	assertClose(t, "rsi[3]", got[3], 50, 1e-9)
}

func TestRSI_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		closes []model.NullFloat
		window int
		want   []float64 // NaN means undefined
	}{
		{"only gains", nulls(1, 2, 3, 4), 2, []float64{missing, missing, 100, 100}},
		{"only losses", nulls(4, 3, 2, 1), 2, []float64{missing, missing, 0, 0}},
		{"flat run", nulls(5, 5, 5, 5), 2, []float64{missing, missing, missing, missing}},
		{"window one", nulls(1, 2, 1), 1, []float64{missing, 100, 0}},
		{"shorter than window", nulls(1, 2), 14, []float64{missing, missing}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RSI(tt.closes, tt.window)
			if len(got) != len(tt.want) {
				t.Fatalf("len %d, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if math.IsNaN(w) {
					assertUndefined(t, tt.name, got[i])
				} else {
					assertClose(t, tt.name, got[i], w, 1e-9)
				}
			}
		})
	}
}

func TestRSI_RangeOnNoisySeries(t *testing.T) {
	closes := make([]model.NullFloat, 300)
	for i := range closes {
		closes[i] = model.Float(50 + 5*math.Sin(float64(i)/3) + math.Cos(float64(i)*1.7))
	}
	for i, v := range RSI(closes, 14) {
		if i < 14 {
			assertUndefined(t, "warmup", v)
			continue
		}
		f, ok := v.Get()
		if !ok || f < 0 || f > 100 {
			t.Fatalf("rsi[%d] = %v (valid=%v), want value in [0,100]", i, f, ok)
		}
	}
}

func TestRSI_MissingDeltaInWindow(t *testing.T) {
	closes := []model.NullFloat{model.Float(1), model.Float(2), model.Null, model.Float(3), model.Float(4), model.Float(3)}
	got := RSI(closes, 2)
	assertUndefined(t, "rsi[2] missing close", got[2])
	assertUndefined(t, "rsi[3] window holds missing delta", got[3])
	assertUndefined(t, "rsi[4] window holds missing delta", got[4])
	// i=5: deltas 1, -1 -> 50
	assertClose(t, "rsi[5]", got[5], 50, 1e-9)
}
