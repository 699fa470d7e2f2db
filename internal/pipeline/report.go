package pipeline

import (
	"time"

	"StockSheet/internal/recorder"
)

// SymbolResult is the outcome of one symbol in a run.
type SymbolResult struct {
	Symbol string
	Status string // recorder.StatusWritten, StatusSkipped or StatusFailed
	Rows   int
	Err    error
}

// Report lists every configured symbol's outcome in configured order.
type Report struct {
	Started  time.Time
	Finished time.Time
	Results  []SymbolResult
}

func (r *Report) Written() []string { return r.symbols(recorder.StatusWritten) }
func (r *Report) Skipped() []string { return r.symbols(recorder.StatusSkipped) }

// Failed returns the failed results with their errors.
func (r *Report) Failed() []SymbolResult {
	var out []SymbolResult
	for _, res := range r.Results {
		if res.Status == recorder.StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// OK reports whether no symbol failed.
func (r *Report) OK() bool { return len(r.Failed()) == 0 }

func (r *Report) symbols(status string) []string {
	var out []string
	for _, res := range r.Results {
		if res.Status == status {
			out = append(out, res.Symbol)
		}
	}
	return out
}

// Outcomes converts the report for the run recorder.
func (r *Report) Outcomes() []recorder.SymbolOutcome {
	out := make([]recorder.SymbolOutcome, len(r.Results))
	for i, res := range r.Results {
		out[i] = recorder.SymbolOutcome{Symbol: res.Symbol, Status: res.Status, Rows: res.Rows}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
		}
	}
	return out
}
