package recorder

import (
	"time"

	"StockSheet/internal/model"
)

// Symbol outcomes.
const (
	StatusWritten = "written"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// RunRecord summarises one batch run.
type RunRecord struct {
	Started  time.Time
	Finished time.Time
	Source   string
	Sink     string
	Interval model.Interval
	Written  int
	Skipped  int
	Failed   int
}

// SymbolOutcome records what happened to one symbol in a run.
type SymbolOutcome struct {
	Symbol string
	Status string // StatusWritten, StatusSkipped or StatusFailed
	Rows   int
	Error  string
}

// Recorder persists run history and computed indicators for later analysis.
type Recorder interface {
	RecordRun(run *RunRecord, outcomes []SymbolOutcome) (int64, error)
	RecordRows(symbol string, interval model.Interval, rows []model.IndicatorRow) error
	Close() error
}
