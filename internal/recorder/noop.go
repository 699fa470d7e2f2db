package recorder

import "StockSheet/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *RunRecord, _ []SymbolOutcome) (int64, error) { return 0, nil }
func (n *NoopRecorder) RecordRows(_ string, _ model.Interval, _ []model.IndicatorRow) error {
	return nil
}
func (n *NoopRecorder) Close() error { return nil }
