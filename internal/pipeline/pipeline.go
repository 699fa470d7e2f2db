// Package pipeline runs the fetch, compute and write steps for a batch of symbols.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"StockSheet/internal/calculator"
	"StockSheet/internal/collector"
	"StockSheet/internal/metrics"
	"StockSheet/internal/model"
	"StockSheet/internal/recorder"
	"StockSheet/internal/sheets"
)

// Options controls the shape of a run.
type Options struct {
	Workers  int
	Combined bool   // write every symbol to one tab instead of one tab per symbol
	Tab      string // destination of the combined layout
}

// Pipeline wires a collector to a sink through the indicator engine.
type Pipeline struct {
	Collector  *collector.Collector
	Sink       sheets.Sink
	Recorder   recorder.Recorder
	Metrics    *metrics.Metrics
	Indicators calculator.Config
	Precision  int32
	Options    Options
}

// Run processes every symbol and returns a report in symbol order. Per-symbol
// failures are recorded in the report; only an invalid indicator configuration
// or a failed combined write returns an error.
func (p *Pipeline) Run(ctx context.Context, symbols []string) (*Report, error) {
	if err := p.Indicators.Validate(); err != nil {
		return nil, err
	}

	report := &Report{Started: time.Now(), Results: make([]SymbolResult, len(symbols))}
	computed := make([][]model.IndicatorRow, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Options.Workers, 1))
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			report.Results[i], computed[i] = p.runSymbol(gctx, symbol)
			return nil
		})
	}
	_ = g.Wait() // symbol errors live in the report

	var err error
	if p.Options.Combined {
		err = p.writeCombined(ctx, report, computed)
	}

	for i, res := range report.Results {
		p.Metrics.ObserveSymbol(res.Status, res.Rows)
		if res.Status != recorder.StatusWritten {
			continue
		}
		if err := p.rec().RecordRows(res.Symbol, p.Collector.Interval, computed[i]); err != nil {
			log.Printf("[WARN] record rows for %s: %v", res.Symbol, err)
		}
	}
	report.Finished = time.Now()
	p.Metrics.MarkRun(report.Finished)
	p.record(report)

	log.Printf("[INFO] run finished in %s: %d written, %d skipped, %d failed",
		report.Finished.Sub(report.Started).Round(time.Millisecond),
		len(report.Written()), len(report.Skipped()), len(report.Failed()))
	return report, err
}

func (p *Pipeline) runSymbol(ctx context.Context, symbol string) (SymbolResult, []model.IndicatorRow) {
	res := SymbolResult{Symbol: symbol}

	start := time.Now()
	bars, err := p.Collector.Collect(ctx, symbol)
	p.Metrics.ObserveFetch(time.Since(start))
	if err != nil {
		log.Printf("[ERROR] %v", err)
		res.Status, res.Err = recorder.StatusFailed, err
		return res, nil
	}
	if len(bars) == 0 {
		log.Printf("[WARN] no data for %s, skipping", symbol)
		res.Status = recorder.StatusSkipped
		return res, nil
	}

	rows, err := calculator.Compute(bars, p.Indicators)
	if err != nil {
		res.Status, res.Err = recorder.StatusFailed, fmt.Errorf("compute %s: %w", symbol, err)
		return res, nil
	}

	res.Rows = len(rows)
	if p.Options.Combined {
		// Written once every symbol is computed.
		res.Status = recorder.StatusWritten
		return res, rows
	}
	table := sheets.BuildTable(symbol, rows, p.tableOptions(false))
	if err := p.Sink.Write(ctx, symbol, table); err != nil {
		log.Printf("[ERROR] write %s: %v", symbol, err)
		res.Status, res.Err, res.Rows = recorder.StatusFailed, fmt.Errorf("write %s: %w", symbol, err), 0
		return res, nil
	}
	res.Status = recorder.StatusWritten
	return res, rows
}

func (p *Pipeline) writeCombined(ctx context.Context, report *Report, computed [][]model.IndicatorRow) error {
	opts := p.tableOptions(true)
	var tables []sheets.Table
	for i, res := range report.Results {
		if res.Status == recorder.StatusWritten {
			tables = append(tables, sheets.BuildTable(res.Symbol, computed[i], opts))
		}
	}
	if len(tables) == 0 {
		return nil
	}
	if err := p.Sink.Write(ctx, p.Options.Tab, sheets.Concat(sheets.Header(opts), tables...)); err != nil {
		err = fmt.Errorf("write %s: %w", p.Options.Tab, err)
		log.Printf("[ERROR] %v", err)
		for i := range report.Results {
			if report.Results[i].Status == recorder.StatusWritten {
				report.Results[i].Status, report.Results[i].Err, report.Results[i].Rows = recorder.StatusFailed, err, 0
			}
		}
		return err
	}
	return nil
}

func (p *Pipeline) tableOptions(withSymbol bool) sheets.TableOptions {
	return sheets.TableOptions{
		Interval:   p.Collector.Interval,
		Indicators: p.Indicators,
		Precision:  p.Precision,
		WithSymbol: withSymbol,
	}
}

func (p *Pipeline) rec() recorder.Recorder {
	if p.Recorder == nil {
		return recorder.NewNoopRecorder()
	}
	return p.Recorder
}

func (p *Pipeline) record(report *Report) {
	run := &recorder.RunRecord{
		Started:  report.Started,
		Finished: report.Finished,
		Source:   p.Collector.Fetcher.Name(),
		Sink:     p.Sink.Name(),
		Interval: p.Collector.Interval,
		Written:  len(report.Written()),
		Skipped:  len(report.Skipped()),
		Failed:   len(report.Failed()),
	}
	if _, err := p.rec().RecordRun(run, report.Outcomes()); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
}
