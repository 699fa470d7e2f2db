// Package metrics exposes run statistics as Prometheus collectors. A batch run
// has no long-lived HTTP endpoint, so the registry is written to a
// node-exporter textfile after each run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	reg           *prometheus.Registry
	symbols       *prometheus.CounterVec
	rowsWritten   prometheus.Counter
	fetchDuration prometheus.Histogram
	lastRun       prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		symbols: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocksheet_symbols_total",
			Help: "Symbols processed, by outcome.",
		}, []string{"status"}),
		rowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocksheet_rows_written_total",
			Help: "Indicator rows written to the sink.",
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stocksheet_fetch_duration_seconds",
			Help:    "Time spent fetching one symbol's bars.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stocksheet_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	m.reg.MustRegister(m.symbols, m.rowsWritten, m.fetchDuration, m.lastRun)
	return m
}

// ObserveSymbol counts one symbol outcome and the rows it wrote.
func (m *Metrics) ObserveSymbol(status string, rows int) {
	if m == nil {
		return
	}
	m.symbols.WithLabelValues(status).Inc()
	if rows > 0 {
		m.rowsWritten.Add(float64(rows))
	}
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.Observe(d.Seconds())
}

func (m *Metrics) MarkRun(finished time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes the registry atomically in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.reg)
}
