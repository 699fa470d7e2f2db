package sheets

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"StockSheet/internal/calculator"
	"StockSheet/internal/model"
)

// PctChangeHeader is the column title of the daily percentage change.
const PctChangeHeader = "Daily % Change (%)"

// TableOptions controls how indicator rows are rendered.
type TableOptions struct {
	Interval   model.Interval
	Indicators calculator.Config
	Precision  int32
	WithSymbol bool // prepend a Symbol column, used by the combined layout
}

// Header returns the column titles for the given options.
func Header(opts TableOptions) []string {
	timeCol := "Date"
	if opts.Interval.Intraday() {
		timeCol = "Datetime"
	}
	h := make([]string, 0, 11)
	if opts.WithSymbol {
		h = append(h, "Symbol")
	}
	return append(h,
		timeCol, "Open", "High", "Low", "Close", "Volume",
		PctChangeHeader,
		fmt.Sprintf("EMA%d", opts.Indicators.EMAFastSpan),
		fmt.Sprintf("EMA%d", opts.Indicators.EMASlowSpan),
		fmt.Sprintf("RSI_%d", opts.Indicators.RSIWindow),
	)
}

// BuildTable renders one symbol's indicator rows. Undefined values become empty cells.
func BuildTable(symbol string, rows []model.IndicatorRow, opts TableOptions) Table {
	layout := opts.Interval.TimeLayout()
	t := Table{Header: Header(opts), Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		rec := make([]string, 0, len(t.Header))
		if opts.WithSymbol {
			rec = append(rec, symbol)
		}
		rec = append(rec,
			r.Time.Format(layout),
			cell(r.Open, opts.Precision),
			cell(r.High, opts.Precision),
			cell(r.Low, opts.Precision),
			cell(r.Close, opts.Precision),
			strconv.FormatInt(r.Volume, 10),
			cell(r.PctChange, opts.Precision),
			cell(r.EMAFast, opts.Precision),
			cell(r.EMASlow, opts.Precision),
			cell(r.RSI, opts.Precision),
		)
		t.Rows = append(t.Rows, rec)
	}
	return t
}

// Concat joins tables sharing a header. An empty list yields a table with the given header.
func Concat(header []string, tables ...Table) Table {
	out := Table{Header: header}
	for _, t := range tables {
		out.Rows = append(out.Rows, t.Rows...)
	}
	return out
}

func cell(v model.NullFloat, precision int32) string {
	f, ok := v.Get()
	if !ok {
		return ""
	}
	return decimal.NewFromFloat(f).Round(precision).String()
}
