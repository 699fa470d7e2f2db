package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"StockSheet/internal/pipeline"
)

// FormatRunSummary formats a batch report into a Telegram HTML message.
func FormatRunSummary(report *pipeline.Report, destination string) string {
	var b strings.Builder

	icon := "✅"
	if !report.OK() {
		icon = "⚠️"
	}
	b.WriteString(fmt.Sprintf("%s <b>StockSheet</b> | %s\n", icon, report.Finished.Format("2006-01-02 15:04")))
	if destination != "" {
		b.WriteString(fmt.Sprintf("Destination: %s\n", html.EscapeString(destination)))
	}
	b.WriteString(fmt.Sprintf("Duration: %s\n\n", report.Finished.Sub(report.Started).Round(time.Second)))

	rows := 0
	for _, res := range report.Results {
		rows += res.Rows
	}
	written := report.Written()
	b.WriteString(fmt.Sprintf("Written (%d, %d rows): %s\n", len(written), rows, list(written)))
	skipped := report.Skipped()
	b.WriteString(fmt.Sprintf("Skipped (%d): %s\n", len(skipped), list(skipped)))

	failed := report.Failed()
	b.WriteString(fmt.Sprintf("Failed (%d)", len(failed)))
	if len(failed) == 0 {
		b.WriteString(": -\n")
		return b.String()
	}
	b.WriteString(":\n")
	for _, f := range failed {
		b.WriteString(fmt.Sprintf("  • %s: %s\n", html.EscapeString(f.Symbol), html.EscapeString(f.Err.Error())))
	}
	return b.String()
}

func list(symbols []string) string {
	if len(symbols) == 0 {
		return "-"
	}
	return html.EscapeString(strings.Join(symbols, ", "))
}
