// Package sheets renders indicator rows into tables and writes them to a
// spreadsheet destination.
package sheets

import "context"

// Table is a header row followed by data rows, all cells already rendered.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// Sink writes a table to a named destination, replacing whatever was there.
// For spreadsheets the destination is a worksheet tab; for CSV it is a file name.
type Sink interface {
	Write(ctx context.Context, destination string, table Table) error
	Name() string
}
