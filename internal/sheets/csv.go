package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CSVSink writes each destination to {Dir}/{destination}.csv, overwriting.
type CSVSink struct {
	Dir string
}

func NewCSVSink(dir string) *CSVSink { return &CSVSink{Dir: dir} }

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(_ context.Context, destination string, table Table) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.Dir, fileName(destination)+".csv")
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := WriteCSV(f, table); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	log.Printf("[INFO] wrote %d rows to %s", table.Len(), path)
	return nil
}

// StdoutSink prints every table as CSV, preceded by a "# destination" line.
type StdoutSink struct {
	mu sync.Mutex
	W  io.Writer
}

func NewStdoutSink(w io.Writer) *StdoutSink { return &StdoutSink{W: w} }

func (s *StdoutSink) Name() string { return "stdout" }

func (s *StdoutSink) Write(_ context.Context, destination string, table Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.W, "# %s\n", destination); err != nil {
		return err
	}
	return WriteCSV(s.W, table)
}

// WriteCSV encodes the header and rows of table as CSV.
func WriteCSV(w io.Writer, table Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return err
	}
	return cw.Error()
}

var unsafeFileChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "^", "")

func fileName(destination string) string {
	return unsafeFileChars.Replace(destination)
}
