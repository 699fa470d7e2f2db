package collector

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"StockSheet/internal/model"
)

var csvTimeLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "2006-01-02 15:04", time.RFC3339}

// ReadBarsCSV parses bars from CSV with a Date (or Datetime), Open, High, Low,
// Close, Volume header in any column order. Empty price cells are missing
// values, as are non-numeric price cells. Timestamps without a zone are read in loc.
func ReadBarsCSV(r io.Reader, loc *time.Location) ([]model.PriceBar, error) {
	if loc == nil {
		loc = time.UTC
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return []model.PriceBar{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if i, ok := col["datetime"]; ok {
		col["date"] = i
	}
	for _, name := range []string{"date", "close"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing %q column", name)
		}
	}

	bars := []model.PriceBar{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ts, err := parseTime(field(rec, col, "date"), loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bar := model.PriceBar{Time: ts}
		for _, p := range []struct {
			name string
			dst  *model.NullFloat
		}{{"open", &bar.Open}, {"high", &bar.High}, {"low", &bar.Low}, {"close", &bar.Close}} {
			*p.dst = parseFloat(field(rec, col, p.name), line, p.name)
		}
		if v := field(rec, col, "volume"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d volume: %w", line, err)
			}
			bar.Volume = int64(f)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// LoadMockFetcher builds a MockFetcher from {dir}/{symbol}.csv files. Symbols
// without a file get no data.
func LoadMockFetcher(dir string, symbols []string, loc *time.Location) (*MockFetcher, error) {
	m := &MockFetcher{Bars: map[string][]model.PriceBar{}}
	for _, s := range symbols {
		f, err := os.Open(filepath.Join(dir, s+".csv"))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		bars, err := ReadBarsCSV(f, loc)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", s, err)
		}
		m.Bars[s] = bars
	}
	return m, nil
}

func field(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// parseFloat reads a price cell. Anything that is not a number is a missing value.
func parseFloat(s string, line int, name string) model.NullFloat {
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return model.Null
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("[WARN] line %d: non-numeric %s %q treated as missing", line, name, s)
		return model.Null
	}
	return model.Float(f)
}
