package config

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"StockSheet/internal/calculator"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Symbols) != 3 || cfg.Symbols[0] != "RELIANCE.NS" {
		t.Errorf("unexpected default symbols %v", cfg.Symbols)
	}
	if cfg.Indicators != calculator.DefaultConfig() {
		t.Errorf("unexpected default indicators %+v", cfg.Indicators)
	}
	if cfg.DataSource.Kind != "yahoo" || cfg.DataSource.Interval != "1d" {
		t.Errorf("unexpected data source defaults %+v", cfg.DataSource)
	}
	if cfg.Output.Kind != OutputSheets || cfg.Output.Layout != LayoutPerSymbol || cfg.Output.Precision != 4 {
		t.Errorf("unexpected output defaults %+v", cfg.Output)
	}
	if cfg.Workers != 1 {
		t.Errorf("expected 1 worker, got %d", cfg.Workers)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
symbols: [AAPL, MSFT]
data_source:
  start: "2024-07-01"
  end: "2024-07-31"
  interval: 5m
indicators:
  ema_fast_span: 12
output:
  spreadsheet_name: StockAnalysisSheet
cache:
  ttl: 30m
`)
	t.Setenv("STOCK_SYMBOLS", "INFY.NS, TCS.NS,")
	t.Setenv("GOOGLE_CREDENTIALS", `{"type":"service_account"}`)
	t.Setenv("WORKERS", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Symbols) != 2 || cfg.Symbols[0] != "INFY.NS" || cfg.Symbols[1] != "TCS.NS" {
		t.Errorf("env should override symbols, got %v", cfg.Symbols)
	}
	if cfg.Indicators.EMAFastSpan != 12 || cfg.Indicators.EMASlowSpan != 50 || cfg.Indicators.RSIWindow != 14 {
		t.Errorf("unexpected indicators %+v", cfg.Indicators)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("expected 30m ttl, got %v", cfg.Cache.TTL)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	start, end, err := cfg.DateRange(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if start.Format(dateLayout) != "2024-07-01" || end.Format(dateLayout) != "2024-07-31" {
		t.Errorf("unexpected range %s..%s", start, end)
	}
	if cfg.Interval() != "5m" {
		t.Errorf("unexpected interval %s", cfg.Interval())
	}
}

func TestValidate_ZeroWindowIsRejected(t *testing.T) {
	path := writeConfig(t, `
indicators:
  rsi_window: 0
output:
  kind: csv
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); !errors.Is(err, calculator.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestValidate_StartupErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"missing credentials", func(c *Config) { c.Output.SpreadsheetID = "abc" }, ErrMissingCredentials},
		{"missing destination", func(c *Config) { c.Google.CredentialsJSON = "{}" }, ErrMissingDestination},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidate_BadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"interval", func(c *Config) { c.DataSource.Interval = "1h" }},
		{"source", func(c *Config) { c.DataSource.Kind = "bloomberg" }},
		{"rest without url", func(c *Config) { c.DataSource.Kind = "rest" }},
		{"reversed range", func(c *Config) { c.DataSource.Start, c.DataSource.End = "2024-08-01", "2024-07-01" }},
		{"bad date", func(c *Config) { c.DataSource.Start = "07/01/2024" }},
		{"layout", func(c *Config) { c.Output.Layout = "pivot" }},
		{"timezone", func(c *Config) { c.DataSource.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			cfg.Output.Kind = OutputCSV
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCredentials(t *testing.T) {
	cfg := &Config{}
	if _, err := cfg.Credentials(); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg.Google.CredentialsFile = path
	if data, err := cfg.Credentials(); err != nil || len(data) == 0 {
		t.Errorf("file credentials: %v", err)
	}

	cfg.Google.CredentialsJSON = "not json"
	if _, err := cfg.Credentials(); err == nil {
		t.Error("expected error for malformed inline credentials")
	}
}

func TestDateRange_DefaultsToLast30Days(t *testing.T) {
	cfg := &Config{}
	now := time.Date(2024, 7, 31, 15, 0, 0, 0, time.UTC)
	start, end, err := cfg.DateRange(now)
	if err != nil {
		t.Fatal(err)
	}
	if end.Format(dateLayout) != "2024-08-01" || start.Format(dateLayout) != "2024-07-02" {
		t.Errorf("unexpected default range %s..%s", start, end)
	}
}

func TestLoad_InvalidWorkersWarns(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	t.Setenv("WORKERS", "four")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 1 {
		t.Errorf("expected default of 1 worker, got %d", cfg.Workers)
	}
	if !strings.Contains(buf.String(), `[WARN] ignoring invalid WORKERS "four"`) {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}
