package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"StockSheet/internal/calculator"
	"StockSheet/internal/model"
)

var (
	ErrMissingCredentials = errors.New("google credentials not found")
	ErrMissingDestination = errors.New("spreadsheet destination not configured")
)

const dateLayout = "2006-01-02"

// Output kinds and layouts.
const (
	OutputSheets = "sheets"
	OutputCSV    = "csv"
	OutputStdout = "stdout"

	LayoutPerSymbol = "per_symbol"
	LayoutCombined  = "combined"
)

// Config holds all application configuration.
type Config struct {
	Symbols    []string `yaml:"symbols"`
	DataSource struct {
		Kind     string `yaml:"kind"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Start    string `yaml:"start"`
		End      string `yaml:"end"`
		Interval string `yaml:"interval"`
		Timezone string `yaml:"timezone"`
	} `yaml:"data_source"`
	Indicators calculator.Config `yaml:"indicators"`
	Output     struct {
		Kind            string `yaml:"kind"`
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		SpreadsheetName string `yaml:"spreadsheet_name"`
		Layout          string `yaml:"layout"`
		Tab             string `yaml:"tab"`
		CSVDir          string `yaml:"csv_dir"`
		Precision       int32  `yaml:"precision"`
	} `yaml:"output"`
	Google struct {
		CredentialsFile string `yaml:"credentials_file"`
		// CredentialsJSON is only ever populated from the environment.
		CredentialsJSON string `yaml:"-"`
	} `yaml:"google"`
	Workers int `yaml:"workers"`
	Cache   struct {
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		TTL           time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file and an optional .env file, then applies
// environment variable overrides and defaults. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	// Indicator parameters start at their defaults so that an explicit zero in
	// the file is kept and rejected by Validate.
	cfg := &Config{Indicators: calculator.DefaultConfig()}
	cfg.Output.Precision = 4

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the process environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCK_SYMBOLS"); v != "" {
		cfg.Symbols = SplitSymbols(v)
	}
	if v := os.Getenv("START_DATE"); v != "" {
		cfg.DataSource.Start = v
	}
	if v := os.Getenv("END_DATE"); v != "" {
		cfg.DataSource.End = v
	}
	if v := os.Getenv("INTERVAL"); v != "" {
		cfg.DataSource.Interval = v
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("SPREADSHEET_ID"); v != "" {
		cfg.Output.SpreadsheetID = v
	}
	if v := os.Getenv("SPREADSHEET_NAME"); v != "" {
		cfg.Output.SpreadsheetName = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS"); v != "" {
		cfg.Google.CredentialsJSON = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS_FILE"); v != "" {
		cfg.Google.CredentialsFile = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := os.Getenv("WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		} else {
			log.Printf("[WARN] ignoring invalid WORKERS %q: %v", v, err)
		}
	}
}

func applyDefaults(cfg *Config) {
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{"RELIANCE.NS", "TCS.NS", "INFY.NS"}
	}
	if cfg.DataSource.Kind == "" {
		cfg.DataSource.Kind = "yahoo"
	}
	if cfg.DataSource.Interval == "" {
		cfg.DataSource.Interval = string(model.IntervalDaily)
	}
	if cfg.Output.Kind == "" {
		cfg.Output.Kind = OutputSheets
	}
	if cfg.Output.Layout == "" {
		cfg.Output.Layout = LayoutPerSymbol
	}
	if cfg.Output.Tab == "" {
		cfg.Output.Tab = "Indicators"
	}
	if cfg.Output.CSVDir == "" {
		cfg.Output.CSVDir = "data/out"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 6 * time.Hour
	}
}

// Validate checks everything that must hold before any data is fetched.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must not be empty")
	}
	switch c.DataSource.Kind {
	case "yahoo", "financego", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest source")
		}
	default:
		return fmt.Errorf("unknown data_source.kind %q", c.DataSource.Kind)
	}
	if _, err := model.ParseInterval(c.DataSource.Interval); err != nil {
		return err
	}
	if _, _, err := c.DateRange(time.Now()); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if err := c.Indicators.Validate(); err != nil {
		return err
	}
	switch c.Output.Layout {
	case LayoutPerSymbol, LayoutCombined:
	default:
		return fmt.Errorf("unknown output.layout %q", c.Output.Layout)
	}
	if c.Output.Precision < 0 {
		return fmt.Errorf("output.precision must not be negative")
	}
	switch c.Output.Kind {
	case OutputSheets:
		if c.Output.SpreadsheetID == "" && c.Output.SpreadsheetName == "" {
			return fmt.Errorf("%w: set output.spreadsheet_id or output.spreadsheet_name", ErrMissingDestination)
		}
		if c.Google.CredentialsJSON == "" && c.Google.CredentialsFile == "" {
			return fmt.Errorf("%w: set GOOGLE_CREDENTIALS or GOOGLE_CREDENTIALS_FILE", ErrMissingCredentials)
		}
	case OutputCSV, OutputStdout:
	default:
		return fmt.Errorf("unknown output.kind %q", c.Output.Kind)
	}
	return nil
}

// Credentials returns the service account key, inline JSON taking precedence over the file.
func (c *Config) Credentials() ([]byte, error) {
	var data []byte
	switch {
	case c.Google.CredentialsJSON != "":
		data = []byte(c.Google.CredentialsJSON)
	case c.Google.CredentialsFile != "":
		var err error
		if data, err = os.ReadFile(c.Google.CredentialsFile); err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
	default:
		return nil, ErrMissingCredentials
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("parse credentials: not valid JSON")
	}
	return data, nil
}

// DateRange parses start and end dates. Missing values default to the 30 days
// ending today. End is exclusive.
func (c *Config) DateRange(now time.Time) (start, end time.Time, err error) {
	loc, err := c.Location()
	if err != nil {
		return start, end, err
	}
	if loc == nil {
		loc = time.UTC
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	end = today.AddDate(0, 0, 1)
	if c.DataSource.End != "" {
		if end, err = time.ParseInLocation(dateLayout, c.DataSource.End, loc); err != nil {
			return start, end, fmt.Errorf("parse data_source.end: %w", err)
		}
	}
	start = end.AddDate(0, 0, -30)
	if c.DataSource.Start != "" {
		if start, err = time.ParseInLocation(dateLayout, c.DataSource.Start, loc); err != nil {
			return start, end, fmt.Errorf("parse data_source.start: %w", err)
		}
	}
	if !start.Before(end) {
		return start, end, fmt.Errorf("data_source.start %s must be before end %s",
			start.Format(dateLayout), end.Format(dateLayout))
	}
	return start, end, nil
}

// Location returns the configured time zone override, or nil to use the exchange's.
func (c *Config) Location() (*time.Location, error) {
	if c.DataSource.Timezone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(c.DataSource.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load data_source.timezone: %w", err)
	}
	return loc, nil
}

// Interval returns the validated bar interval.
func (c *Config) Interval() model.Interval {
	iv, _ := model.ParseInterval(c.DataSource.Interval)
	return iv
}

// SplitSymbols parses a comma-separated symbol list.
func SplitSymbols(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
