package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"StockSheet/internal/calculator"
	"StockSheet/internal/collector"
	"StockSheet/internal/config"
	"StockSheet/internal/metrics"
	"StockSheet/internal/model"
	"StockSheet/internal/notifier"
	"StockSheet/internal/pipeline"
	"StockSheet/internal/recorder"
	"StockSheet/internal/sheets"
)

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (f *runFlags) apply(cfg *config.Config) {
	if f.symbols != "" {
		cfg.Symbols = config.SplitSymbols(f.symbols)
	}
	if f.start != "" {
		cfg.DataSource.Start = f.start
	}
	if f.end != "" {
		cfg.DataSource.End = f.end
	}
	if f.interval != "" {
		cfg.DataSource.Interval = f.interval
	}
	if f.dryRun {
		cfg.Output.Kind = config.OutputStdout
	}
}

func runBatch(ctx context.Context, flags *runFlags, stdout io.Writer) error {
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	flags.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	start, end, err := cfg.DateRange(time.Now())
	if err != nil {
		return err
	}

	fetcher, closeFetcher, err := newFetcher(ctx, cfg, loc)
	if err != nil {
		return err
	}
	defer closeFetcher()
	log.Printf("[INFO] data source: %s", fetcher.Name())

	sink, destination, err := newSink(ctx, cfg, stdout)
	if err != nil {
		return err
	}
	log.Printf("[INFO] sink: %s", sink.Name())

	rec := newRecorder(cfg)
	defer rec.Close()

	m := metrics.New()
	p := &pipeline.Pipeline{
		Collector:  collector.NewCollector(fetcher, start, end, cfg.Interval()),
		Sink:       sink,
		Recorder:   rec,
		Metrics:    m,
		Indicators: cfg.Indicators,
		Precision:  cfg.Output.Precision,
		Options: pipeline.Options{
			Workers:  cfg.Workers,
			Combined: cfg.Output.Layout == config.LayoutCombined,
			Tab:      cfg.Output.Tab,
		},
	}

	log.Printf("[INFO] processing %d symbols from %s to %s (%s)",
		len(cfg.Symbols), start.Format("2006-01-02"), end.Format("2006-01-02"), cfg.Interval())
	report, runErr := p.Run(ctx, cfg.Symbols)
	if report == nil {
		return runErr
	}

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Printf("[WARN] write metrics textfile: %v", err)
		}
	}
	if err := newNotifier(cfg).Notify(ctx, notifier.FormatRunSummary(report, destination)); err != nil {
		log.Printf("[ERROR] send run summary: %v", err)
	}

	if runErr != nil {
		return runErr
	}
	if !report.OK() {
		return fmt.Errorf("%w: %d of %d", ErrSymbolsFailed, len(report.Failed()), len(report.Results))
	}
	return nil
}

func newFetcher(ctx context.Context, cfg *config.Config, loc *time.Location) (collector.Fetcher, func(), error) {
	noop := func() {}
	var f collector.Fetcher
	switch cfg.DataSource.Kind {
	case "rest":
		f = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, loc)
	case "financego":
		f = collector.NewFinanceGoFetcher(loc)
	case "mock":
		m, err := collector.LoadMockFetcher(cfg.DataSource.BaseURL, cfg.Symbols, loc)
		if err != nil {
			return nil, noop, fmt.Errorf("load mock data: %w", err)
		}
		f = m
	default:
		f = collector.NewYahooFetcher(cfg.DataSource.BaseURL, cfg.Proxy, loc)
	}

	if cfg.Cache.RedisAddr == "" {
		return f, noop, nil
	}
	store, err := collector.NewRedisBarStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	if err != nil {
		log.Printf("[WARN] redis cache unavailable, fetching directly: %v", err)
		return f, noop, nil
	}
	return collector.NewCachedFetcher(f, store, cfg.Cache.TTL), func() { store.Close() }, nil
}

// newSink returns the configured sink and a human-readable destination name.
func newSink(ctx context.Context, cfg *config.Config, stdout io.Writer) (sheets.Sink, string, error) {
	switch cfg.Output.Kind {
	case config.OutputStdout:
		return sheets.NewStdoutSink(stdout), "stdout", nil
	case config.OutputCSV:
		return sheets.NewCSVSink(cfg.Output.CSVDir), cfg.Output.CSVDir, nil
	}

	creds, err := cfg.Credentials()
	if err != nil {
		return nil, "", err
	}
	sink, err := sheets.NewGoogleSink(ctx, creds, cfg.Output.SpreadsheetID, cfg.Output.SpreadsheetName)
	if err != nil {
		return nil, "", err
	}
	dest := cfg.Output.SpreadsheetName
	if dest == "" {
		dest = cfg.Output.SpreadsheetID
	}
	return sink, dest, nil
}

func newRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

func newNotifier(cfg *config.Config) notifier.Notifier {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
		return notifier.NoopNotifier{}
	}
	return notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
}

// runCompute computes indicators for one CSV series using the configured
// indicator parameters.
func runCompute(configPath string, in io.Reader, out io.Writer) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Indicators.Validate(); err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	bars, err := collector.ReadBarsCSV(in, loc)
	if err != nil {
		return fmt.Errorf("read bars: %w", err)
	}
	bars = model.Normalize(bars)
	rows, err := calculator.Compute(bars, cfg.Indicators)
	if err != nil {
		return err
	}

	// Only the timestamp layout depends on the interval here.
	interval := model.IntervalDaily
	for _, b := range bars {
		if b.Time.Hour() != 0 || b.Time.Minute() != 0 {
			interval = model.IntervalFiveMin
			break
		}
	}
	table := sheets.BuildTable("", rows, sheets.TableOptions{
		Interval:   interval,
		Indicators: cfg.Indicators,
		Precision:  cfg.Output.Precision,
	})
	return sheets.WriteCSV(out, table)
}
