package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"StockSheet/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			source      TEXT,
			sink        TEXT,
			interval    TEXT,
			written     INTEGER,
			skipped     INTEGER,
			failed      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS symbol_runs (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  INTEGER NOT NULL REFERENCES runs(id),
			symbol  TEXT NOT NULL,
			status  TEXT NOT NULL,
			row_count INTEGER,
			error   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symbol_runs_run ON symbol_runs(run_id)`,

		`CREATE TABLE IF NOT EXISTS indicator_rows (
			symbol     TEXT NOT NULL,
			interval   TEXT NOT NULL,
			ts         INTEGER NOT NULL,
			open       REAL,
			high       REAL,
			low        REAL,
			close      REAL,
			volume     INTEGER,
			pct_change REAL,
			ema_fast   REAL,
			ema_slow   REAL,
			rsi        REAL,
			PRIMARY KEY (symbol, interval, ts)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run and its per-symbol outcomes in one transaction and
// returns the run id.
func (r *SQLiteRecorder) RecordRun(run *RunRecord, outcomes []SymbolOutcome) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO runs
		(started_at, finished_at, source, sink, interval, written, skipped, failed)
		VALUES (?,?,?,?,?,?,?,?)`,
		run.Started.Unix(), run.Finished.Unix(), run.Source, run.Sink, string(run.Interval),
		run.Written, run.Skipped, run.Failed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, o := range outcomes {
		if _, err := tx.Exec(`INSERT INTO symbol_runs (run_id, symbol, status, row_count, error)
			VALUES (?,?,?,?,?)`, id, o.Symbol, o.Status, o.Rows, o.Error); err != nil {
			return 0, fmt.Errorf("insert symbol run %s: %w", o.Symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// RecordRows upserts computed rows keyed by symbol, interval and bar time.
func (r *SQLiteRecorder) RecordRows(symbol string, interval model.Interval, rows []model.IndicatorRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO indicator_rows
		(symbol, interval, ts, open, high, low, close, volume, pct_change, ema_fast, ema_slow, rsi)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(symbol, interval, ts) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low, close=excluded.close,
			volume=excluded.volume, pct_change=excluded.pct_change,
			ema_fast=excluded.ema_fast, ema_slow=excluded.ema_slow, rsi=excluded.rsi`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(symbol, string(interval), row.Time.Unix(),
			nullable(row.Open), nullable(row.High), nullable(row.Low), nullable(row.Close), row.Volume,
			nullable(row.PctChange), nullable(row.EMAFast), nullable(row.EMASlow), nullable(row.RSI),
		); err != nil {
			return fmt.Errorf("upsert %s row: %w", symbol, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func nullable(v model.NullFloat) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.Float64, Valid: v.Valid}
}
