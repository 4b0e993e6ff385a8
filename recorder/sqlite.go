package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboard reads do not block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS observations (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			price      REAL NOT NULL,
			prev_close REAL,
			crash      INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_obs_symbol_ts ON observations(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS weekly_rankings (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			week_low   REAL,
			week_high  REAL,
			range_pct  REAL,
			suggestion TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_weekly_ts ON weekly_rankings(timestamp)`,

		`CREATE TABLE IF NOT EXISTS daily_performance (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			open      REAL,
			last      REAL,
			net       REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_ts ON daily_performance(timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// RecordObservation appends one committed observation.
func (r *SQLiteRecorder) RecordObservation(row ObservationRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	crash := 0
	if row.Crash {
		crash = 1
	}
	_, err := r.db.Exec(
		`INSERT INTO observations (timestamp, symbol, price, prev_close, crash) VALUES (?, ?, ?, ?, ?)`,
		row.Ts.Unix(), row.Symbol, row.Price, row.PrevClose, crash,
	)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

// RecordWeekly appends a full weekly ranking under one timestamp.
func (r *SQLiteRecorder) RecordWeekly(rows []WeeklyRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().Unix()
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, row := range rows {
		if _, err := tx.Exec(
			`INSERT INTO weekly_rankings (timestamp, symbol, week_low, week_high, range_pct, suggestion) VALUES (?, ?, ?, ?, ?, ?)`,
			now, row.Symbol, row.WeekLow, row.WeekHigh, row.RangePct, row.Suggestion,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert weekly row: %w", err)
		}
	}
	return tx.Commit()
}

// RecordDaily appends a full daily snapshot under one timestamp.
func (r *SQLiteRecorder) RecordDaily(rows []DailyRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().Unix()
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, row := range rows {
		if _, err := tx.Exec(
			`INSERT INTO daily_performance (timestamp, symbol, open, last, net) VALUES (?, ?, ?, ?, ?)`,
			now, row.Symbol, row.Open, row.Last, row.Net,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert daily row: %w", err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
