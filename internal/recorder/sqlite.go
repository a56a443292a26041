package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"StockPulse/internal/logger"
	"StockPulse/internal/model"
)

// SQLiteRecorder persists analysis history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *logger.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, l *logger.Logger) (*SQLiteRecorder, error) {
	if l == nil {
		l = logger.NewSilent()
	}
	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the service writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: l}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	l.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			symbol          TEXT NOT NULL,
			bar_interval    TEXT,
			trigger_type    TEXT,
			bars            INTEGER,
			quote_source    TEXT,
			close           REAL,
			sma5            REAL,
			sma20           REAL,
			sma60           REAL,
			rsi             REAL,
			atr             REAL,
			support         REAL,
			resistance      REAL,
			spike_ratio     REAL,
			regime          TEXT,
			crossover       TEXT,
			score           INTEGER,
			label           TEXT,
			enrichment      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_symbol_ts ON analyses(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS factor_scores (
			analysis_id TEXT NOT NULL,
			position    INTEGER NOT NULL,
			name        TEXT,
			score       INTEGER,
			skipped     INTEGER,
			commentary  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_factor_analysis ON factor_scores(analysis_id)`,

		`CREATE TABLE IF NOT EXISTS failures (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT,
			bar_interval TEXT,
			trigger_type TEXT,
			kind         TEXT,
			message      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_ts ON failures(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(rec *AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := rec.Report
	ts := rep.GeneratedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO analyses
		(id, timestamp, symbol, bar_interval, trigger_type, bars, quote_source,
		 close, sma5, sma20, sma60, rsi, atr, support, resistance, spike_ratio,
		 regime, crossover, score, label, enrichment)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rep.ID, ts.Unix(), rep.Symbol, rep.Interval, string(rec.Trigger), rep.Bars, rep.Quote.Source,
		rep.Technical.Close, nullable(rep.Technical.SMA5, rep.Technical.HasSMA5),
		nullable(rep.Technical.SMA20, rep.Technical.HasSMA20), nullable(rep.Technical.SMA60, rep.Technical.HasSMA60),
		nullable(rep.Technical.RSI, rep.Technical.HasRSI),
		nullable(rep.Levels.RiskMargin.Value, rep.Levels.RiskMargin.Available),
		rep.Levels.Support, rep.Levels.Resistance,
		nullable(rep.Volume.SpikeRatio, rep.Volume.Available),
		string(rep.Trend.Regime), string(rep.Technical.Crossover),
		rep.Sentiment.Score, string(rep.Sentiment.Label), rec.Enrichment,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	for i, f := range rep.Sentiment.Factors {
		if _, err := tx.Exec(`INSERT INTO factor_scores
			(analysis_id, position, name, score, skipped, commentary)
			VALUES (?,?,?,?,?,?)`,
			rep.ID, i, f.Name, f.Score, boolInt(f.Skipped), f.Commentary,
		); err != nil {
			return fmt.Errorf("insert factor %s: %w", f.Name, err)
		}
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(v float64, ok bool) any {
	if !ok {
		return nil
	}
	return v
}

func (r *SQLiteRecorder) RecordFailure(evt *FailureEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO failures
		(timestamp, symbol, bar_interval, trigger_type, kind, message)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.Interval, string(evt.Trigger), evt.Kind, evt.Err,
	)
	return err
}

// Recent lists the latest analyses for symbol, newest first. An empty symbol lists all.
func (r *SQLiteRecorder) Recent(symbol string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(`SELECT id, timestamp, symbol, bar_interval, trigger_type, close,
			COALESCE(rsi, 0), score, label, regime
		FROM analyses
		WHERE ? = '' OR symbol = ?
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?`, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			e     HistoryEntry
			ts    int64
			label string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Symbol, &e.Interval, &e.Trigger, &e.Close,
			&e.RSI, &e.Score, &label, &e.Regime); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Timestamp = time.Unix(ts, 0)
		e.Label = model.Sentiment(label)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
