package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"AssetLens/internal/model"
	"AssetLens/internal/pipeline"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db    *sql.DB
	mu    sync.Mutex
	log   zerolog.Logger
	newID func() string
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(log zerolog.Logger, dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a run is written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{
		db:    db,
		log:   log.With().Str("component", "sqlite").Logger(),
		newID: func() string { return uuid.NewString() },
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			timestamp  INTEGER NOT NULL,
			assets     INTEGER,
			portfolios INTEGER,
			failures   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS summaries (
			id                    INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id                TEXT NOT NULL REFERENCES runs(id),
			subject               TEXT NOT NULL,
			kind                  TEXT NOT NULL,
			observations          INTEGER,
			mean                  REAL,
			min                   REAL,
			max                   REAL,
			median                REAL,
			q1                    REAL,
			q3                    REAL,
			std                   REAL,
			variance              REAL,
			annualized_return     REAL,
			annualized_volatility REAL,
			sharpe_ratio          REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_run ON summaries(run_id)`,

		`CREATE TABLE IF NOT EXISTS capm (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL REFERENCES runs(id),
			subject           TEXT NOT NULL,
			benchmark         TEXT NOT NULL,
			kind              TEXT NOT NULL,
			alpha             REAL,
			beta              REAL,
			information_ratio REAL,
			observations      INTEGER,
			date_from         TEXT,
			date_to           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_capm_run ON capm(run_id)`,

		`CREATE TABLE IF NOT EXISTS prices (
			run_id  TEXT NOT NULL REFERENCES runs(id),
			asset   TEXT NOT NULL,
			date    TEXT NOT NULL,
			close   REAL,
			rebased REAL,
			PRIMARY KEY (run_id, asset, date)
		)`,

		`CREATE TABLE IF NOT EXISTS return_points (
			run_id TEXT NOT NULL REFERENCES runs(id),
			series TEXT NOT NULL,
			kind   TEXT NOT NULL,
			date   TEXT NOT NULL,
			value  REAL,
			PRIMARY KEY (run_id, series, kind, date)
		)`,

		`CREATE TABLE IF NOT EXISTS failures (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			stage  TEXT NOT NULL,
			entity TEXT NOT NULL,
			error  TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun writes a whole report in one transaction under a fresh run id.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, rep *pipeline.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	runID := r.newID()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (id, timestamp, assets, portfolios, failures)
		VALUES (?,?,?,?,?)`,
		runID, rep.RunAt.Unix(), len(rep.Assets), len(rep.Portfolios), len(rep.Failures),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, s := range rep.Summaries() {
		m := s.Metrics
		if _, err := tx.ExecContext(ctx, `INSERT INTO summaries
			(run_id, subject, kind, observations, mean, min, max, median, q1, q3, std, variance,
			 annualized_return, annualized_volatility, sharpe_ratio)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			runID, s.ID, s.Kind.String(), s.Observations,
			m[model.MetricMean], m[model.MetricMin], m[model.MetricMax], m[model.MetricMedian],
			m[model.MetricQ1], m[model.MetricQ3], m[model.MetricStdDev], m[model.MetricVariance],
			m[model.MetricAnnualizedReturn], m[model.MetricAnnualizedVolatility], m[model.MetricSharpeRatio],
		); err != nil {
			return fmt.Errorf("insert summary %s: %w", s.ID, err)
		}
	}

	for _, c := range rep.CAPM() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO capm
			(run_id, subject, benchmark, kind, alpha, beta, information_ratio, observations, date_from, date_to)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			runID, c.AssetID, c.BenchmarkID, c.Kind.String(), c.Alpha, c.Beta, c.InformationRatio,
			c.Observations, c.From.Format(time.DateOnly), c.To.Format(time.DateOnly),
		); err != nil {
			return fmt.Errorf("insert capm %s/%s: %w", c.AssetID, c.BenchmarkID, err)
		}
	}

	if err := insertPrices(ctx, tx, runID, rep); err != nil {
		return err
	}
	if err := insertReturns(ctx, tx, runID, rep); err != nil {
		return err
	}

	for _, f := range rep.Failures {
		if _, err := tx.ExecContext(ctx, `INSERT INTO failures (run_id, stage, entity, error) VALUES (?,?,?,?)`,
			runID, string(f.Stage), f.Entity, f.Err.Error(),
		); err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Info().Str("run_id", runID).Int("summaries", len(rep.Summaries())).Msg("run recorded")
	return nil
}

func insertPrices(ctx context.Context, tx *sql.Tx, runID string, rep *pipeline.Report) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO prices (run_id, asset, date, close, rebased) VALUES (?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare prices: %w", err)
	}
	defer stmt.Close()
	for _, a := range rep.Assets {
		for _, o := range a.Series.Observations {
			if _, err := stmt.ExecContext(ctx, runID, a.Series.ID, o.Date.Format(time.DateOnly), o.Close, o.Rebased); err != nil {
				return fmt.Errorf("insert price %s: %w", a.Series.ID, err)
			}
		}
	}
	return nil
}

func insertReturns(ctx context.Context, tx *sql.Tx, runID string, rep *pipeline.Report) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO return_points (run_id, series, kind, date, value) VALUES (?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare returns: %w", err)
	}
	defer stmt.Close()
	for _, rs := range rep.ReturnSeries() {
		for _, p := range rs.Points {
			if _, err := stmt.ExecContext(ctx, runID, rs.ID, rs.Kind.String(), p.Date.Format(time.DateOnly), p.Value); err != nil {
				return fmt.Errorf("insert return %s: %w", rs.ID, err)
			}
		}
	}
	return nil
}

// Runs lists recorded run ids, newest first.
func (r *SQLiteRecorder) Runs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY timestamp DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
