// Package store persists one row per completed run — the strategy id,
// its parameter snapshot, the final analyzer summary, and why the run
// stopped — the one-shot hand-off a multi-process optimizer or a
// later reporting pass reads back.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    strategy_id TEXT    NOT NULL,
    params      TEXT    NOT NULL DEFAULT '{}',
    summary     TEXT    NOT NULL DEFAULT '{}',
    stop_reason TEXT    NOT NULL DEFAULT '',
    ticks       INTEGER NOT NULL DEFAULT 0,
    dt_master   REAL    NOT NULL DEFAULT 0,
    finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_strategy ON runs(strategy_id);
CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished_at DESC);
`

// Run is one completed run's hand-off row.
type Run struct {
	ID         string
	StrategyID string
	Params     map[string]float64
	Summary    map[string]float64
	StopReason string
	Ticks      int
	DTMaster   float64
	FinishedAt time.Time
}

// Store is a sqlite-backed run results table (pure Go driver, no cgo).
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the sqlite database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store.Open: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // sqlite is single-writer

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store.Open: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveRun inserts one completed run's result row, replacing the row
// that already has the same ID.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("store.SaveRun: marshal params: %w", err)
	}
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("store.SaveRun: marshal summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, strategy_id, params, summary, stop_reason, ticks, dt_master, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			params      = excluded.params,
			summary     = excluded.summary,
			stop_reason = excluded.stop_reason,
			ticks       = excluded.ticks,
			dt_master   = excluded.dt_master,
			finished_at = excluded.finished_at
	`, run.ID, run.StrategyID, string(params), string(summary), run.StopReason, run.Ticks, run.DTMaster, run.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("store.SaveRun: insert %s: %w", run.ID, err)
	}
	return nil
}

// RunsByStrategy returns every persisted run for strategyID, most
// recently finished first.
func (s *Store) RunsByStrategy(ctx context.Context, strategyID string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, strategy_id, params, summary, stop_reason, ticks, dt_master, finished_at
		FROM runs
		WHERE strategy_id = ?
		ORDER BY finished_at DESC
	`, strategyID)
	if err != nil {
		return nil, fmt.Errorf("store.RunsByStrategy: query: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var params, summary string
		if err := rows.Scan(&r.ID, &r.StrategyID, &params, &summary, &r.StopReason, &r.Ticks, &r.DTMaster, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("store.RunsByStrategy: scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
			return nil, fmt.Errorf("store.RunsByStrategy: unmarshal params for %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(summary), &r.Summary); err != nil {
			return nil, fmt.Errorf("store.RunsByStrategy: unmarshal summary for %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
