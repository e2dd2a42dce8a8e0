// Package sqlite persists run diagnostics using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/visionpr/reviewer/internal/usecase/review"
)

// Store implements the review use case's Store port.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite store at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- One row per review run, updated as the run progresses
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		target TEXT NOT NULL,
		provider TEXT NOT NULL,
		state TEXT NOT NULL,
		candidates INTEGER DEFAULT 0,
		comments INTEGER DEFAULT 0,
		warnings INTEGER DEFAULT 0,
		rejections INTEGER DEFAULT 0,
		duplicates INTEGER DEFAULT 0,
		submissions INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun inserts or replaces the diagnostics row for a run. The orchestrator
// may save the same run more than once as it moves through states.
func (s *Store) SaveRun(ctx context.Context, rec review.RunRecord) error {
	query := `
		INSERT OR REPLACE INTO runs
			(run_id, started_at, target, provider, state, candidates, comments,
			 warnings, rejections, duplicates, submissions, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.RunID,
		rec.StartedAt.Unix(),
		rec.Target,
		rec.Provider,
		rec.State,
		rec.Candidates,
		rec.Comments,
		rec.Warnings,
		rec.Rejections,
		rec.Duplicates,
		rec.Submissions,
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (review.RunRecord, error) {
	query := selectColumns + ` WHERE run_id = ?`

	row := s.db.QueryRowContext(ctx, query, runID)
	rec, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return review.RunRecord{}, fmt.Errorf("run not found: %s", runID)
		}
		return review.RunRecord{}, fmt.Errorf("failed to get run: %w", err)
	}
	return rec, nil
}

// ListRuns retrieves the most recent runs, limited by the given count.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]review.RunRecord, error) {
	query := selectColumns + ` ORDER BY started_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var recs []review.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return recs, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const selectColumns = `
	SELECT run_id, started_at, target, provider, state, candidates, comments,
	       warnings, rejections, duplicates, submissions, error
	FROM runs`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (review.RunRecord, error) {
	var rec review.RunRecord
	var startedAt int64
	var errText sql.NullString

	if err := row.Scan(
		&rec.RunID,
		&startedAt,
		&rec.Target,
		&rec.Provider,
		&rec.State,
		&rec.Candidates,
		&rec.Comments,
		&rec.Warnings,
		&rec.Rejections,
		&rec.Duplicates,
		&rec.Submissions,
		&errText,
	); err != nil {
		return review.RunRecord{}, err
	}

	rec.StartedAt = time.Unix(startedAt, 0)
	rec.Error = errText.String
	return rec, nil
}
