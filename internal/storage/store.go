package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a queried record does not exist.
var ErrNotFound = errors.New("record not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	source_path   TEXT NOT NULL,
	product_count INTEGER NOT NULL,
	found_count   INTEGER NOT NULL,
	kit_count     INTEGER NOT NULL,
	started_at    TIMESTAMP NOT NULL,
	finished_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS run_analyses (
	run_id         TEXT NOT NULL REFERENCES runs(id),
	product_name   TEXT NOT NULL,
	product_code   TEXT NOT NULL,
	category       TEXT NOT NULL,
	found          INTEGER NOT NULL,
	avg_price      REAL NOT NULL,
	margin_percent REAL NOT NULL,
	overall_score  REAL NOT NULL,
	recommendation TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_analyses_run_id ON run_analyses(run_id);
`

// Store is the run history repository.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the history database at path.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db, log: log.With().Str("component", "storage").Logger()}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun records a run and its per-product rows in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *Run, analyses []RunAnalysis) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, source_path, product_count, found_count, kit_count, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID.String(), run.SourcePath, run.ProductCount, run.FoundCount, run.KitCount,
		run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, a := range analyses {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_analyses (run_id, product_name, product_code, category, found,
				avg_price, margin_percent, overall_score, recommendation)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID.String(), a.ProductName, a.ProductCode, a.Category, a.Found,
			a.AvgPrice, a.MarginPercent, a.OverallScore, a.Recommendation)
		if err != nil {
			return fmt.Errorf("inserting analysis row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	s.log.Debug().Str("run_id", run.ID.String()).Int("analyses", len(analyses)).Msg("run recorded")
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_path, product_count, found_count, kit_count, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var id string
		var started, finished time.Time
		if err := rows.Scan(&id, &run.SourcePath, &run.ProductCount, &run.FoundCount,
			&run.KitCount, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parsing run id %q: %w", id, err)
		}
		run.StartedAt = started
		run.FinishedAt = finished
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run by ID.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	run := &Run{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT source_path, product_count, found_count, kit_count, started_at, finished_at
		FROM runs WHERE id = ?
	`, id.String()).Scan(&run.SourcePath, &run.ProductCount, &run.FoundCount,
		&run.KitCount, &run.StartedAt, &run.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching run: %w", err)
	}
	return run, nil
}

// AnalysesForRun returns the stored analysis rows of a run in insertion
// order.
func (s *Store) AnalysesForRun(ctx context.Context, runID uuid.UUID) ([]RunAnalysis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, product_name, product_code, category, found,
			avg_price, margin_percent, overall_score, recommendation
		FROM run_analyses WHERE run_id = ? ORDER BY rowid
	`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var analyses []RunAnalysis
	for rows.Next() {
		var a RunAnalysis
		var id string
		if err := rows.Scan(&id, &a.ProductName, &a.ProductCode, &a.Category, &a.Found,
			&a.AvgPrice, &a.MarginPercent, &a.OverallScore, &a.Recommendation); err != nil {
			return nil, fmt.Errorf("scanning analysis row: %w", err)
		}
		a.RunID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parsing run id %q: %w", id, err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}
