package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/impactorviz/impactor-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures
// WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	scenario   TEXT NOT NULL,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_name ON runs(name);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// CreateRun records a queued run for the given scenario.
func (s *SQLiteStore) CreateRun(ctx context.Context, scenario model.Scenario) (*model.Run, error) {
	scenarioJSON, err := json.Marshal(scenario)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal scenario")
	}

	run := &model.Run{
		ID:        uuid.NewString(),
		Scenario:  scenario,
		Status:    model.RunStatusQueued,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, scenario, name, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, string(scenarioJSON), scenario.Name, run.Status, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

// UpdateRunStatus transitions a run's status.
func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update run status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}

// CompleteRun stores the result and final status.
func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), statusFor(result), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: complete run")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}

// GetRun fetches a single run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, scenario, status, result, created_at, updated_at FROM runs WHERE id = ?`, runID)

	run, err := scanSQLiteRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: get run: %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get run")
	}
	return run, nil
}

// ListRuns returns runs matching the filter, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, scenario, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Name != "" {
		query += ` AND name = ?`
		args = append(args, filter.Name)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanSQLiteRun(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate runs")
	}
	return runs, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanSQLiteRun decodes one runs row from a Scan function.
func scanSQLiteRun(scan func(dest ...any) error) (*model.Run, error) {
	var (
		run          model.Run
		scenarioJSON string
		resultJSON   sql.NullString
	)
	if err := scan(&run.ID, &scenarioJSON, &run.Status, &resultJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(scenarioJSON), &run.Scenario); err != nil {
		return nil, eris.Wrap(err, "decode scenario")
	}
	if resultJSON.Valid && resultJSON.String != "" {
		run.Result = &model.RunResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), run.Result); err != nil {
			return nil, eris.Wrap(err, "decode result")
		}
	}
	return &run, nil
}
