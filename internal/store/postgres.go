package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/impactorviz/impactor-cli/internal/db"
	"github.com/impactorviz/impactor-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	scenario   JSONB NOT NULL,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_name ON runs(name);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// CreateRun records a queued run for the given scenario.
func (s *PostgresStore) CreateRun(ctx context.Context, scenario model.Scenario) (*model.Run, error) {
	scenarioJSON, err := json.Marshal(scenario)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal scenario")
	}

	run := &model.Run{
		ID:        uuid.NewString(),
		Scenario:  scenario,
		Status:    model.RunStatusQueued,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, scenario, name, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, scenarioJSON, scenario.Name, run.Status, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return run, nil
}

// UpdateRunStatus transitions a run's status.
func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update run status")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

// CompleteRun stores the result and final status.
func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, statusFor(result), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: complete run")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

// GetRun fetches a single run by id.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, scenario, status, result, created_at, updated_at FROM runs WHERE id = $1`, runID)

	run, err := scanPostgresRun(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: get run: %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	return run, nil
}

// ListRuns returns runs matching the filter, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, scenario, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.Name != "" {
		args = append(args, filter.Name)
		query += ` AND name = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanPostgresRun(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate runs")
	}
	return runs, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// scanPostgresRun decodes one runs row from a Scan function.
func scanPostgresRun(scan func(dest ...any) error) (*model.Run, error) {
	var (
		run          model.Run
		scenarioJSON []byte
		resultJSON   []byte
	)
	if err := scan(&run.ID, &scenarioJSON, &run.Status, &resultJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scenarioJSON, &run.Scenario); err != nil {
		return nil, eris.Wrap(err, "decode scenario")
	}
	if len(resultJSON) > 0 {
		run.Result = &model.RunResult{}
		if err := json.Unmarshal(resultJSON, run.Result); err != nil {
			return nil, eris.Wrap(err, "decode result")
		}
	}
	return &run, nil
}
