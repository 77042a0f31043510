// Package store persists scenario evaluation runs. Two drivers are
// provided: SQLite for local use and Postgres for shared deployments.
package store

import (
	"context"

	"github.com/impactorviz/impactor-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Name   string          `json:"name,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for scenario runs.
type Store interface {
	// CreateRun records a queued run for the given scenario.
	CreateRun(ctx context.Context, scenario model.Scenario) (*model.Run, error)
	// UpdateRunStatus transitions a run's status.
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	// CompleteRun stores the result and marks the run complete, or
	// failed when the result carries an error.
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	// GetRun fetches a single run by id.
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	// ListRuns returns runs matching the filter, newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Migrate creates or upgrades the schema.
	Migrate(ctx context.Context) error
	Close() error
}

func statusFor(result *model.RunResult) model.RunStatus {
	if result != nil && result.Error != "" {
		return model.RunStatusFailed
	}
	return model.RunStatusComplete
}
