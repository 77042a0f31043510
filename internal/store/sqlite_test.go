package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactorviz/impactor-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testScenario(name string) model.Scenario {
	return model.Scenario{
		Name:        name,
		Lat:         10.0,
		Lon:         80.0,
		DiameterM:   50,
		VelocityKmS: 20,
		RadiusKM:    25,
	}
}

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, testScenario("colombo"))
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "colombo", got.Scenario.Name)
	assert.Equal(t, 50.0, got.Scenario.DiameterM)
	assert.Nil(t, got.Result)
}

func TestSQLiteStore_GetRun_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_StatusLifecycle(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, testScenario("colombo"))
	require.NoError(t, err)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning))
	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, got.Status)

	result := &model.RunResult{
		CraterKM:   1.2,
		BlastKM:    2.4,
		ThermalKM:  4.8,
		RadiusKM:   25,
		Population: 123456,
	}
	require.NoError(t, s.CompleteRun(ctx, run.ID, result))

	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 123456.0, got.Result.Population)
}

func TestSQLiteStore_CompleteRun_Failure(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, testScenario("colombo"))
	require.NoError(t, err)

	require.NoError(t, s.CompleteRun(ctx, run.ID, &model.RunResult{Error: "raster: load failed"}))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "raster: load failed", got.Result.Error)
}

func TestSQLiteStore_UpdateRunStatus_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	err := s.UpdateRunStatus(context.Background(), "missing", model.RunStatusRunning)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := s.CreateRun(ctx, testScenario("alpha"))
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, testScenario("beta"))
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, testScenario("alpha"))
	require.NoError(t, err)

	require.NoError(t, s.UpdateRunStatus(ctx, a.ID, model.RunStatusRunning))

	t.Run("all", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, runs, 3)
	})

	t.Run("by status", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusRunning})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, a.ID, runs[0].ID)
	})

	t.Run("by name", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunFilter{Name: "alpha"})
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})

	t.Run("limit", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})

	t.Run("no match", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunFilter{Name: "gamma"})
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}
