package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactorviz/impactor-cli/internal/model"
)

func TestLoadScenarios(t *testing.T) {
	yaml := `
- name: colombo
  lat: 6.9271
  lon: 79.8612
  diameter_m: 50
  velocity_km_s: 20
  radius_km: 25
- lat: 35.6762
  lon: 139.6503
  diameter_m: 120
  velocity_km_s: 15
`
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	scenarios, err := loadScenarios(path)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	assert.Equal(t, "colombo", scenarios[0].Name)
	assert.Equal(t, 25.0, scenarios[0].RadiusKM)

	// Unnamed scenarios get a positional name.
	assert.Equal(t, "scenario-2", scenarios[1].Name)
	assert.Equal(t, 120.0, scenarios[1].DiameterM)
	assert.Zero(t, scenarios[1].RadiusKM)
}

func TestLoadScenarios_Missing(t *testing.T) {
	_, err := loadScenarios(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadScenarios_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{not yaml"), 0o644))

	_, err := loadScenarios(path)
	require.Error(t, err)
}

func TestFormatRunsList(t *testing.T) {
	runs := []model.Run{
		{
			ID:       "run-1",
			Scenario: model.Scenario{Name: "colombo"},
			Status:   model.RunStatusComplete,
			Result:   &model.RunResult{Population: 123456, RadiusKM: 25},
		},
		{
			ID:       "run-2",
			Scenario: model.Scenario{Name: "pending"},
			Status:   model.RunStatusQueued,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "colombo")
	assert.Contains(t, out, "123456")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "queued")
}
