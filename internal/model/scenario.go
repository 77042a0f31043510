// Package model defines the value types shared across the impact
// evaluation pipeline and its stores.
package model

import "time"

// RunStatus represents the current state of a scenario evaluation run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Scenario describes one impact case to evaluate: an object and where
// it hits. Scenarios come from YAML files, CLI flags, or the NEO
// catalog with defaults substituted.
type Scenario struct {
	Name        string  `json:"name" yaml:"name"`
	Lat         float64 `json:"lat" yaml:"lat"`
	Lon         float64 `json:"lon" yaml:"lon"`
	DiameterM   float64 `json:"diameter_m" yaml:"diameter_m"`
	VelocityKmS float64 `json:"velocity_km_s" yaml:"velocity_km_s"`

	// RadiusKM overrides the exposure radius; when zero the blast
	// radius derived from the object is used.
	RadiusKM float64 `json:"radius_km,omitempty" yaml:"radius_km,omitempty"`
}

// Run represents a single evaluation of a scenario.
type Run struct {
	ID        string     `json:"id"`
	Scenario  Scenario   `json:"scenario"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the computed outcome of a run.
type RunResult struct {
	CraterKM   float64 `json:"crater_km"`
	BlastKM    float64 `json:"blast_km"`
	ThermalKM  float64 `json:"thermal_km"`
	RadiusKM   float64 `json:"radius_km"`
	Population float64 `json:"population"`
	Error      string  `json:"error,omitempty"`
}
