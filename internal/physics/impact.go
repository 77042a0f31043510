// Package physics holds the closed-form impact scalings and the
// simplified ballistic/deflection model. These are deliberately
// approximate, order-of-magnitude relations for planning visualization,
// not derived impact physics.
package physics

import (
	"math"

	"github.com/rotisserie/eris"
)

// ErrDomain is the sentinel for physically invalid inputs. It is never
// silently clamped away; callers decide how to surface it.
var ErrDomain = eris.New("physics: input outside physical domain")

// DefaultDensityKgM3 is the assumed impactor bulk density (stony).
const DefaultDensityKgM3 = 3000.0

// KineticEnergyJ returns the impactor's kinetic energy in joules.
func KineticEnergyJ(massKg, velocityKmS float64) float64 {
	v := velocityKmS * 1000
	return 0.5 * massKg * v * v
}

// CraterDiameterKM estimates the simple crater diameter from the
// impactor's diameter and velocity, assuming a spherical body of the
// default density and an empirical energy^(1/4) scaling.
func CraterDiameterKM(diameterM, velocityKmS float64) (float64, error) {
	return CraterDiameterDensityKM(diameterM, velocityKmS, DefaultDensityKgM3)
}

// CraterDiameterDensityKM is CraterDiameterKM with an explicit bulk
// density in kg/m^3.
func CraterDiameterDensityKM(diameterM, velocityKmS, densityKgM3 float64) (float64, error) {
	if diameterM <= 0 {
		return 0, eris.Wrapf(ErrDomain, "impactor diameter must be positive, got %g m", diameterM)
	}
	if velocityKmS <= 0 {
		return 0, eris.Wrapf(ErrDomain, "impact velocity must be positive, got %g km/s", velocityKmS)
	}

	radius := diameterM / 2
	mass := 4.0 / 3.0 * math.Pi * radius * radius * radius * densityKgM3
	energy := KineticEnergyJ(mass, velocityKmS)

	return 0.01 * math.Pow(energy, 0.25) / 1000, nil
}

// BlastRadiusKM approximates the ~1 psi overpressure radius as a fixed
// multiple of the crater diameter.
func BlastRadiusKM(craterKM float64) float64 {
	return craterKM * 2.0
}

// ThermalRadiationRadiusKM approximates the thermal radiation radius as
// a fixed multiple of the crater diameter.
func ThermalRadiationRadiusKM(craterKM float64) float64 {
	return craterKM * 4.0
}
