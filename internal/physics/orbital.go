package physics

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/impactorviz/impactor-cli/internal/geo"
)

// DefaultEntryAltitudeKM is the entry interface altitude used by the
// ballistic impact-point estimate.
const DefaultEntryAltitudeKM = 120.0

// impactAzimuthDeg fixes the assumed ground-track direction. The model
// has no azimuth input, so displacement is always due south; a known
// simplification carried for behavioral parity with the track the
// exposure numbers were calibrated against.
const impactAzimuthDeg = 180.0

// PredictImpactPoint estimates the surface impact point from the entry
// interface location and velocity vector, using a flat ballistic
// time-to-ground from the vertical velocity component.
//
// flightPathAngleDeg is measured from local horizontal; it must imply a
// downward trajectory (vertical component > 0) or ErrDomain is
// returned.
func PredictImpactPoint(lat, lon, velocityKmS, flightPathAngleDeg float64) (impactLat, impactLon float64, err error) {
	return PredictImpactPointAltitude(lat, lon, velocityKmS, flightPathAngleDeg, DefaultEntryAltitudeKM)
}

// PredictImpactPointAltitude is PredictImpactPoint with an explicit
// entry altitude in km.
func PredictImpactPointAltitude(lat, lon, velocityKmS, flightPathAngleDeg, altitudeKM float64) (impactLat, impactLon float64, err error) {
	if velocityKmS <= 0 {
		return 0, 0, eris.Wrapf(ErrDomain, "entry velocity must be positive, got %g km/s", velocityKmS)
	}
	// Angles at or past the horizontal (and the degenerate 180 case,
	// where floating-point sin stays barely positive) are not downward
	// trajectories.
	if flightPathAngleDeg <= 0 || flightPathAngleDeg >= 180 {
		return 0, 0, eris.Wrapf(ErrDomain,
			"flight path angle %g deg does not give a downward trajectory", flightPathAngleDeg)
	}
	angleRad := flightPathAngleDeg * math.Pi / 180

	verticalVelocity := velocityKmS * math.Sin(angleRad)

	timeToImpact := altitudeKM / verticalVelocity
	horizontalVelocity := velocityKmS * math.Cos(angleRad)
	downrangeKM := horizontalVelocity * timeToImpact

	impactLat, impactLon = geo.Destination(lat, lon, impactAzimuthDeg, downrangeKM)
	return impactLat, impactLon, nil
}

// SimulateDeflectionEffect estimates how a small velocity change
// applied before impact shifts the ground point. The displacement is
// first-order linear in delta-v and lead time, scaled by the delta-v to
// original-velocity ratio; it is not an orbital-mechanics solution and
// is documented as such.
func SimulateDeflectionEffect(lat, lon, deltaVmS, leadTimeDays, originalVelocityKmS float64) (shiftedLat, shiftedLon float64, err error) {
	if originalVelocityKmS <= 0 {
		return 0, 0, eris.Wrapf(ErrDomain,
			"original velocity must be positive, got %g km/s", originalVelocityKmS)
	}

	seconds := leadTimeDays * 86400.0
	displacementKM := deltaVmS * seconds / 1000.0

	// Scale by the delta-v to orbital-velocity ratio: a 1 m/s nudge at
	// 20 km/s moves the ground point only slightly.
	scale := deltaVmS / (originalVelocityKmS * 1000.0)
	downrangeShiftKM := displacementKM * scale

	// The original model walks the shift backwards along the fixed
	// azimuth; keep the negative-distance convention.
	shiftedLat, shiftedLon = geo.Destination(lat, lon, impactAzimuthDeg, -downrangeShiftKM)
	return shiftedLat, shiftedLon, nil
}
