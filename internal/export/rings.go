// Package export renders impact results as GIS layers and spreadsheet
// reports. Damage rings are circle polygons around the impact point,
// one per effect radius, suitable for loading into QGIS or a web map.
package export

import (
	"github.com/twpayne/go-geom"

	mygeo "github.com/impactorviz/impactor-cli/internal/geo"
	"github.com/impactorviz/impactor-cli/internal/model"
)

// ringSegments is the number of vertices per circle.
const ringSegments = 72

// Ring is one damage zone as a closed polygon.
type Ring struct {
	Name     string
	RadiusKM float64
	Polygon  *geom.Polygon
}

// circle builds a closed ring of points distanceKM from the center at
// every azimuth step. Vertices run clockwise (north, east, south,
// west), matching shapefile outer-ring winding.
func circle(lat, lon, radiusKM float64) *geom.Polygon {
	coords := make([]float64, 0, (ringSegments+1)*2)
	for i := 0; i <= ringSegments; i++ {
		az := float64(i%ringSegments) * 360.0 / ringSegments
		dLat, dLon := mygeo.Destination(lat, lon, az, radiusKM)
		coords = append(coords, dLon, dLat)
	}
	return geom.NewPolygonFlat(geom.XY, coords, []int{len(coords)}).SetSRID(4326)
}

// DamageRings returns the effect zones of a run as polygons, innermost
// first. Zones with a zero radius are omitted.
func DamageRings(lat, lon float64, result model.RunResult) []Ring {
	zones := []struct {
		name   string
		radius float64
	}{
		{"crater", result.CraterKM},
		{"blast", result.BlastKM},
		{"thermal", result.ThermalKM},
		{"exposure", result.RadiusKM},
	}

	var rings []Ring
	for _, z := range zones {
		if z.radius <= 0 {
			continue
		}
		rings = append(rings, Ring{
			Name:     z.name,
			RadiusKM: z.radius,
			Polygon:  circle(lat, lon, z.radius),
		})
	}
	return rings
}
