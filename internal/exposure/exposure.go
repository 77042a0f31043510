// Package exposure estimates how many people live within a radius of a
// point, by windowed reads against a population-count raster. The
// bounding-box step is intentionally loose (it may over-cover the true
// circle, never under-cover); membership is decided by the exact
// haversine filter applied per cell.
package exposure

import (
	"math"

	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"

	"github.com/impactorviz/impactor-cli/internal/geo"
	"github.com/impactorviz/impactor-cli/internal/raster"
)

// ComputeWindow returns the minimal pixel window covering radiusKM
// around (lat, lon), clamped to the raster's bounds. ok is false when
// the search box falls entirely outside the raster's coordinate domain;
// callers treat that as a zero-population result, not an error.
//
// The radius-to-degrees conversion uses the fixed 1 degree = 111 km
// approximation. That is deliberate: the box only has to contain the
// circle, and the haversine filter downstream discards the overshoot.
func ComputeWindow(r *raster.Raster, lat, lon, radiusKM float64) (raster.Window, bool) {
	radiusDeg := radiusKM / geo.KMPerDegree
	minX := lon - radiusDeg
	maxX := lon + radiusDeg
	minY := lat - radiusDeg
	maxY := lat + radiusDeg

	// The box is in geographic degrees; a projected raster needs its
	// corners carried into the native frame before the inverse affine.
	if !r.Geographic {
		var err error
		minX, maxX, minY, maxY, err = projectBounds(r.CRS, minX, maxX, minY, maxY)
		if err != nil {
			return raster.Window{}, false
		}
	}

	inv, err := r.Transform.Invert()
	if err != nil {
		return raster.Window{}, false
	}

	// Opposite corners: top-left gives (rowMin, colMin) on a north-up
	// grid, bottom-right gives (rowMax, colMax).
	c0, r0 := inv.Apply(minX, maxY)
	c1, r1 := inv.Apply(maxX, minY)

	rowMin, rowMax := orderIdx(r0, r1)
	colMin, colMax := orderIdx(c0, c1)

	// Entirely outside the pixel grid: empty-window sentinel.
	if rowMax < 0 || rowMin > r.Height-1 || colMax < 0 || colMin > r.Width-1 {
		return raster.Window{}, false
	}

	rowMin = clamp(rowMin, 0, r.Height-1)
	rowMax = clamp(rowMax, 0, r.Height-1)
	colMin = clamp(colMin, 0, r.Width-1)
	colMax = clamp(colMax, 0, r.Width-1)

	// Clamping can invert a degenerate interval; collapse it to the
	// nearest boundary so a reachable domain always reads at least one
	// cell.
	if rowMax < rowMin {
		rowMax = rowMin
	}
	if colMax < colMin {
		colMax = colMin
	}

	return raster.Window{RowMin: rowMin, RowMax: rowMax, ColMin: colMin, ColMax: colMax}, true
}

// ResolveCoordinates returns the geographic longitude and latitude of
// every pixel center in the window, row-major, shaped like the window's
// block. For non-geographic rasters the native coordinates are
// reprojected once per window.
func ResolveCoordinates(r *raster.Raster, w raster.Window) (lons, lats []float64, err error) {
	wt := r.Transform.Shift(w.ColMin, w.RowMin)

	n := w.Rows() * w.Cols()
	lons = make([]float64, 0, n)
	lats = make([]float64, 0, n)
	for i := 0; i < w.Rows(); i++ {
		for j := 0; j < w.Cols(); j++ {
			x, y := wt.Apply(float64(j), float64(i))
			lons = append(lons, x)
			lats = append(lats, y)
		}
	}

	if r.Geographic {
		return lons, lats, nil
	}

	src, err := proj.Parse(r.CRS)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "exposure: parse raster CRS %q", r.CRS)
	}
	dst, err := proj.Parse("+proj=longlat +datum=WGS84 +no_defs")
	if err != nil {
		return nil, nil, eris.Wrap(err, "exposure: parse geodetic CRS")
	}
	ct, err := src.NewTransform(dst)
	if err != nil {
		return nil, nil, eris.Wrap(err, "exposure: build CRS transform")
	}
	for i := range lons {
		lon, lat, err := ct(lons[i], lats[i])
		if err != nil {
			return nil, nil, eris.Wrap(err, "exposure: reproject pixel center")
		}
		lons[i] = lon
		lats[i] = lat
	}
	return lons, lats, nil
}

// PopulationWithinRadius sums the population of every raster cell whose
// center lies within radiusKM (inclusive) of (lat, lon). Cells holding
// NaN or non-positive values never contribute; a query outside raster
// coverage returns 0.0, not an error.
func PopulationWithinRadius(r *raster.Raster, lat, lon, radiusKM float64) (float64, error) {
	w, ok := ComputeWindow(r, lat, lon, radiusKM)
	if !ok {
		return 0.0, nil
	}

	block, err := r.Read(w)
	if err != nil {
		return 0, eris.Wrap(err, "exposure: read population window")
	}

	lons, lats, err := ResolveCoordinates(r, w)
	if err != nil {
		return 0, err
	}

	var total float64
	for i, v := range block.Values {
		if math.IsNaN(v) || v <= 0 {
			continue
		}
		if geo.HaversineKM(lat, lon, lats[i], lons[i]) <= radiusKM {
			total += v
		}
	}
	return total, nil
}

// projectBounds carries a geographic bounding box into the raster's
// native frame, re-deriving min/max since projection can flip axes.
func projectBounds(crs string, minX, maxX, minY, maxY float64) (float64, float64, float64, float64, error) {
	src, err := proj.Parse("+proj=longlat +datum=WGS84 +no_defs")
	if err != nil {
		return 0, 0, 0, 0, err
	}
	dst, err := proj.Parse(crs)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	ct, err := src.NewTransform(dst)
	if err != nil {
		return 0, 0, 0, 0, err
	}

	x0, y0, err := ct(minX, minY)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	x1, y1, err := ct(maxX, maxY)
	if err != nil {
		return 0, 0, 0, 0, err
	}

	return math.Min(x0, x1), math.Max(x0, x1), math.Min(y0, y1), math.Max(y0, y1), nil
}

func orderIdx(a, b float64) (lo, hi int) {
	ia := floorHalf(a)
	ib := floorHalf(b)
	if ia <= ib {
		return ia, ib
	}
	return ib, ia
}

func floorHalf(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
