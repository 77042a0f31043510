package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// Affine is the six-coefficient linear map between pixel (col, row)
// indices and georeferenced (x, y) coordinates:
//
//	x = C + col*A + row*B
//	y = F + col*D + row*E
//
// The same coefficient layout GDAL and rasterio use, anchored here at
// cell centers.
type Affine struct {
	A, B, C, D, E, F float64
}

// Apply maps a (possibly fractional) pixel index to coordinates.
func (t Affine) Apply(col, row float64) (x, y float64) {
	return t.C + col*t.A + row*t.B, t.F + col*t.D + row*t.E
}

// Shift returns the window-local transform anchored at (colMin, rowMin),
// so that window-relative indices map to the same coordinates.
func (t Affine) Shift(colMin, rowMin int) Affine {
	x, y := t.Apply(float64(colMin), float64(rowMin))
	return Affine{A: t.A, B: t.B, C: x, D: t.D, E: t.E, F: y}
}

// Invert returns the inverse transform, mapping coordinates back to
// fractional pixel indices. Fails when the transform is degenerate.
func (t Affine) Invert() (Affine, error) {
	det := t.A*t.E - t.B*t.D
	if det == 0 || math.IsNaN(det) {
		return Affine{}, eris.New("affine: transform is not invertible")
	}
	inv := Affine{
		A: t.E / det,
		B: -t.B / det,
		D: -t.D / det,
		E: t.A / det,
	}
	// Translation terms so that inv.Apply(x, y) yields (col, row).
	inv.C = -(inv.A*t.C + inv.B*t.F)
	inv.F = -(inv.D*t.C + inv.E*t.F)
	return inv, nil
}

// floorHalf maps a fractional center-anchored index to the covering
// integer cell: the cell whose center is nearest, ties going down-grid.
func floorHalf(v float64) int {
	return int(math.Floor(v + 0.5))
}
