// Package raster provides read-only handles to gridded population-count
// data. A handle exposes the grid's affine transform, coordinate
// reference, and windowed reads of cell values. Handles are immutable
// after Open and safe for concurrent reads.
//
// Two backends are supported, chosen by file extension: ESRI ASCII Grid
// (.asc) and COARDS-compliant NetCDF (.nc, .ncf).
package raster

import (
	"path/filepath"
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
)

// ErrLoad is the sentinel for raster files that are missing, unreadable,
// or lack a valid affine transform or coordinate reference.
var ErrLoad = eris.New("raster: load failed")

// longlatProj4 is the geodetic frame all distance math runs in.
const longlatProj4 = "+proj=longlat +datum=WGS84 +no_defs"

// Raster is an immutable handle to a 2-D grid of real-valued cell
// counts. "No data" cells hold NaN or non-positive values; callers are
// expected to mask them.
type Raster struct {
	Width  int
	Height int

	// Transform maps integer pixel (col, row) indices to the
	// geographic coordinates of cell centers.
	Transform Affine

	// CRS is the proj4 definition of the raster's native frame.
	CRS string

	// Geographic reports whether native x/y are already degrees of
	// longitude/latitude.
	Geographic bool

	src blockReader
}

// blockReader reads the cell values covered by a window.
type blockReader interface {
	read(w Window) ([]float64, error)
	close() error
}

// Option configures Open.
type Option func(*openOpts)

type openOpts struct {
	proj4    string
	variable string
}

// WithProj4 declares the raster's native coordinate reference as a
// proj4 string, for files that do not carry one. Anything other than a
// longlat projection marks the raster as non-geographic.
func WithProj4(def string) Option {
	return func(o *openOpts) { o.proj4 = def }
}

// WithVariable selects the NetCDF variable holding population counts.
// By default the first 2-D non-coordinate variable is used.
func WithVariable(name string) Option {
	return func(o *openOpts) { o.variable = name }
}

// Open loads a population raster, choosing the backend by extension.
// The returned handle keeps the underlying file open across queries.
func Open(path string, opts ...Option) (*Raster, error) {
	var o openOpts
	for _, opt := range opts {
		opt(&o)
	}

	var (
		r   *Raster
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".asc", ".agr":
		r, err = openASCIIGrid(path)
	case ".nc", ".ncf":
		r, err = openNetCDF(path, o.variable)
	default:
		return nil, eris.Wrapf(ErrLoad, "unsupported raster format %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if o.proj4 != "" {
		r.CRS = o.proj4
		r.Geographic = strings.Contains(o.proj4, "+proj=longlat")
	}

	// A projected raster's CRS drives every coordinate resolution; an
	// undefined one must fail here, not dissolve into empty queries.
	if !r.Geographic {
		if _, parseErr := proj.Parse(r.CRS); parseErr != nil {
			_ = r.src.close()
			return nil, eris.Wrapf(ErrLoad, "%s: invalid CRS %q: %s", path, r.CRS, parseErr.Error())
		}
	}

	if _, err := r.Transform.Invert(); err != nil {
		_ = r.src.close()
		return nil, eris.Wrapf(ErrLoad, "%s: %s", path, err.Error())
	}

	return r, nil
}

// Read returns the cell values for the given window. The window must
// already be clamped to [0,Height-1]x[0,Width-1].
func (r *Raster) Read(w Window) (*Block, error) {
	vals, err := r.src.read(w)
	if err != nil {
		return nil, err
	}
	return &Block{Rows: w.Rows(), Cols: w.Cols(), Values: vals}, nil
}

// Index maps native-frame coordinates to the pixel (row, col) holding
// them. ok is false when the coordinates fall outside the pixel grid.
func (r *Raster) Index(x, y float64) (row, col int, ok bool) {
	inv, _ := r.Transform.Invert()
	fc, fr := inv.Apply(x, y)
	row = floorHalf(fr)
	col = floorHalf(fc)
	ok = row >= 0 && row < r.Height && col >= 0 && col < r.Width
	return row, col, ok
}

// Close releases the underlying file handle.
func (r *Raster) Close() error {
	return r.src.close()
}

// Window is a rectangle of inclusive pixel index ranges.
type Window struct {
	RowMin, RowMax int
	ColMin, ColMax int
}

// Rows returns the window's height in pixels.
func (w Window) Rows() int { return w.RowMax - w.RowMin + 1 }

// Cols returns the window's width in pixels.
func (w Window) Cols() int { return w.ColMax - w.ColMin + 1 }

// Block holds the cell values read for a window, row-major.
type Block struct {
	Rows, Cols int
	Values     []float64
}

// At returns the value at window-relative row i, column j.
func (b *Block) At(i, j int) float64 {
	return b.Values[i*b.Cols+j]
}
