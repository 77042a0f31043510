package raster

import (
	"math"
	"os"
	"sync"

	"github.com/ctessum/cdf"
	"github.com/rotisserie/eris"
)

// netCDFGrid reads population counts from a COARDS-compliant NetCDF
// file (NetCDF 4 and greater not supported). Unlike the ASCII backend,
// reads are windowed hyperslabs against the open file, so query cost
// scales with window size rather than grid size.
type netCDFGrid struct {
	mu       sync.Mutex
	f        *os.File
	cf       *cdf.File
	variable string
	fill     float64
	hasFill  bool
}

var latNames = map[string]bool{"lat": true, "latitude": true, "y": true}
var lonNames = map[string]bool{"lon": true, "longitude": true, "x": true}

// openNetCDF opens a COARDS NetCDF population grid. Data are assumed
// row-major (latitude-major) over 1-D lat/lon coordinate vectors, the
// layout WorldPop and SEDAC exports use.
func openNetCDF(path, variable string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "open %s: %s", path, err.Error())
	}

	cf, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, eris.Wrapf(ErrLoad, "%s: parse NetCDF header: %s", path, err.Error())
	}

	if variable == "" {
		variable = pickGridVariable(cf)
		if variable == "" {
			f.Close()
			return nil, eris.Wrapf(ErrLoad, "%s: no 2-D grid variable found", path)
		}
	}

	dims := cf.Header.Lengths(variable)
	if len(dims) != 2 {
		f.Close()
		return nil, eris.Wrapf(ErrLoad, "%s: variable %q is not a 2-D grid", path, variable)
	}
	rows, cols := dims[0], dims[1]

	lats, err := coordVector(cf, latNames, rows)
	if err != nil {
		f.Close()
		return nil, eris.Wrapf(ErrLoad, "%s: %s", path, err.Error())
	}
	lons, err := coordVector(cf, lonNames, cols)
	if err != nil {
		f.Close()
		return nil, eris.Wrapf(ErrLoad, "%s: %s", path, err.Error())
	}

	// Coordinate vectors give cell centers; derive a diagonal affine
	// from their (assumed uniform) spacing.
	if rows < 2 || cols < 2 {
		f.Close()
		return nil, eris.Wrapf(ErrLoad, "%s: grid must be at least 2x2", path)
	}
	tr := Affine{
		A: (lons[cols-1] - lons[0]) / float64(cols-1),
		C: lons[0],
		E: (lats[rows-1] - lats[0]) / float64(rows-1),
		F: lats[0],
	}

	src := &netCDFGrid{f: f, cf: cf, variable: variable}
	if fill, ok := fillValue(cf, variable); ok {
		src.fill = fill
		src.hasFill = true
	}

	return &Raster{
		Width:      cols,
		Height:     rows,
		Transform:  tr,
		CRS:        longlatProj4,
		Geographic: true,
		src:        src,
	}, nil
}

// pickGridVariable returns the first 2-D variable that is not a
// coordinate vector.
func pickGridVariable(cf *cdf.File) string {
	for _, v := range cf.Header.Variables() {
		if latNames[v] || lonNames[v] {
			continue
		}
		if len(cf.Header.Lengths(v)) == 2 {
			return v
		}
	}
	return ""
}

// coordVector reads a 1-D coordinate variable matching one of the given
// names, with the expected length.
func coordVector(cf *cdf.File, names map[string]bool, n int) ([]float64, error) {
	for _, v := range cf.Header.Variables() {
		if !names[v] {
			continue
		}
		dims := cf.Header.Lengths(v)
		if len(dims) != 1 || dims[0] != n {
			return nil, eris.Errorf("coordinate variable %q has unexpected shape", v)
		}
		r := cf.Reader(v, nil, nil)
		buf := r.Zero(n)
		if _, err := r.Read(buf); err != nil {
			return nil, eris.Wrapf(err, "read coordinate variable %q", v)
		}
		return toFloat64(buf), nil
	}
	return nil, eris.New("no latitude/longitude coordinate variable found")
}

// fillValue returns the variable's _FillValue (or missing_value)
// attribute when present.
func fillValue(cf *cdf.File, variable string) (float64, bool) {
	for _, attr := range []string{"_FillValue", "missing_value"} {
		if v := cf.Header.GetAttribute(variable, attr); v != nil {
			if fv := toFloat64(v); len(fv) > 0 {
				return fv[0], true
			}
		}
	}
	return 0, false
}

func (g *netCDFGrid) read(w Window) ([]float64, error) {
	// cdf readers share the underlying file offset bookkeeping, so
	// serialize windowed reads on the handle.
	g.mu.Lock()
	defer g.mu.Unlock()

	begin := []int{w.RowMin, w.ColMin}
	end := []int{w.RowMax + 1, w.ColMax + 1}
	r := g.cf.Reader(g.variable, begin, end)

	n := w.Rows() * w.Cols()
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, eris.Wrapf(err, "raster: read window %+v", w)
	}

	vals := toFloat64(buf)
	if g.hasFill {
		for i, v := range vals {
			if v == g.fill {
				vals[i] = math.NaN()
			}
		}
	}
	return vals, nil
}

func (g *netCDFGrid) close() error { return g.f.Close() }

// toFloat64 widens the numeric slice types cdf hands back.
func toFloat64(buf interface{}) []float64 {
	switch b := buf.(type) {
	case []float64:
		return b
	case []float32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out
	case []int32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out
	case []int16:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out
	case []int8:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out
	default:
		return nil
	}
}
