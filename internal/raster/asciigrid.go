package raster

import (
	"bufio"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// asciiGrid holds a fully-parsed ESRI ASCII Grid. The format is plain
// text, so the whole grid is decoded once at Open and windowed reads
// slice the in-memory values.
type asciiGrid struct {
	rows, cols int
	values     []float64
}

// openASCIIGrid parses an ESRI ASCII Grid (.asc) file. Header keys
// follow the usual convention: ncols, nrows, xllcorner/xllcenter,
// yllcorner/yllcenter, cellsize, and an optional nodata_value, followed
// by nrows*ncols whitespace-separated values, top row first.
func openASCIIGrid(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "open %s: %s", path, err.Error())
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	sc.Split(bufio.ScanWords)

	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		return sc.Text(), true
	}

	header := map[string]float64{}
	var firstValue string

	// Header entries are key/value pairs; the first token that parses
	// as a number on its own marks the start of the data section.
	for {
		tok, found := next()
		if !found {
			return nil, eris.Wrapf(ErrLoad, "%s: truncated header", path)
		}
		if _, err := strconv.ParseFloat(tok, 64); err == nil {
			firstValue = tok
			break
		}
		val, found := next()
		if !found {
			return nil, eris.Wrapf(ErrLoad, "%s: header key %q has no value", path, tok)
		}
		fv, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, eris.Wrapf(ErrLoad, "%s: header %s: invalid value %q", path, tok, val)
		}
		header[strings.ToLower(tok)] = fv
	}

	cols := int(header["ncols"])
	rows := int(header["nrows"])
	cellSize := header["cellsize"]
	if cols <= 0 || rows <= 0 || cellSize <= 0 {
		return nil, eris.Wrapf(ErrLoad, "%s: invalid grid extents (ncols=%d nrows=%d cellsize=%g)",
			path, cols, rows, cellSize)
	}

	// Lower-left anchor: corner-based unless *center keys are present.
	xOrigin, xCorner := header["xllcorner"], true
	if v, ok := header["xllcenter"]; ok {
		xOrigin, xCorner = v, false
	}
	yOrigin, yCorner := header["yllcorner"], true
	if v, ok := header["yllcenter"]; ok {
		yOrigin, yCorner = v, false
	}

	noData, hasNoData := header["nodata_value"]

	values := make([]float64, 0, rows*cols)
	tok := firstValue
	for {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, eris.Wrapf(ErrLoad, "%s: invalid cell value %q", path, tok)
		}
		if hasNoData && v == noData {
			v = math.NaN()
		}
		values = append(values, v)
		var found bool
		if tok, found = next(); !found {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(ErrLoad, "read %s: %s", path, err.Error())
	}
	if len(values) != rows*cols {
		return nil, eris.Wrapf(ErrLoad, "%s: expected %d cells, found %d", path, rows*cols, len(values))
	}

	// Center-anchored affine for a north-up grid: row 0 is the top row.
	cx := xOrigin
	if xCorner {
		cx += cellSize / 2
	}
	cy := yOrigin
	if yCorner {
		cy += cellSize / 2
	}
	tr := Affine{
		A: cellSize,
		C: cx,
		E: -cellSize,
		F: cy + float64(rows-1)*cellSize,
	}

	return &Raster{
		Width:      cols,
		Height:     rows,
		Transform:  tr,
		CRS:        longlatProj4,
		Geographic: true,
		src:        &asciiGrid{rows: rows, cols: cols, values: values},
	}, nil
}

func (g *asciiGrid) read(w Window) ([]float64, error) {
	out := make([]float64, 0, w.Rows()*w.Cols())
	for r := w.RowMin; r <= w.RowMax; r++ {
		start := r*g.cols + w.ColMin
		out = append(out, g.values[start:start+w.Cols()]...)
	}
	return out, nil
}

func (g *asciiGrid) close() error { return nil }
