package export

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
)

// WriteShapefile writes the rings to an ESRI shapefile at path, with
// NAME and RADIUS_KM attributes. go-shp creates the .shx and .dbf
// sidecars next to it.
func WriteShapefile(path string, rings []Ring) error {
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return eris.Wrap(err, "export: create shapefile")
	}
	defer w.Close() //nolint:errcheck

	fields := []shp.Field{
		shp.StringField("NAME", 32),
		shp.FloatField("RADIUS_KM", 16, 6),
	}
	if err := w.SetFields(fields); err != nil {
		return eris.Wrap(err, "export: set shapefile fields")
	}

	for i, r := range rings {
		flat := r.Polygon.FlatCoords()
		pts := make([]shp.Point, 0, len(flat)/2)
		for j := 0; j+1 < len(flat); j += 2 {
			pts = append(pts, shp.Point{X: flat[j], Y: flat[j+1]})
		}
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{pts}))
		w.Write(&poly)

		if err := w.WriteAttribute(i, 0, r.Name); err != nil {
			return eris.Wrap(err, "export: write shapefile attribute")
		}
		if err := w.WriteAttribute(i, 1, r.RadiusKM); err != nil {
			return eris.Wrap(err, "export: write shapefile attribute")
		}
	}

	return nil
}
