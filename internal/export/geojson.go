package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// WriteGeoJSON writes the rings as a GeoJSON FeatureCollection.
func WriteGeoJSON(w io.Writer, rings []Ring) error {
	fc := &geojson.FeatureCollection{}
	for _, r := range rings {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: r.Polygon,
			Properties: map[string]interface{}{
				"name":      r.Name,
				"radius_km": r.RadiusKM,
			},
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	return nil
}

// WriteGeoJSONFile writes the rings to a GeoJSON file at path.
func WriteGeoJSONFile(path string, rings []Ring) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create geojson file")
	}
	defer f.Close() //nolint:errcheck

	if err := WriteGeoJSON(f, rings); err != nil {
		return err
	}
	return nil
}
