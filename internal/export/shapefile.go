// Package export writes the aggregated neighborhoods to interchange formats:
// GeoJSON, ESRI shapefile, and an XLSX stats workbook.
package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/urbanlens/geoatlas/internal/model"
)

// WriteShapefile writes neighborhoods and their stats as a polygon shapefile.
// Coordinates stay in WGS84, matching the stored geometries.
func WriteShapefile(path string, hoods []model.Neighborhood, sts []model.NeighborhoodStat) error {
	if len(hoods) == 0 {
		return eris.New("export: no neighborhoods to write")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}

	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}

	if err := writeShapeRecords(w, hoods, sts); err != nil {
		w.Close()
		return err
	}
	w.Close()

	// go-shp names the attribute sidecar "<base>dbf"; rename it to the
	// "<base>.dbf" every shapefile reader expects.
	base := strings.TrimSuffix(path, ".shp")
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return eris.Wrapf(err, "export: rename attribute table for %s", path)
	}

	zap.L().Info("shapefile written",
		zap.String("path", path),
		zap.Int("neighborhoods", len(hoods)),
	)
	return nil
}

func writeShapeRecords(w *shp.Writer, hoods []model.Neighborhood, sts []model.NeighborhoodStat) error {
	fields := []shp.Field{
		shp.StringField("ID", 64),
		shp.StringField("NAME", 80),
		shp.FloatField("MEDPRICE", 12, 2),
		shp.NumberField("LISTINGS", 8),
		shp.StringField("FILLED", 5),
	}
	if err := w.SetFields(fields); err != nil {
		return eris.Wrap(err, "export: set shapefile fields")
	}

	statByHood := make(map[string]model.NeighborhoodStat, len(sts))
	for _, st := range sts {
		statByHood[st.NeighborhoodID] = st
	}

	for i := range hoods {
		h := &hoods[i]
		poly := toShpPolygon(h.Geom)
		w.Write(poly)

		var medPrice float64
		var listings int
		filled := ""
		if st, ok := statByHood[h.ID]; ok {
			medPrice = st.MedianPrice
			listings = st.ListingCount
			if st.Filled {
				filled = "yes"
			} else {
				filled = "no"
			}
		}

		row := i
		if err := w.WriteAttribute(row, 0, h.ID); err != nil {
			return eris.Wrapf(err, "export: write attribute for %s", h.ID)
		}
		if err := w.WriteAttribute(row, 1, h.Name); err != nil {
			return eris.Wrapf(err, "export: write attribute for %s", h.ID)
		}
		if err := w.WriteAttribute(row, 2, medPrice); err != nil {
			return eris.Wrapf(err, "export: write attribute for %s", h.ID)
		}
		if err := w.WriteAttribute(row, 3, listings); err != nil {
			return eris.Wrapf(err, "export: write attribute for %s", h.ID)
		}
		if err := w.WriteAttribute(row, 4, filled); err != nil {
			return eris.Wrapf(err, "export: write attribute for %s", h.ID)
		}
	}
	return nil
}

// toShpPolygon flattens every ring of the multipolygon into one shapefile
// polygon record with multiple parts.
func toShpPolygon(mp *geom.MultiPolygon) *shp.Polygon {
	var parts [][]shp.Point
	for p := 0; p < mp.NumPolygons(); p++ {
		poly := mp.Polygon(p)
		for r := 0; r < poly.NumLinearRings(); r++ {
			flat := poly.LinearRing(r).FlatCoords()
			stride := poly.Stride()
			pts := make([]shp.Point, 0, len(flat)/stride)
			for i := 0; i+1 < len(flat); i += stride {
				pts = append(pts, shp.Point{X: flat[i], Y: flat[i+1]})
			}
			parts = append(parts, pts)
		}
	}
	pl := shp.NewPolyLine(parts)
	poly := shp.Polygon(*pl)
	return &poly
}
