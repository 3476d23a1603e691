package geomio

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/urbanlens/geoatlas/internal/model"
)

// ListingsFeatureCollection builds a GeoJSON feature collection of listing points.
func ListingsFeatureCollection(listings []model.Listing) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{}
	for i := range listings {
		l := &listings[i]
		if l.Geom == nil {
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       l.ID,
			Geometry: l.Geom,
			Properties: map[string]interface{}{
				"name":          l.Name,
				"neighbourhood": l.Neighbourhood,
				"city":          l.City,
				"state":         l.State,
				"zipcode":       l.Zipcode,
				"country":       l.Country,
				"price":         l.Price,
			},
		})
	}
	return fc
}

// NeighborhoodsFeatureCollection builds a GeoJSON feature collection of
// neighborhood boundaries. When stats is non-nil, each feature carries its
// aggregated statistic as properties.
func NeighborhoodsFeatureCollection(hoods []model.Neighborhood, stats map[string]model.NeighborhoodStat) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{}
	for i := range hoods {
		n := &hoods[i]
		if n.Geom == nil {
			continue
		}
		props := map[string]interface{}{
			"name": n.Name,
			"city": n.City,
		}
		if stats != nil {
			if s, ok := stats[n.ID]; ok {
				props["median_price"] = s.MedianPrice
				props["listing_count"] = s.ListingCount
				props["filled"] = s.Filled
			}
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         n.ID,
			Geometry:   n.Geom,
			Properties: props,
		})
	}
	return fc
}

// WriteGeoJSON serializes a feature collection to a file, creating parent
// directories as needed.
func WriteGeoJSON(path string, fc *geojson.FeatureCollection) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "geomio: marshal feature collection")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "geomio: create dir for %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "geomio: write %s", path)
	}
	return nil
}

// ReadGeoJSON loads a feature collection written by WriteGeoJSON.
func ReadGeoJSON(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geomio: read %s", path)
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "geomio: unmarshal %s", path)
	}
	return &fc, nil
}
