package geomio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/urbanlens/geoatlas/internal/model"
)

func testNeighborhood(t *testing.T, id, name string) model.Neighborhood {
	t.Helper()
	mp := geom.NewMultiPolygonFlat(geom.XY, []float64{
		0, 0, 0, 1, 1, 1, 1, 0, 0, 0,
	}, [][]int{{10}})
	mp.SetSRID(model.SRIDWGS84)
	return model.Neighborhood{ID: id, Name: name, City: "Testville", Geom: mp}
}

func TestListingsFeatureCollection(t *testing.T) {
	listings := []model.Listing{
		{ID: "1", Name: "Loft", Price: 120, Geom: NewListingPoint(-122.4, 37.7)},
		{ID: "2", Name: "No geometry"},
	}

	fc := ListingsFeatureCollection(listings)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "1", fc.Features[0].ID)
	assert.Equal(t, 120.0, fc.Features[0].Properties["price"])
}

func TestNeighborhoodsFeatureCollection_WithStats(t *testing.T) {
	hoods := []model.Neighborhood{testNeighborhood(t, "n1", "Mission")}
	stats := map[string]model.NeighborhoodStat{
		"n1": {NeighborhoodID: "n1", MedianPrice: 150, ListingCount: 2},
	}

	fc := NeighborhoodsFeatureCollection(hoods, stats)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, 150.0, fc.Features[0].Properties["median_price"])
	assert.Equal(t, 2, fc.Features[0].Properties["listing_count"])
	assert.Equal(t, false, fc.Features[0].Properties["filled"])
}

func TestWriteReadGeoJSON_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "neighborhoods.geojson")

	hoods := []model.Neighborhood{testNeighborhood(t, "n1", "Mission")}
	require.NoError(t, WriteGeoJSON(path, NeighborhoodsFeatureCollection(hoods, nil)))

	fc, err := ReadGeoJSON(path)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Mission", fc.Features[0].Properties["name"])

	mp, ok := fc.Features[0].Geometry.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, hoods[0].Geom.FlatCoords(), mp.FlatCoords())
}

func TestReadGeoJSON_Missing(t *testing.T) {
	_, err := ReadGeoJSON(filepath.Join(t.TempDir(), "missing.geojson"))
	require.Error(t, err)
}
