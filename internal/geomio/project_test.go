package geomio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/urbanlens/geoatlas/internal/model"
)

func TestToWebMercator_Point(t *testing.T) {
	p := NewListingPoint(0, 0)

	projected, err := ToWebMercator(p)
	require.NoError(t, err)

	mp, ok := projected.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, model.SRIDWebMercator, mp.SRID())
	assert.InDelta(t, 0, mp.X(), 1e-6)
	assert.InDelta(t, 0, mp.Y(), 1e-6)
}

func TestReproject_RoundTripWithinTolerance(t *testing.T) {
	coords := [][2]float64{
		{-122.4194, 37.7749},
		{13.405, 52.52},
		{151.2093, -33.8688},
		{0, 0},
	}

	for _, c := range coords {
		p := NewListingPoint(c[0], c[1])

		merc, err := ToWebMercator(p)
		require.NoError(t, err)

		back, err := ToWGS84(merc)
		require.NoError(t, err)

		bp := back.(*geom.Point)
		assert.InDelta(t, c[0], bp.X(), 1e-9)
		assert.InDelta(t, c[1], bp.Y(), 1e-9)
		assert.Equal(t, model.SRIDWGS84, bp.SRID())
	}
}

func TestToWebMercator_MultiPolygon(t *testing.T) {
	mp := geom.NewMultiPolygonFlat(geom.XY, []float64{
		-1, -1, -1, 1, 1, 1, 1, -1, -1, -1,
	}, [][]int{{10}})
	mp.SetSRID(model.SRIDWGS84)

	projected, err := ToWebMercator(mp)
	require.NoError(t, err)

	out := projected.(*geom.MultiPolygon)
	assert.Equal(t, model.SRIDWebMercator, out.SRID())
	assert.Equal(t, 1, out.NumPolygons())
	// Mercator x at -1 degree is about -111319.49 meters.
	assert.InDelta(t, -111319.49, out.FlatCoords()[0], 0.01)

	back, err := ToWGS84(projected)
	require.NoError(t, err)
	for i, v := range mp.FlatCoords() {
		assert.InDelta(t, v, back.FlatCoords()[i], 1e-9)
	}
}

func TestToWebMercator_WrongSRID(t *testing.T) {
	p := geom.NewPointFlat(geom.XY, []float64{1, 2}).SetSRID(model.SRIDWebMercator)

	_, err := ToWebMercator(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected SRID")
}

func TestToWGS84_WrongSRID(t *testing.T) {
	p := NewListingPoint(1, 2)

	_, err := ToWGS84(p)
	require.Error(t, err)
}
