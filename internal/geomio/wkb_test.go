package geomio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/urbanlens/geoatlas/internal/model"
)

func TestNewListingPoint_CoordinateOrder(t *testing.T) {
	p := NewListingPoint(-122.4194, 37.7749)

	require.NotNil(t, p)
	assert.Equal(t, -122.4194, p.X())
	assert.Equal(t, 37.7749, p.Y())
	assert.Equal(t, model.SRIDWGS84, p.SRID())
}

func TestDecodeHexWKB_Polygon(t *testing.T) {
	poly := geom.NewPolygonFlat(geom.XY, []float64{
		-122.5, 37.7,
		-122.5, 37.8,
		-122.4, 37.8,
		-122.4, 37.7,
		-122.5, 37.7,
	}, []int{10})

	hexStr, err := EncodeHexWKB(poly)
	require.NoError(t, err)

	mp, err := DecodeHexWKB(hexStr)
	require.NoError(t, err)
	assert.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, model.SRIDWGS84, mp.SRID())
	assert.Equal(t, poly.FlatCoords(), mp.Polygon(0).FlatCoords())
}

func TestDecodeHexWKB_MultiPolygonRoundTrip(t *testing.T) {
	mp := geom.NewMultiPolygonFlat(geom.XY, []float64{
		0, 0, 0, 1, 1, 1, 1, 0, 0, 0,
		2, 2, 2, 3, 3, 3, 3, 2, 2, 2,
	}, [][]int{{10}, {20}})

	hexStr, err := EncodeHexWKB(mp)
	require.NoError(t, err)

	decoded, err := DecodeHexWKB(hexStr)
	require.NoError(t, err)
	assert.Equal(t, 2, decoded.NumPolygons())
	assert.Equal(t, mp.FlatCoords(), decoded.FlatCoords())

	// Re-encoding yields a geometrically equivalent shape.
	hexStr2, err := EncodeHexWKB(decoded)
	require.NoError(t, err)
	decoded2, err := DecodeHexWKB(hexStr2)
	require.NoError(t, err)
	assert.Equal(t, decoded.FlatCoords(), decoded2.FlatCoords())
}

func TestDecodeHexWKB_BadHex(t *testing.T) {
	_, err := DecodeHexWKB("not-hex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode hex")
}

func TestDecodeHexWKB_RejectsPoint(t *testing.T) {
	hexStr, err := EncodeHexWKB(geom.NewPointFlat(geom.XY, []float64{1, 2}))
	require.NoError(t, err)

	_, err = DecodeHexWKB(hexStr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported shape")
}

func TestEWKB_RoundTripPreservesSRID(t *testing.T) {
	p := NewListingPoint(13.4, 52.5)

	data, err := EncodeEWKB(p)
	require.NoError(t, err)

	decoded, err := DecodeEWKBPoint(data)
	require.NoError(t, err)
	assert.Equal(t, model.SRIDWGS84, decoded.SRID())
	assert.Equal(t, p.FlatCoords(), decoded.FlatCoords())
}

func TestDecodeEWKBMultiPolygon_WrapsPolygon(t *testing.T) {
	poly := geom.NewPolygonFlat(geom.XY, []float64{0, 0, 0, 1, 1, 1, 0, 0}, []int{8})
	poly.SetSRID(model.SRIDWGS84)

	data, err := EncodeEWKB(poly)
	require.NoError(t, err)

	mp, err := DecodeEWKBMultiPolygon(data)
	require.NoError(t, err)
	assert.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, model.SRIDWGS84, mp.SRID())
}
