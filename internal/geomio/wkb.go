// Package geomio converts between the pipeline's geometry model and its wire
// encodings: hex WKB on ingest, EWKB in the store, GeoJSON in the output
// package files.
package geomio

import (
	"encoding/hex"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/urbanlens/geoatlas/internal/model"
)

// NewListingPoint builds the point geometry for a listing record.
// The coordinate order is (longitude, latitude), matching WKB conventions.
func NewListingPoint(lng, lat float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lng, lat}).SetSRID(model.SRIDWGS84)
}

// DecodeHexWKB decodes a hex-encoded WKB (or EWKB) shape column into a
// MultiPolygon. Plain Polygons are wrapped; geometries without an SRID are
// assumed WGS84.
func DecodeHexWKB(s string) (*geom.MultiPolygon, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, eris.Wrap(err, "geomio: decode hex shape")
	}

	g, err := wkb.Unmarshal(data)
	if err != nil {
		// Source exports sometimes carry EWKB with an embedded SRID.
		g, err = ewkb.Unmarshal(data)
		if err != nil {
			return nil, eris.Wrap(err, "geomio: unmarshal WKB shape")
		}
	}

	mp, err := asMultiPolygon(g)
	if err != nil {
		return nil, err
	}
	if mp.SRID() == 0 {
		mp.SetSRID(model.SRIDWGS84)
	}
	return mp, nil
}

// EncodeHexWKB encodes a geometry as hex WKB, the inverse of DecodeHexWKB.
func EncodeHexWKB(g geom.T) (string, error) {
	data, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return "", eris.Wrap(err, "geomio: marshal WKB")
	}
	return hex.EncodeToString(data), nil
}

// EncodeEWKB encodes a geometry as EWKB with its SRID, the store encoding.
func EncodeEWKB(g geom.T) ([]byte, error) {
	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geomio: marshal EWKB")
	}
	return data, nil
}

// DecodeEWKB decodes a store EWKB blob.
func DecodeEWKB(data []byte) (geom.T, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "geomio: unmarshal EWKB")
	}
	return g, nil
}

// DecodeEWKBPoint decodes a store EWKB blob that must be a point.
func DecodeEWKBPoint(data []byte) (*geom.Point, error) {
	g, err := DecodeEWKB(data)
	if err != nil {
		return nil, err
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return nil, eris.Errorf("geomio: expected point geometry, got %T", g)
	}
	return p, nil
}

// DecodeEWKBMultiPolygon decodes a store EWKB blob into a MultiPolygon,
// wrapping a plain Polygon if necessary.
func DecodeEWKBMultiPolygon(data []byte) (*geom.MultiPolygon, error) {
	g, err := DecodeEWKB(data)
	if err != nil {
		return nil, err
	}
	mp, err := asMultiPolygon(g)
	if err != nil {
		return nil, err
	}
	if mp.SRID() == 0 {
		mp.SetSRID(g.SRID())
	}
	return mp, nil
}

// asMultiPolygon normalizes a decoded geometry to MultiPolygon.
func asMultiPolygon(g geom.T) (*geom.MultiPolygon, error) {
	switch t := g.(type) {
	case *geom.MultiPolygon:
		return t, nil
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(t.Layout())
		mp.SetSRID(t.SRID())
		if err := mp.Push(t); err != nil {
			return nil, eris.Wrap(err, "geomio: wrap polygon")
		}
		return mp, nil
	default:
		return nil, eris.Errorf("geomio: unsupported shape type %T", g)
	}
}
