package geomio

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/urbanlens/geoatlas/internal/model"
)

// ToWebMercator returns a copy of g projected from WGS84 to Web Mercator.
func ToWebMercator(g geom.T) (geom.T, error) {
	if g.SRID() != model.SRIDWGS84 {
		return nil, eris.Errorf("geomio: expected SRID %d, got %d", model.SRIDWGS84, g.SRID())
	}
	return reproject(g, model.SRIDWebMercator, project.WGS84.ToMercator)
}

// ToWGS84 returns a copy of g projected from Web Mercator back to WGS84.
func ToWGS84(g geom.T) (geom.T, error) {
	if g.SRID() != model.SRIDWebMercator {
		return nil, eris.Errorf("geomio: expected SRID %d, got %d", model.SRIDWebMercator, g.SRID())
	}
	return reproject(g, model.SRIDWGS84, project.Mercator.ToWGS84)
}

// reproject applies a point projection to every coordinate pair of g and
// returns a new geometry of the same type tagged with the target SRID.
// Only the XY layout produced by ingest is supported.
func reproject(g geom.T, srid int, fn func(orb.Point) orb.Point) (geom.T, error) {
	if g.Layout() != geom.XY {
		return nil, eris.Errorf("geomio: unsupported layout %v", g.Layout())
	}

	flat := projectFlat(g.FlatCoords(), fn)

	switch t := g.(type) {
	case *geom.Point:
		return geom.NewPointFlat(geom.XY, flat).SetSRID(srid), nil
	case *geom.MultiPoint:
		return geom.NewMultiPointFlat(geom.XY, flat).SetSRID(srid), nil
	case *geom.LineString:
		return geom.NewLineStringFlat(geom.XY, flat).SetSRID(srid), nil
	case *geom.Polygon:
		return geom.NewPolygonFlat(geom.XY, flat, t.Ends()).SetSRID(srid), nil
	case *geom.MultiPolygon:
		return geom.NewMultiPolygonFlat(geom.XY, flat, t.Endss()).SetSRID(srid), nil
	default:
		return nil, eris.Errorf("geomio: cannot reproject %T", g)
	}
}

func projectFlat(src []float64, fn func(orb.Point) orb.Point) []float64 {
	flat := make([]float64, len(src))
	for i := 0; i+1 < len(src); i += 2 {
		p := fn(orb.Point{src[i], src[i+1]})
		flat[i], flat[i+1] = p[0], p[1]
	}
	return flat
}
