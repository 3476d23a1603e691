// Package spatial performs the point-in-polygon join between listings and
// neighborhood boundaries.
package spatial

import (
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// toOrbMultiPolygon converts a go-geom MultiPolygon into orb's representation
// so the planar predicates can be applied to it.
func toOrbMultiPolygon(mp *geom.MultiPolygon) (orb.MultiPolygon, error) {
	if mp == nil {
		return nil, eris.New("spatial: nil multipolygon")
	}
	if mp.Layout() != geom.XY {
		return nil, eris.Errorf("spatial: unsupported layout %v", mp.Layout())
	}

	out := make(orb.MultiPolygon, 0, mp.NumPolygons())
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		rings := make(orb.Polygon, 0, poly.NumLinearRings())
		for j := 0; j < poly.NumLinearRings(); j++ {
			lr := poly.LinearRing(j)
			flat := lr.FlatCoords()
			ring := make(orb.Ring, 0, len(flat)/2)
			for k := 0; k+1 < len(flat); k += 2 {
				ring = append(ring, orb.Point{flat[k], flat[k+1]})
			}
			rings = append(rings, ring)
		}
		out = append(out, rings)
	}
	return out, nil
}
