package spatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbanlens/geoatlas/internal/model"
)

// boundaryEpsilon bounds the cross-product test deciding whether a point lies
// on a ring segment. Coordinates are degrees, so this is far below any real
// data precision.
const boundaryEpsilon = 1e-12

// JoinResult holds the outcome of a spatial join run.
type JoinResult struct {
	// ByNeighborhood maps neighborhood ID to the listings whose point falls
	// inside (or on the boundary of) that neighborhood's geometry.
	ByNeighborhood map[string][]*model.Listing
	Matched        int
	Unmatched      []*model.Listing
}

// Join assigns each listing to the first neighborhood, in input order, whose
// boundary contains the listing point. Containment is boundary-inclusive. All
// geometries must share one SRID; a mismatch is an error rather than an empty
// result.
func Join(listings []model.Listing, hoods []model.Neighborhood) (*JoinResult, error) {
	if err := checkSRIDs(listings, hoods); err != nil {
		return nil, err
	}

	type prepared struct {
		id  string
		orb orb.MultiPolygon
	}
	preps := make([]prepared, 0, len(hoods))
	for i := range hoods {
		n := &hoods[i]
		if n.Geom == nil {
			continue
		}
		omp, err := toOrbMultiPolygon(n.Geom)
		if err != nil {
			return nil, eris.Wrapf(err, "spatial: prepare neighborhood %s", n.ID)
		}
		preps = append(preps, prepared{id: n.ID, orb: omp})
	}

	res := &JoinResult{ByNeighborhood: make(map[string][]*model.Listing, len(preps))}

	for i := range listings {
		l := &listings[i]
		if l.Geom == nil {
			res.Unmatched = append(res.Unmatched, l)
			continue
		}
		pt := orb.Point{l.Geom.X(), l.Geom.Y()}

		assigned := false
		for _, p := range preps {
			if ContainsInclusive(p.orb, pt) {
				res.ByNeighborhood[p.id] = append(res.ByNeighborhood[p.id], l)
				res.Matched++
				assigned = true
				break
			}
		}
		if !assigned {
			res.Unmatched = append(res.Unmatched, l)
		}
	}

	zap.L().Info("spatial join complete",
		zap.Int("listings", len(listings)),
		zap.Int("matched", res.Matched),
		zap.Int("unmatched", len(res.Unmatched)),
		zap.Int("neighborhoods", len(preps)),
	)

	return res, nil
}

// ContainsInclusive reports whether the point is inside the multipolygon or
// exactly on one of its ring boundaries. The even-odd test used by the planar
// predicate is unreliable for boundary points, so those are checked first.
func ContainsInclusive(mp orb.MultiPolygon, pt orb.Point) bool {
	for _, poly := range mp {
		for _, ring := range poly {
			if onRing(ring, pt) {
				return true
			}
		}
	}
	return planar.MultiPolygonContains(mp, pt)
}

// onRing reports whether the point lies on one of the ring's segments.
func onRing(ring orb.Ring, pt orb.Point) bool {
	for i := 1; i < len(ring); i++ {
		if onSegment(ring[i-1], ring[i], pt) {
			return true
		}
	}
	return false
}

// onSegment reports whether p lies on the segment a-b.
func onSegment(a, b, p orb.Point) bool {
	cross := (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
	if math.Abs(cross) > boundaryEpsilon {
		return false
	}
	return p[0] >= math.Min(a[0], b[0]) && p[0] <= math.Max(a[0], b[0]) &&
		p[1] >= math.Min(a[1], b[1]) && p[1] <= math.Max(a[1], b[1])
}

// checkSRIDs verifies that every geometry in the join shares one SRID.
func checkSRIDs(listings []model.Listing, hoods []model.Neighborhood) error {
	srid := 0
	for i := range hoods {
		if hoods[i].Geom == nil {
			continue
		}
		s := hoods[i].Geom.SRID()
		if srid == 0 {
			srid = s
		} else if s != srid {
			return eris.Errorf("spatial: neighborhood %s SRID %d differs from %d", hoods[i].ID, s, srid)
		}
	}
	for i := range listings {
		if listings[i].Geom == nil {
			continue
		}
		if s := listings[i].Geom.SRID(); srid != 0 && s != srid {
			return eris.Errorf("spatial: listing %s SRID %d differs from neighborhood SRID %d", listings[i].ID, s, srid)
		}
	}
	return nil
}
