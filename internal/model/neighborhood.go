package model

import (
	"time"

	"github.com/twpayne/go-geom"
)

// Neighborhood is an area boundary decoded from a well-known-binary shape.
// Geometries are normalized to MultiPolygon regardless of the source encoding.
type Neighborhood struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	City      string             `json:"city,omitempty"`
	Geom      *geom.MultiPolygon `json:"-"`
	CreatedAt time.Time          `json:"created_at,omitempty"`
}

// SRID returns the SRID of the boundary geometry, or 0 when no geometry is set.
func (n *Neighborhood) SRID() int {
	if n.Geom == nil {
		return 0
	}
	return n.Geom.SRID()
}

// NeighborhoodStat holds the aggregated price statistic for one neighborhood.
// Filled marks neighborhoods that contained no listings and received the
// configured fallback value instead of a computed median.
type NeighborhoodStat struct {
	ID             string    `json:"id"`
	NeighborhoodID string    `json:"neighborhood_id"`
	Name           string    `json:"name"`
	MedianPrice    float64   `json:"median_price"`
	ListingCount   int       `json:"listing_count"`
	Filled         bool      `json:"filled"`
	ComputedAt     time.Time `json:"computed_at"`
}
