// Package model defines the record types flowing through the geoatlas pipeline.
package model

import (
	"time"

	"github.com/twpayne/go-geom"
)

// SRIDWGS84 is the SRID every geometry carries between ingest and render.
const SRIDWGS84 = 4326

// SRIDWebMercator is the projected SRID used for rendering.
const SRIDWebMercator = 3857

// Listing is a short-term-rental listing with a derived point geometry.
// Geom is always (longitude, latitude) in the listing's SRID.
type Listing struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Neighbourhood string      `json:"neighbourhood,omitempty"` // source free-text label, not authoritative
	City          string      `json:"city,omitempty"`
	State         string      `json:"state,omitempty"`
	Zipcode       string      `json:"zipcode,omitempty"`
	Country       string      `json:"country,omitempty"`
	Latitude      float64     `json:"latitude"`
	Longitude     float64     `json:"longitude"`
	Price         float64     `json:"price"`
	Geom          *geom.Point `json:"-"`
	CreatedAt     time.Time   `json:"created_at,omitempty"`
}

// SRID returns the SRID of the listing geometry, or 0 when no geometry is set.
func (l *Listing) SRID() int {
	if l.Geom == nil {
		return 0
	}
	return l.Geom.SRID()
}
