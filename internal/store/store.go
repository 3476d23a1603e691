// Package store persists listings, neighborhood boundaries, and aggregated
// statistics behind a backend-neutral interface.
package store

import (
	"context"

	"github.com/urbanlens/geoatlas/internal/model"
)

// Counts reports how many rows each table holds.
type Counts struct {
	Listings      int `json:"listings"`
	Neighborhoods int `json:"neighborhoods"`
	Stats         int `json:"stats"`
}

// Store defines the persistence interface for the pipeline. Geometries are
// stored as EWKB so the SRID survives a round trip.
type Store interface {
	// Records
	UpsertListings(ctx context.Context, listings []model.Listing) (int, error)
	UpsertNeighborhoods(ctx context.Context, hoods []model.Neighborhood) (int, error)
	ListListings(ctx context.Context) ([]model.Listing, error)
	ListNeighborhoods(ctx context.Context) ([]model.Neighborhood, error)

	// Aggregates
	ReplaceStats(ctx context.Context, stats []model.NeighborhoodStat) error
	ListStats(ctx context.Context) ([]model.NeighborhoodStat, error)

	// Lifecycle
	Counts(ctx context.Context) (*Counts, error)
	Migrate(ctx context.Context) error
	Close() error
}
